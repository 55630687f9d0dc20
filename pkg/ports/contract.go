package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/state"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	newSession := func(id string) *domain.Session {
		return &domain.Session{
			ID:           id,
			Workflow:     "shop",
			CurrentStage: "browse",
			State:        state.New(),
			CreatedAt:    time.Now().UTC(),
			UpdatedAt:    time.Now().UTC(),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		s := newSession(sessionID)
		require.NoError(t, s.State.Set("cart.items", []any{"sku-1"}))
		require.NoError(t, s.State.Set("user.name", "ana"))
		s.Pending = &domain.PendingRequest{
			Task:    "add_to_cart",
			Stage:   "browse",
			Args:    map[string]any{"product_id": "X"},
			Missing: []string{"quantity"},
		}
		s.History = []domain.Invocation{{
			Task:   "search",
			Stage:  "browse",
			Result: domain.Result{}.With("count", 2).With("first", "sku-1"),
			At:     time.Now().UTC(),
		}}

		require.NoError(t, store.Save(ctx, sessionID, s), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "browse", loaded.CurrentStage)
		assert.Equal(t, "shop", loaded.Workflow)
		assert.True(t, loaded.State.Exists("cart.items"))
		name, _ := loaded.State.Get("user.name")
		assert.Equal(t, "ana", name)
		require.NotNil(t, loaded.Pending)
		assert.Equal(t, []string{"quantity"}, loaded.Pending.Missing)
		require.Len(t, loaded.History, 1)
		assert.Equal(t, []string{"count", "first"}, loaded.History[0].Result.Keys(), "result order must survive persistence")
	})

	t.Run("Loaded copies are isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		require.NoError(t, loaded.State.Set("user.name", "mutated"))

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		name, _ := again.State.Get("user.name")
		assert.Equal(t, "ana", name)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, newSession(sessionID)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, newSession(id1))
		_ = store.Save(ctx, id2, newSession(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
