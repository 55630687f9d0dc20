package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArnavBalyan/concierge/pkg/adapters/sqlite"
	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/ports/tests"
)

func TestHistoryContract(t *testing.T) {
	h, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer h.Close()

	tests.HistoryContractTest(t, h)
}

func TestHistory_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	ctx := context.Background()

	h, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, h.Record(ctx, domain.AuditRecord{
		SessionID: "s1", Workflow: "shop", Action: domain.ActionTerminate,
		Status: domain.StatusError, Error: domain.CodeSessionNotFound, At: time.Now(),
	}))
	require.NoError(t, h.Close())

	h, err = sqlite.Open(path)
	require.NoError(t, err)
	defer h.Close()

	got, err := h.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.CodeSessionNotFound, got[0].Error)
	assert.Nil(t, got[0].Args)
	assert.Nil(t, got[0].Result)

	ids, err := h.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}
