package tests

import (
	"context"
	"testing"
	"time"

	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/ports"
)

// HistoryContractTest is a reusable test suite that verifies if an adapter complies with ports.History.
func HistoryContractTest(t *testing.T, history ports.History) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	records := []domain.AuditRecord{
		{
			SessionID: "s-1", Workflow: "shop", Stage: "browse",
			Action: domain.ActionInvoke, Task: "add_to_cart", Status: domain.StatusNeedsInput,
			Args: map[string]any{"product_id": "X"}, At: base,
		},
		{
			SessionID: "s-1", Workflow: "shop", Stage: "browse",
			Action: domain.ActionAnswer, Task: "add_to_cart", Status: domain.StatusOK,
			Args:   map[string]any{"product_id": "X", "quantity": 2},
			Result: domain.Result{}.With("cart_size", 2), At: base.Add(time.Second),
		},
		{
			SessionID: "s-2", Workflow: "shop", Stage: "browse",
			Action: domain.ActionHandshake, Status: domain.StatusOK, At: base,
		},
	}

	// 1. Record
	t.Run("Record", func(t *testing.T) {
		for _, rec := range records {
			if err := history.Record(ctx, rec); err != nil {
				t.Fatalf("Record() failed: %v", err)
			}
		}
	})

	// 2. Read back, per session, oldest first
	t.Run("History_Ordered", func(t *testing.T) {
		got, err := history.History(ctx, "s-1")
		if err != nil {
			t.Fatalf("History() failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 records, got %d", len(got))
		}
		if got[0].Action != domain.ActionInvoke || got[1].Action != domain.ActionAnswer {
			t.Errorf("unexpected order: %s, %s", got[0].Action, got[1].Action)
		}
		if got[1].Status != domain.StatusOK || got[1].Task != "add_to_cart" {
			t.Errorf("unexpected record: %+v", got[1])
		}
		if v, ok := got[1].Result.Get("cart_size"); !ok || v == nil {
			t.Errorf("result lost: %+v", got[1].Result)
		}
		if !got[0].At.Equal(base) {
			t.Errorf("timestamp = %v, want %v", got[0].At, base)
		}
	})

	// 3. Unknown session
	t.Run("History_Empty", func(t *testing.T) {
		got, err := history.History(ctx, "nobody")
		if err != nil {
			t.Fatalf("History() failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no records, got %d", len(got))
		}
	})
}
