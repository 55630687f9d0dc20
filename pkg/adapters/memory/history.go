package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/ArnavBalyan/concierge/pkg/domain"
)

// History implements ports.History in memory. Useful for tests and the chat REPL.
type History struct {
	mu      sync.RWMutex
	records []domain.AuditRecord
}

// NewHistory creates an empty in-memory audit trail.
func NewHistory() *History {
	return &History{}
}

// Record appends rec.
func (h *History) Record(ctx context.Context, rec domain.AuditRecord) error {
	rec.Args = maps.Clone(rec.Args)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
	return nil
}

// History returns the records of one session in insertion order.
func (h *History) History(ctx context.Context, sessionID string) ([]domain.AuditRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []domain.AuditRecord
	for _, rec := range h.records {
		if rec.SessionID == sessionID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Len returns the total number of records.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}
