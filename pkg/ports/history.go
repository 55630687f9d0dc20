package ports

import (
	"context"

	"github.com/ArnavBalyan/concierge/pkg/domain"
)

// HistoryRecorder persists an audit trail of handled actions.
// Recording failures never fail the request that produced them.
type HistoryRecorder interface {
	Record(ctx context.Context, rec domain.AuditRecord) error
}

// HistoryReader reads the audit trail back, oldest first.
type HistoryReader interface {
	History(ctx context.Context, sessionID string) ([]domain.AuditRecord, error)
}

// History is implemented by recorders that can also be queried.
type History interface {
	HistoryRecorder
	HistoryReader
}
