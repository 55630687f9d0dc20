package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/ports"
	"github.com/ArnavBalyan/concierge/pkg/state"
)

// Mask replaces values whose key matches a PII pattern.
const Mask = "***"

type piiRecorder struct {
	next     ports.HistoryRecorder
	patterns []*regexp.Regexp
}

// NewPIIMiddleware masks arguments and results whose keys match any of the patterns
// before audit records reach the underlying recorder. Sessions themselves are not
// touched: tasks still see the real values.
func NewPIIMiddleware(patterns []string) (RecorderMiddleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid PII pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.HistoryRecorder) ports.HistoryRecorder {
		return &piiRecorder{next: next, patterns: compiled}
	}, nil
}

func (m *piiRecorder) Record(ctx context.Context, rec domain.AuditRecord) error {
	if rec.Args != nil {
		args, _ := state.DeepCopy(rec.Args).(map[string]any)
		m.maskMap(args)
		rec.Args = args
	}
	if rec.Result != nil {
		masked := make(domain.Result, len(rec.Result))
		for i, f := range rec.Result {
			masked[i] = domain.Field{Key: f.Key, Value: m.maskValue(f.Key, state.DeepCopy(f.Value))}
		}
		rec.Result = masked
	}
	return m.next.Record(ctx, rec)
}

// History passes through when the wrapped recorder can be read back.
func (m *piiRecorder) History(ctx context.Context, sessionID string) ([]domain.AuditRecord, error) {
	if r, ok := m.next.(ports.HistoryReader); ok {
		return r.History(ctx, sessionID)
	}
	return nil, fmt.Errorf("audit recorder %T cannot be read back", m.next)
}

func (m *piiRecorder) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

func (m *piiRecorder) maskValue(key string, v any) any {
	if m.matches(key) {
		return Mask
	}
	switch val := v.(type) {
	case map[string]any:
		m.maskMap(val)
	case []any:
		for _, item := range val {
			if sub, ok := item.(map[string]any); ok {
				m.maskMap(sub)
			}
		}
	}
	return v
}

func (m *piiRecorder) maskMap(values map[string]any) {
	for k, v := range values {
		values[k] = m.maskValue(k, v)
	}
}
