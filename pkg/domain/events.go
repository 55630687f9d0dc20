package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTaskExecuted EventType = "task_executed"
	EventStageEntered EventType = "stage_entered"
	EventOutcome      EventType = "outcome"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Workflow  string    `json:"workflow"`
}

// TaskEvent is emitted after a task body returns.
type TaskEvent struct {
	EventBase
	Stage    string        `json:"stage"`
	Task     string        `json:"task"`
	Duration time.Duration `json:"duration"`
	IsError  bool          `json:"is_error,omitempty"`
}

// StageEvent is emitted after a successful stage transition.
type StageEvent struct {
	EventBase
	From string `json:"from"`
	To   string `json:"to"`
}

// OutcomeEvent is emitted once per handled action.
type OutcomeEvent struct {
	EventBase
	Action ActionType `json:"action"`
	Status Status     `json:"status"`
}

// LifecycleHooks defines callbacks for engine observability.
// Nil hooks are skipped.
type LifecycleHooks struct {
	OnTaskExecuted func(context.Context, *TaskEvent)
	OnStageEntered func(context.Context, *StageEvent)
	OnOutcome      func(context.Context, *OutcomeEvent)
}

// Merge combines two hook sets; both callbacks run when both are set.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTaskExecuted: chain(h.OnTaskExecuted, other.OnTaskExecuted),
		OnStageEntered: chain(h.OnStageEntered, other.OnStageEntered),
		OnOutcome:      chain(h.OnOutcome, other.OnOutcome),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
