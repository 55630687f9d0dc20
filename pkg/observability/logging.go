package observability

import (
	"context"
	"log/slog"

	"github.com/ArnavBalyan/concierge/pkg/domain"
)

// LogHooks logs every lifecycle event at debug level, failures at warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnOutcome: func(ctx context.Context, e *domain.OutcomeEvent) {
			level := slog.LevelDebug
			if e.Status == domain.StatusError {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "action_handled",
				"session_id", e.SessionID,
				"workflow", e.Workflow,
				"action", e.Action,
				"status", e.Status,
			)
		},
		OnTaskExecuted: func(ctx context.Context, e *domain.TaskEvent) {
			logger.DebugContext(ctx, "task_executed",
				"session_id", e.SessionID,
				"stage", e.Stage,
				"task", e.Task,
				"duration", e.Duration,
				"is_error", e.IsError,
			)
		},
		OnStageEntered: func(ctx context.Context, e *domain.StageEvent) {
			logger.DebugContext(ctx, "stage_entered",
				"session_id", e.SessionID,
				"from", e.From,
				"to", e.To,
			)
		},
	}
}
