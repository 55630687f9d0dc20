package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ArnavBalyan/concierge"
	"github.com/ArnavBalyan/concierge/internal/config"
	"github.com/ArnavBalyan/concierge/internal/demo"
	"github.com/ArnavBalyan/concierge/pkg/adapters/file"
	"github.com/ArnavBalyan/concierge/pkg/adapters/memory"
	"github.com/ArnavBalyan/concierge/pkg/adapters/redis"
	"github.com/ArnavBalyan/concierge/pkg/adapters/sqlite"
	"github.com/ArnavBalyan/concierge/pkg/observability"
	"github.com/ArnavBalyan/concierge/pkg/persistence/middleware"
	"github.com/ArnavBalyan/concierge/pkg/ports"
)

// Runtime is a fully wired engine plus the pieces the commands expose next to it.
type Runtime struct {
	Engine  *concierge.Engine
	Metrics *observability.Metrics
	History ports.HistoryReader

	closers []func() error
}

// Close releases the store and audit connections.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	return errors.Join(errs...)
}

// CreateEngine wires storage (Redis, then CONCIERGE_SESSION_DIR, then memory), locking, auditing, metrics and workflows from cfg.
// Without CONCIERGE_WORKFLOWS the demo shop workflow is registered.
func CreateEngine(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{Metrics: observability.NewMetrics(nil)}
	opts := []concierge.Option{
		concierge.WithLogger(logger),
		concierge.WithHooks(rt.Metrics.Hooks()),
		concierge.WithHooks(observability.LogHooks(logger)),
		concierge.WithLockTimeout(cfg.LockTimeout),
		concierge.WithTaskTimeout(cfg.TaskTimeout),
	}

	// 1. Sessions
	var store ports.SessionStore = memory.NewStore()
	if cfg.RedisAddr != "" {
		rs := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redis.WithTTL(cfg.SessionTTL))
		if err := rs.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis unreachable at %s: %w", cfg.RedisAddr, err)
		}
		rt.closers = append(rt.closers, rs.Client().Close)
		store = rs
		opts = append(opts, concierge.WithLocker(redis.NewLocker(rs.Client(), rs.Prefix())))
		logger.Info("Using Redis session store", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	} else if cfg.SessionDir != "" {
		store = file.New(cfg.SessionDir)
		logger.Info("Using file session store", "dir", cfg.SessionDir)
	}

	key, err := cfg.Key()
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	if key != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		store = middleware.Chain(store, enc)
	}
	opts = append(opts, concierge.WithStore(store))

	// 2. Audit trail
	var history ports.History = memory.NewHistory()
	if cfg.AuditDSN != "" {
		h, err := sqlite.Open(cfg.AuditDSN)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
		rt.closers = append(rt.closers, h.Close)
		history = h
	}
	var recorder ports.HistoryRecorder = history
	if len(cfg.PIIPatterns) > 0 {
		mask, err := middleware.NewPIIMiddleware(cfg.PIIPatterns)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		recorder = mask(recorder)
	}
	rt.History = history
	opts = append(opts, concierge.WithRecorder(recorder))

	// 3. Workflows
	rt.Engine = concierge.New(opts...)
	if cfg.WorkflowsPath != "" {
		err = rt.Engine.LoadWorkflows(cfg.WorkflowsPath, demo.Handlers())
	} else {
		err = rt.Engine.RegisterFrom(memory.NewSource(demo.Workflow()))
	}
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}
