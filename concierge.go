package concierge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ArnavBalyan/concierge/internal/logging"
	"github.com/ArnavBalyan/concierge/internal/runtime"
	"github.com/ArnavBalyan/concierge/pkg/adapters/memory"
	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/loader"
	"github.com/ArnavBalyan/concierge/pkg/ports"
	"github.com/ArnavBalyan/concierge/pkg/registry"
	"github.com/ArnavBalyan/concierge/pkg/session"
)

// Engine is the high-level entry point for the Concierge library.
// It owns the workflow registry and the session manager and runs actions through
// the orchestrator. It implements ports.Engine, so any adapter can serve it.
type Engine struct {
	registry     *registry.Registry
	sessions     *session.Manager
	orchestrator *runtime.Orchestrator

	store       ports.SessionStore
	locker      ports.DistributedLocker
	recorder    ports.HistoryRecorder
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	lockTimeout time.Duration
	taskTimeout time.Duration
}

var _ ports.Engine = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets where sessions are persisted (default: in memory).
func WithStore(store ports.SessionStore) Option {
	return func(e *Engine) { e.store = store }
}

// WithLocker serializes session access across processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) { e.locker = locker }
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithHooks registers observability hooks. Repeated calls add to the earlier ones.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = e.hooks.Merge(hooks) }
}

// WithRecorder writes an audit record for every handled action.
func WithRecorder(rec ports.HistoryRecorder) Option {
	return func(e *Engine) { e.recorder = rec }
}

// WithLockTimeout bounds how long an action waits for a busy session.
func WithLockTimeout(d time.Duration) Option {
	return func(e *Engine) { e.lockTimeout = d }
}

// WithTaskTimeout bounds a single task body. Zero means no limit.
func WithTaskTimeout(d time.Duration) Option {
	return func(e *Engine) { e.taskTimeout = d }
}

// New creates an Engine with no workflows registered.
func New(opts ...Option) *Engine {
	e := &Engine{
		registry: registry.New(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}

	sessOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(e.locker))
	}
	if e.lockTimeout > 0 {
		sessOpts = append(sessOpts, session.WithLockTimeout(e.lockTimeout))
	}
	e.sessions = session.NewManager(e.store, sessOpts...)

	runOpts := []runtime.Option{
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithTaskTimeout(e.taskTimeout),
	}
	if e.recorder != nil {
		runOpts = append(runOpts, runtime.WithRecorder(e.recorder))
	}
	e.orchestrator = runtime.New(e.registry, e.sessions, runOpts...)
	return e
}

// Register validates and adds workflows. It stops at the first failure;
// workflows before it stay registered.
func (e *Engine) Register(workflows ...*domain.Workflow) error {
	for _, wf := range workflows {
		if err := e.registry.Register(wf); err != nil {
			return err
		}
		e.logger.Debug("Workflow registered", "workflow", wf.Name, "stages", len(wf.Stages))
	}
	return nil
}

// RegisterFrom registers every workflow the sources supply, in order.
func (e *Engine) RegisterFrom(sources ...ports.WorkflowSource) error {
	for _, src := range sources {
		workflows, err := src.Workflows()
		if err != nil {
			return err
		}
		if err := e.Register(workflows...); err != nil {
			return err
		}
	}
	return nil
}

// LoadWorkflows reads YAML workflow definitions from a file or directory, binds their
// tasks to handlers and registers them.
func (e *Engine) LoadWorkflows(path string, handlers *registry.Handlers) error {
	return e.RegisterFrom(ports.WorkflowSourceFunc(func() ([]*domain.Workflow, error) {
		workflows, err := loader.Load(path, handlers)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflows from %s: %w", path, err)
		}
		return workflows, nil
	}))
}

// Handle runs one action against a workflow session.
func (e *Engine) Handle(ctx context.Context, req domain.Request) (*domain.Response, error) {
	return e.orchestrator.Handle(ctx, req)
}

// Lookup returns a registered workflow.
func (e *Engine) Lookup(name string) (*domain.Workflow, error) {
	return e.registry.Lookup(name)
}

// Workflows lists registered workflows in registration order.
func (e *Engine) Workflows() []*domain.Workflow {
	return e.registry.Workflows()
}

// Search returns workflows fuzzily matching query.
func (e *Engine) Search(query string) []*domain.Workflow {
	return e.registry.Search(query)
}

// Sessions exposes the session manager, for listing and inspecting sessions.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}
