package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/ArnavBalyan/concierge/internal/logging"
	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/ports"
	"github.com/ArnavBalyan/concierge/pkg/registry"
	"github.com/ArnavBalyan/concierge/pkg/schema"
	"github.com/ArnavBalyan/concierge/pkg/session"
)

// Orchestrator is the single entry point that drives sessions through their workflows.
type Orchestrator struct {
	registry    *registry.Registry
	sessions    *session.Manager
	logger      *slog.Logger
	hooks       domain.LifecycleHooks
	recorder    ports.HistoryRecorder
	taskTimeout time.Duration
	now         func() time.Time
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger used for execution failures and audit errors.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *Orchestrator) { o.hooks = o.hooks.Merge(hooks) }
}

// WithRecorder writes every handled action to an audit trail.
func WithRecorder(rec ports.HistoryRecorder) Option {
	return func(o *Orchestrator) { o.recorder = rec }
}

// WithTaskTimeout bounds a single task body. Zero means only the request context applies.
func WithTaskTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.taskTimeout = d }
}

// New creates an orchestrator over a registry and a session manager.
func New(reg *registry.Registry, sessions *session.Manager, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: reg,
		sessions: sessions,
		logger:   logging.NewNop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// outcome is what a handler decided: the response plus what to persist.
type outcome struct {
	resp   *domain.Response
	save   bool
	delete bool
	args   map[string]any
}

// Handle runs one action against a workflow session.
//
// Configuration errors (unknown workflow, stage or task) and protocol errors
// (TaskNotAvailableError, NoPendingRequestError, session not found or busy) are
// returned as errors. Missing parameters, type errors, failed prerequisites and
// rejected transitions are returned as a Response and leave the session as it was.
// A failing task body yields domain.ErrExecutionFailed; state it wrote before
// failing is kept.
func (o *Orchestrator) Handle(ctx context.Context, req domain.Request) (*domain.Response, error) {
	wf, err := o.registry.Lookup(req.Workflow)
	if err != nil {
		return nil, err
	}

	if req.Action.Type == domain.ActionHandshake {
		resp, err := o.handshake(ctx, wf, req)
		o.finish(ctx, req, resp, nil, err)
		return resp, err
	}
	if req.SessionID == "" {
		err := fmt.Errorf("%w: a session id is required for %q", domain.ErrSessionNotFound, req.Action.Type)
		o.finish(ctx, req, nil, nil, err)
		return nil, err
	}

	var out outcome
	err = o.sessions.WithLock(ctx, req.SessionID, func(ctx context.Context) error {
		sess, err := o.load(ctx, wf, req.SessionID)
		if err != nil {
			return err
		}

		// Handlers work on a copy; the stored session only changes on an explicit save.
		working := sess.Clone()
		out, err = o.dispatch(ctx, wf, working, req.Action)
		if errors.Is(err, domain.ErrExecutionFailed) {
			// Keep what the body committed before failing.
			if saveErr := o.sessions.Save(ctx, working); saveErr != nil {
				return errors.Join(err, saveErr)
			}
			return err
		}
		if err != nil {
			return err
		}
		if out.resp != nil && out.resp.View == nil && !out.delete {
			out.resp.View = BuildView(wf, working)
		}

		switch {
		case out.delete:
			return o.sessions.Delete(ctx, working.ID)
		case out.save:
			return o.sessions.Save(ctx, working)
		}
		return nil
	})
	o.finish(ctx, req, out.resp, out.args, err)
	if err != nil {
		return nil, err
	}
	return out.resp, nil
}

func (o *Orchestrator) handshake(ctx context.Context, wf *domain.Workflow, req domain.Request) (*domain.Response, error) {
	id := req.SessionID
	if id == "" {
		id = o.sessions.NewID()
	}

	var resp *domain.Response
	err := o.sessions.WithLock(ctx, id, func(ctx context.Context) error {
		sess, err := o.load(ctx, wf, id)
		if errors.Is(err, domain.ErrSessionNotFound) && req.SessionID != "" {
			// Never adopt a client-chosen ID; issue a fresh one instead.
			return errRetryFresh
		}
		if errors.Is(err, domain.ErrSessionNotFound) {
			sess = domain.NewSession(id, wf)
			if err := o.sessions.Save(ctx, sess); err != nil {
				return fmt.Errorf("failed to initialize session: %w", err)
			}
			o.logger.Debug("Session started", "session_id", id, "workflow", wf.Name)
		} else if err != nil {
			return err
		}

		resp = o.response(wf, sess, domain.StatusOK)
		resp.View = BuildView(wf, sess)
		return nil
	})
	if errors.Is(err, errRetryFresh) {
		req.SessionID = ""
		return o.handshake(ctx, wf, req)
	}
	return resp, err
}

var errRetryFresh = errors.New("retry handshake with a fresh session id")

func (o *Orchestrator) load(ctx context.Context, wf *domain.Workflow, id string) (*domain.Session, error) {
	sess, err := o.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Workflow != wf.Name || sess.Terminated {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, wf *domain.Workflow, sess *domain.Session, action domain.Action) (outcome, error) {
	switch action.Type {
	case domain.ActionInvoke:
		return o.invoke(ctx, wf, sess, action.Task, action.Arguments)
	case domain.ActionAnswer:
		return o.answer(ctx, wf, sess, action.Arguments)
	case domain.ActionEnter:
		return o.enter(ctx, wf, sess, action.Stage)
	case domain.ActionStateInput:
		return o.stateInput(wf, sess, action.StateUpdates)
	case domain.ActionTerminate:
		resp := o.response(wf, sess, domain.StatusOK)
		resp.Terminated = true
		o.logger.Debug("Session terminated", "session_id", sess.ID, "reason", action.Reason)
		return outcome{resp: resp, delete: true}, nil
	case domain.ActionDescribe:
		resp := o.response(wf, sess, domain.StatusOK)
		resp.View = BuildView(wf, sess)
		return outcome{resp: resp}, nil
	default:
		return outcome{}, fmt.Errorf("unsupported action %q", action.Type)
	}
}

func (o *Orchestrator) invoke(ctx context.Context, wf *domain.Workflow, sess *domain.Session, taskName string, args map[string]any) (outcome, error) {
	stage, task, err := NewMachine(wf).Resolve(sess, taskName)
	if err != nil {
		return outcome{}, err
	}

	supplied := args
	cancelled := false
	if p := sess.Pending; p != nil {
		if p.Task == task.Name && p.Stage == stage.Name {
			// Re-invoking the pending task continues the collection; new values win.
			supplied = merge(p.Args, args)
		} else {
			// Any other task drops the pending request, whatever its own outcome.
			sess.Pending = nil
			cancelled = true
		}
	}
	out, err := o.collect(ctx, wf, sess, stage, task, supplied)
	if err == nil && cancelled {
		out.save = true
	}
	return out, err
}

func (o *Orchestrator) answer(ctx context.Context, wf *domain.Workflow, sess *domain.Session, values map[string]any) (outcome, error) {
	p := sess.Pending
	if p == nil {
		return outcome{}, &domain.NoPendingRequestError{SessionID: sess.ID}
	}
	stage, task, err := NewMachine(wf).Resolve(sess, p.Task)
	if err != nil || stage.Name != p.Stage {
		// Stage changes clear the pending request, so this is a session saved by an older definition.
		return outcome{}, &domain.NoPendingRequestError{SessionID: sess.ID}
	}
	return o.collect(ctx, wf, sess, stage, task, merge(p.Args, values))
}

// collect validates supplied arguments and either asks for more, rejects, or executes.
func (o *Orchestrator) collect(ctx context.Context, wf *domain.Workflow, sess *domain.Session, stage *domain.Stage, task *domain.Task, supplied map[string]any) (outcome, error) {
	v := schema.Validate(task.Params, supplied)

	switch v.Outcome {
	case schema.Invalid:
		resp := o.response(wf, sess, domain.StatusError)
		resp.Task = task.Name
		resp.Error = domain.ErrorInfoFor(v.Err)
		return outcome{resp: resp, args: supplied}, nil

	case schema.Incomplete:
		sess.Pending = &domain.PendingRequest{
			Task:    task.Name,
			Stage:   stage.Name,
			Args:    v.Args,
			Missing: v.MissingNames(),
		}
		resp := o.response(wf, sess, domain.StatusNeedsInput)
		resp.Task = task.Name
		resp.Missing = missingParameters(task, v)
		return outcome{resp: resp, save: true, args: v.Args}, nil
	}

	result, err := o.execute(ctx, sess, stage, task, v.Args)
	if err != nil {
		return outcome{args: v.Args}, err
	}
	resp := o.response(wf, sess, domain.StatusOK)
	resp.Task = task.Name
	resp.Result = result
	return outcome{resp: resp, save: true, args: v.Args}, nil
}

func missingParameters(task *domain.Task, v schema.Validation) *domain.MissingParameters {
	m := &domain.MissingParameters{
		Task:        task.Name,
		Description: task.Description,
		Collected:   v.Args,
	}
	for _, p := range v.Missing {
		m.Missing = append(m.Missing, domain.MissingParameter{
			Name:        p.Name,
			Type:        p.Type,
			Description: p.Description,
			Options:     p.Options,
		})
	}
	return m
}

// execute runs the task body on a copy of the session state.
//
// The body holds the session's execution gate until it returns, so a body abandoned
// by a timed-out request still blocks the next execution for that session. When the
// request gives up first, nothing the body wrote is committed.
func (o *Orchestrator) execute(ctx context.Context, sess *domain.Session, stage *domain.Stage, task *domain.Task, args map[string]any) (domain.Result, error) {
	release, err := o.sessions.AcquireExecution(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	execCtx, cancel := ctx, context.CancelFunc(func() {})
	if o.taskTimeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, o.taskTimeout)
	}
	defer cancel()

	type bodyResult struct {
		result domain.Result
		err    error
	}
	work := sess.State.Clone()
	done := make(chan bodyResult, 1)
	start := time.Now()

	go func() {
		defer release()
		defer func() {
			if r := recover(); r != nil {
				done <- bodyResult{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		result, err := task.Body(execCtx, work, domain.Args(maps.Clone(args)))
		done <- bodyResult{result: result, err: err}
	}()

	var res bodyResult
	select {
	case res = <-done:
	case <-execCtx.Done():
		o.logger.Warn("Task abandoned",
			"session_id", sess.ID,
			"task", task.Name,
			"err", execCtx.Err(),
		)
		o.emitTask(ctx, sess, stage, task, time.Since(start), true)
		return nil, fmt.Errorf("task %q: %w", task.Name, execCtx.Err())
	}

	o.emitTask(ctx, sess, stage, task, time.Since(start), res.err != nil)
	sess.State = work
	sess.Pending = nil

	if res.err != nil {
		o.logger.Error("Task execution failed",
			"session_id", sess.ID,
			"workflow", sess.Workflow,
			"stage", stage.Name,
			"task", task.Name,
			"err", res.err,
		)
		return nil, domain.ErrExecutionFailed
	}

	if res.result == nil {
		res.result = domain.Result{}
	}
	sess.History = append(sess.History, domain.Invocation{
		Task:   task.Name,
		Stage:  stage.Name,
		Args:   args,
		Result: res.result,
		At:     o.now(),
	})
	return res.result, nil
}

func (o *Orchestrator) enter(ctx context.Context, wf *domain.Workflow, sess *domain.Session, target string) (outcome, error) {
	from := sess.CurrentStage
	failing, err := NewMachine(wf).Enter(sess, target)

	var invalid *domain.InvalidTransitionError
	switch {
	case errors.As(err, &invalid):
		resp := o.response(wf, sess, domain.StatusInvalidTransition)
		resp.Transition = &domain.Transition{From: from, To: target, Available: append([]string{}, wf.Next(from)...)}
		resp.Error = domain.ErrorInfoFor(err)
		return outcome{resp: resp}, nil
	case err != nil:
		return outcome{}, err
	case len(failing) > 0:
		resp := o.response(wf, sess, domain.StatusPrerequisiteFailed)
		resp.Prerequisites = &domain.PrerequisiteFailure{Stage: target, Missing: failing}
		return outcome{resp: resp}, nil
	}

	if o.hooks.OnStageEntered != nil {
		o.hooks.OnStageEntered(ctx, &domain.StageEvent{
			EventBase: o.event(domain.EventStageEntered, sess),
			From:      from,
			To:        target,
		})
	}
	resp := o.response(wf, sess, domain.StatusOK)
	resp.Transition = &domain.Transition{From: from, To: target}
	resp.View = BuildView(wf, sess)
	return outcome{resp: resp, save: true}, nil
}

func (o *Orchestrator) stateInput(wf *domain.Workflow, sess *domain.Session, updates map[string]any) (outcome, error) {
	next := sess.State.Clone()
	if err := next.Merge(updates); err != nil {
		resp := o.response(wf, sess, domain.StatusError)
		resp.Error = &domain.ErrorInfo{Code: domain.CodeInvalidState, Message: err.Error()}
		return outcome{resp: resp}, nil
	}
	sess.State = next
	resp := o.response(wf, sess, domain.StatusOK)
	resp.View = BuildView(wf, sess)
	return outcome{resp: resp, save: true, args: updates}, nil
}

func (o *Orchestrator) response(wf *domain.Workflow, sess *domain.Session, status domain.Status) *domain.Response {
	return &domain.Response{
		Status:    status,
		SessionID: sess.ID,
		Workflow:  wf.Name,
		Stage:     sess.CurrentStage,
	}
}

func (o *Orchestrator) event(t domain.EventType, sess *domain.Session) domain.EventBase {
	return domain.EventBase{
		Timestamp: o.now(),
		Type:      t,
		SessionID: sess.ID,
		Workflow:  sess.Workflow,
	}
}

func (o *Orchestrator) emitTask(ctx context.Context, sess *domain.Session, stage *domain.Stage, task *domain.Task, d time.Duration, failed bool) {
	if o.hooks.OnTaskExecuted == nil {
		return
	}
	o.hooks.OnTaskExecuted(ctx, &domain.TaskEvent{
		EventBase: o.event(domain.EventTaskExecuted, sess),
		Stage:     stage.Name,
		Task:      task.Name,
		Duration:  d,
		IsError:   failed,
	})
}

// finish reports the outcome to hooks and the audit trail.
func (o *Orchestrator) finish(ctx context.Context, req domain.Request, resp *domain.Response, args map[string]any, err error) {
	if resp == nil {
		resp = domain.ErrorResponse(req, err)
	}
	if o.hooks.OnOutcome != nil {
		o.hooks.OnOutcome(ctx, &domain.OutcomeEvent{
			EventBase: domain.EventBase{
				Timestamp: o.now(),
				Type:      domain.EventOutcome,
				SessionID: resp.SessionID,
				Workflow:  req.Workflow,
			},
			Action: req.Action.Type,
			Status: resp.Status,
		})
	}
	if o.recorder == nil {
		return
	}

	rec := domain.AuditRecord{
		SessionID: resp.SessionID,
		Workflow:  req.Workflow,
		Stage:     resp.Stage,
		Action:    req.Action.Type,
		Task:      firstNonEmpty(resp.Task, req.Action.Task),
		Status:    resp.Status,
		Args:      args,
		Result:    resp.Result,
		At:        o.now(),
	}
	if resp.Error != nil {
		rec.Error = resp.Error.Code
	}
	if err := o.recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
		o.logger.Warn("Failed to record audit entry", "session_id", rec.SessionID, "err", err)
	}
}

func merge(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	maps.Copy(out, base)
	maps.Copy(out, overlay)
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
