package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ArnavBalyan/concierge/internal/logging"
	"github.com/ArnavBalyan/concierge/internal/presentation/graph"
	"github.com/ArnavBalyan/concierge/internal/runtime"
	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/ports"
)

// SessionHeader carries the session id in both directions.
const SessionHeader = "X-Session-Id"

// Server exposes an Engine over HTTP.
type Server struct {
	Engine      ports.Engine
	Interpreter ports.Interpreter
	Streams     *StreamManager

	logger  *slog.Logger
	metrics http.Handler
	version string
	timeout time.Duration
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithInterpreter enables POST /interpret and adds rendered text to /execute responses.
func WithInterpreter(in ports.Interpreter) Option {
	return func(s *Server) { s.Interpreter = in }
}

// WithMetrics mounts a Prometheus handler at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithRequestTimeout bounds each /execute and /interpret request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// NewHandler creates the HTTP handler for engine.
func NewHandler(engine ports.Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Post("/execute", s.Execute)
	r.Post("/interpret", s.Interpret)
	r.Get("/events", s.SubscribeEvents)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api/workflows", func(r chi.Router) {
		r.Get("/", s.ListWorkflows)
		r.Get("/{name}", s.GetWorkflow)
		r.Get("/{name}/graph", s.GetGraph)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+SessionHeader)
		w.Header().Set("Access-Control-Expose-Headers", SessionHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ExecuteRequest is the body of POST /execute.
type ExecuteRequest struct {
	Workflow  string `json:"workflow_name"`
	SessionID string `json:"session_id,omitempty"`
	domain.Action
}

// UnmarshalJSON decodes the envelope fields and the action separately, since the
// embedded Action brings its own decoder.
func (e *ExecuteRequest) UnmarshalJSON(b []byte) error {
	var env struct {
		Workflow  string `json:"workflow_name"`
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	if err := json.Unmarshal(b, &e.Action); err != nil {
		return err
	}
	e.Workflow, e.SessionID = env.Workflow, env.SessionID
	return nil
}

// InterpretRequest is the body of POST /interpret.
type InterpretRequest struct {
	Workflow  string `json:"workflow_name"`
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text"`
}

// ExecuteResponse flattens the view next to the response, so agents find the
// callable tools and the current stage at the top level.
//
// There is no {status, data} envelope: existing tool-calling clients read
// status, session_id, current_stage and tools directly from the body.
type ExecuteResponse struct {
	*domain.Response
	CurrentStage string            `json:"current_stage,omitempty"`
	Tools        []domain.ToolSpec `json:"tools,omitempty"`
	Transitions  []string          `json:"transitions,omitempty"`
	Content      string            `json:"content,omitempty"`
	Action       *domain.Action    `json:"interpreted_action,omitempty"`
}

// Execute handles POST /execute.
func (s *Server) Execute(w http.ResponseWriter, r *http.Request) {
	var body ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("Execute: Invalid request body", "err", err)
		writeError(w, http.StatusBadRequest, &domain.ErrorInfo{Code: domain.CodeInvalidRequest, Message: err.Error()})
		return
	}
	if body.Type == "" {
		writeError(w, http.StatusBadRequest, &domain.ErrorInfo{Code: domain.CodeInvalidRequest, Message: "action is required"})
		return
	}

	req := domain.Request{
		Workflow:  body.Workflow,
		SessionID: firstNonEmpty(body.SessionID, r.Header.Get(SessionHeader)),
		Action:    body.Action,
	}
	s.handle(w, r, req, nil)
}

// Interpret handles POST /interpret: free text is mapped onto an action for the
// session's current view, then executed.
func (s *Server) Interpret(w http.ResponseWriter, r *http.Request) {
	if s.Interpreter == nil {
		writeError(w, http.StatusNotImplemented, &domain.ErrorInfo{Code: domain.CodeInvalidRequest, Message: "no interpreter configured"})
		return
	}
	var body InterpretRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, &domain.ErrorInfo{Code: domain.CodeInvalidRequest, Message: err.Error()})
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	base := domain.Request{
		Workflow:  body.Workflow,
		SessionID: firstNonEmpty(body.SessionID, r.Header.Get(SessionHeader)),
		Action:    domain.Describe(),
	}
	if base.SessionID == "" {
		base.Action = domain.Handshake()
	}
	current, err := s.Engine.Handle(ctx, base)
	if err != nil {
		s.writeEngineError(w, base, err)
		return
	}

	action, err := s.Interpreter.Interpret(ctx, body.Text, current.View)
	if err != nil {
		s.logger.Debug("Interpret: no action", "session_id", current.SessionID, "err", err)
		w.Header().Set(SessionHeader, current.SessionID)
		writeError(w, http.StatusUnprocessableEntity, &domain.ErrorInfo{Code: domain.CodeInvalidRequest, Message: err.Error()})
		return
	}

	s.handle(w, r, domain.Request{Workflow: body.Workflow, SessionID: current.SessionID, Action: action}, &action)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request, req domain.Request, interpreted *domain.Action) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	resp, err := s.Engine.Handle(ctx, req)
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}

	out := ExecuteResponse{Response: resp, Action: interpreted}
	if v := resp.View; v != nil {
		out.CurrentStage = v.Stage
		out.Tools = append(append([]domain.ToolSpec{}, v.Tasks...), v.Controls...)
		out.Transitions = v.Transitions
	}
	if s.Interpreter != nil {
		out.Content = s.Interpreter.Render(resp)
	}

	raw, err := json.Marshal(out)
	if err != nil {
		s.logger.Error("Execute: response encode failed", "err", err)
		writeError(w, http.StatusInternalServerError, domain.ErrorInfoFor(err))
		return
	}
	s.Streams.Broadcast(resp.SessionID, string(raw))

	w.Header().Set(SessionHeader, resp.SessionID)
	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}

func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(r.Context(), s.timeout)
	}
	return context.WithCancel(r.Context())
}

func (s *Server) writeEngineError(w http.ResponseWriter, req domain.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("Execute failed", "workflow", req.Workflow, "session_id", req.SessionID, "action", req.Action.Type, "err", err)
	} else {
		s.logger.Debug("Execute rejected", "workflow", req.Workflow, "session_id", req.SessionID, "action", req.Action.Type, "err", err)
	}
	if req.SessionID != "" {
		w.Header().Set(SessionHeader, req.SessionID)
	}
	resp := domain.ErrorResponse(req, err)
	writeJSON(w, code, ExecuteResponse{Response: resp})
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		unknownWorkflow *domain.UnknownWorkflowError
		unknownStage    *domain.UnknownStageError
		unknownTask     *domain.UnknownTaskError
		notAvailable    *domain.TaskNotAvailableError
		noPending       *domain.NoPendingRequestError
	)
	switch {
	case errors.As(err, &unknownWorkflow), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.As(err, &unknownStage), errors.As(err, &unknownTask):
		return http.StatusBadRequest
	case errors.As(err, &notAvailable), errors.As(err, &noPending), errors.Is(err, domain.ErrSessionBusy):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WorkflowSummary is one entry of GET /api/workflows.
type WorkflowSummary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Entry       string `json:"entry_stage"`
	Stages      int    `json:"stages"`
}

// ListWorkflows handles GET /api/workflows?search=.
func (s *Server) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	var workflows []*domain.Workflow
	if q := r.URL.Query().Get("search"); q != "" {
		workflows = s.Engine.Search(q)
	} else {
		workflows = s.Engine.Workflows()
	}

	out := make([]WorkflowSummary, 0, len(workflows))
	for _, wf := range workflows {
		out = append(out, WorkflowSummary{
			Name:        wf.Name,
			Description: wf.Description,
			Entry:       wf.Entry(),
			Stages:      len(wf.Stages),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"workflows": out})
}

// StageDetail describes one stage in GET /api/workflows/{name}.
type StageDetail struct {
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	Prerequisites []string          `json:"prerequisites,omitempty"`
	Transitions   []string          `json:"transitions"`
	Tools         []domain.ToolSpec `json:"tools"`
}

// GetWorkflow handles GET /api/workflows/{name}.
func (s *Server) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, ok := s.lookup(w, r)
	if !ok {
		return
	}

	stages := make([]StageDetail, 0, len(wf.Stages))
	for _, st := range wf.Stages {
		// The view of a session parked in st, without any state.
		view := runtime.BuildView(wf, &domain.Session{Workflow: wf.Name, CurrentStage: st.Name})
		stages = append(stages, StageDetail{
			Name:          st.Name,
			Description:   st.Description,
			Prerequisites: st.Prerequisites,
			Transitions:   view.Transitions,
			Tools:         view.Tasks,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        wf.Name,
		"description": wf.Description,
		"entry_stage": wf.Entry(),
		"stages":      stages,
	})
}

// GetGraph handles GET /api/workflows/{name}/graph and returns a Mermaid flowchart.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	wf, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(wf, nil))
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*domain.Workflow, bool) {
	wf, err := s.Engine.Lookup(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, statusFor(err), domain.ErrorInfoFor(err))
		return nil, false
	}
	return wf, true
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"app":       "concierge-http",
		"version":   s.version,
		"workflows": len(s.Engine.Workflows()),
	})
}

func writeError(w http.ResponseWriter, code int, info *domain.ErrorInfo) {
	writeJSON(w, code, map[string]any{"status": domain.StatusError, "error": info})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
