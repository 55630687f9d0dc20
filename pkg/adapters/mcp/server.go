package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ArnavBalyan/concierge/internal/logging"
	"github.com/ArnavBalyan/concierge/internal/presentation/graph"
	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/interpret"
	"github.com/ArnavBalyan/concierge/pkg/ports"
)

// Tool names exposed to MCP clients.
const (
	ToolListWorkflows = "list_workflows"
	ToolHandshake     = "handshake"
	ToolInvoke        = "invoke_task"
	ToolAnswer        = "answer"
	ToolDescribe      = "describe"
	ToolInterpret     = "interpret"
)

const graphURIPrefix = "concierge://workflows/"

// Server exposes an Engine as MCP tools. Every action of the orchestrator is a tool
// taking the workflow name and session id; results carry the rendered text plus the
// structured response.
type Server struct {
	engine      ports.Engine
	interpreter ports.Interpreter
	logger      *slog.Logger
	version     string
	mcpServer   *server.MCPServer
}

// Option configures the MCP server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithInterpreter renders responses with interp and enables the interpret tool.
func WithInterpreter(interp ports.Interpreter) Option {
	return func(s *Server) { s.interpreter = interp }
}

// WithVersion sets the version announced to clients.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.Engine, opts ...Option) *Server {
	s := &Server{
		engine:  engine,
		logger:  logging.NewNop(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	interpretTool := s.interpreter != nil
	if s.interpreter == nil {
		s.interpreter = interpret.NewRules(interpret.Brief)
	}

	s.mcpServer = server.NewMCPServer("concierge", strings.TrimSpace(s.version),
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithInstructions("Start with handshake, keep the returned session_id, then call the "+
			"tools it lists. Only the current stage's tasks can be invoked."),
	)
	s.registerTools(interpretTool)
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on addr using SSE and stops when ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionOpts(required bool) []mcp.ToolOption {
	workflow := []mcp.PropertyOption{mcp.Required(), mcp.Description("Workflow name")}
	sid := []mcp.PropertyOption{mcp.Description("Session id returned by handshake")}
	if required {
		sid = append(sid, mcp.Required())
	}
	return []mcp.ToolOption{
		mcp.WithString("workflow", workflow...),
		mcp.WithString("session_id", sid...),
	}
}

func tool(name, description string, required bool, extra ...mcp.ToolOption) mcp.Tool {
	opts := append([]mcp.ToolOption{mcp.WithDescription(description)}, sessionOpts(required)...)
	return mcp.NewTool(name, append(opts, extra...)...)
}

func (s *Server) registerTools(withInterpret bool) {
	s.mcpServer.AddTool(mcp.NewTool(ToolListWorkflows,
		mcp.WithDescription("List the registered workflows, optionally filtered by a fuzzy query."),
		mcp.WithString("query", mcp.Description("Search text matched against names and descriptions")),
	), s.handleListWorkflows)

	s.mcpServer.AddTool(tool(ToolHandshake,
		"Start a session on a workflow (or resume one by id) and describe what it can do.", false,
	), s.action(func(mcp.CallToolRequest) (domain.Action, error) {
		return domain.Handshake(), nil
	}))

	s.mcpServer.AddTool(tool(ToolInvoke,
		"Invoke a task of the current stage. Missing parameters are asked for and can be supplied with answer.", true,
		mcp.WithString("task", mcp.Required(), mcp.Description("Task name")),
		mcp.WithObject("arguments", mcp.Description("Task arguments")),
	), s.action(func(req mcp.CallToolRequest) (domain.Action, error) {
		return domain.Invoke(req.GetString("task", ""), objectArg(req, "arguments")), nil
	}))

	s.mcpServer.AddTool(tool(ToolAnswer,
		"Supply values for the parameters the pending task is waiting for.", true,
		mcp.WithObject("arguments", mcp.Required(), mcp.Description("Parameter values")),
	), s.action(func(req mcp.CallToolRequest) (domain.Action, error) {
		return domain.Answer(objectArg(req, "arguments")), nil
	}))

	s.mcpServer.AddTool(tool(domain.ToolTransitionStage,
		"Move the session to another stage.", true,
		mcp.WithString("target_stage", mcp.Required(), mcp.Description("Stage to enter")),
	), s.action(func(req mcp.CallToolRequest) (domain.Action, error) {
		return domain.ToolCallAction(domain.ToolTransitionStage, req.GetArguments())
	}))

	s.mcpServer.AddTool(tool(domain.ToolProvideState,
		"Record facts in the session state. Keys may be dotted paths.", true,
		mcp.WithObject("state", mcp.Required(), mcp.Description("Values to store")),
	), s.action(func(req mcp.CallToolRequest) (domain.Action, error) {
		return domain.ToolCallAction(domain.ToolProvideState, objectArg(req, "state"))
	}))

	s.mcpServer.AddTool(tool(domain.ToolTerminate,
		"End the session and discard its state.", true,
		mcp.WithString("reason", mcp.Description("Why the session ends")),
	), s.action(func(req mcp.CallToolRequest) (domain.Action, error) {
		return domain.ToolCallAction(domain.ToolTerminate, req.GetArguments())
	}))

	s.mcpServer.AddTool(tool(ToolDescribe,
		"Show the current stage, state, tools and transitions without changing anything.", true,
	), s.action(func(mcp.CallToolRequest) (domain.Action, error) {
		return domain.Describe(), nil
	}))

	if withInterpret {
		s.mcpServer.AddTool(tool(ToolInterpret,
			"Let the server map a plain-language request onto the right action.", true,
			mcp.WithString("text", mcp.Required(), mcp.Description("What the user asked for")),
		), s.handleInterpret)
	}
}

func objectArg(req mcp.CallToolRequest, key string) map[string]any {
	v, _ := req.GetArguments()[key].(map[string]any)
	return v
}

func (s *Server) action(build func(mcp.CallToolRequest) (domain.Action, error)) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		action, err := build(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return s.handle(ctx, req, action)
	}
}

func (s *Server) handle(ctx context.Context, req mcp.CallToolRequest, action domain.Action) (*mcp.CallToolResult, error) {
	resp, err := s.engine.Handle(ctx, domain.Request{
		Workflow:  req.GetString("workflow", ""),
		SessionID: req.GetString("session_id", ""),
		Action:    action,
	})
	if err != nil {
		info := domain.ErrorInfoFor(err)
		s.logger.Warn("MCP action failed", "tool", req.Params.Name, "code", info.Code, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", info.Code, info.Message)), nil
	}
	return mcp.NewToolResultStructured(resp, s.interpreter.Render(resp)), nil
}

func (s *Server) handleInterpret(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wfName, sid := req.GetString("workflow", ""), req.GetString("session_id", "")
	current, err := s.engine.Handle(ctx, domain.Request{Workflow: wfName, SessionID: sid, Action: domain.Describe()})
	if err != nil {
		info := domain.ErrorInfoFor(err)
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", info.Code, info.Message)), nil
	}
	action, err := s.interpreter.Interpret(ctx, req.GetString("text", ""), current.View)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("could not interpret request: %v", err)), nil
	}
	s.logger.Debug("Interpreted request", "action", action.Type, "task", action.Task, "stage", action.Stage)
	return s.handle(ctx, req, action)
}

type workflowSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Stages      []string `json:"stages"`
}

func (s *Server) handleListWorkflows(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	found := s.engine.Search(req.GetString("query", ""))
	out := make([]workflowSummary, 0, len(found))
	lines := make([]string, 0, len(found))
	for _, wf := range found {
		sum := workflowSummary{Name: wf.Name, Description: wf.Description}
		for _, st := range wf.Stages {
			sum.Stages = append(sum.Stages, st.Name)
		}
		out = append(out, sum)
		lines = append(lines, fmt.Sprintf("- %s: %s", wf.Name, wf.Description))
	}
	text := "No workflows match."
	if len(lines) > 0 {
		text = strings.Join(lines, "\n")
	}
	return mcp.NewToolResultStructured(map[string]any{"workflows": out}, text), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(graphURIPrefix, "Registered workflows",
		mcp.WithResourceDescription("Names and stages of every registered workflow"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		out := make([]workflowSummary, 0)
		for _, wf := range s.engine.Workflows() {
			sum := workflowSummary{Name: wf.Name, Description: wf.Description}
			for _, st := range wf.Stages {
				sum.Stages = append(sum.Stages, st.Name)
			}
			out = append(out, sum)
		}
		raw, err := json.Marshal(out)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: request.Params.URI, MIMEType: "application/json", Text: string(raw)},
		}, nil
	})

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(graphURIPrefix+"{name}/graph", "Workflow graph",
		mcp.WithTemplateDescription("Mermaid flowchart of a workflow's stages and transitions"),
		mcp.WithTemplateMIMEType("text/vnd.mermaid"),
	), s.readGraph)
}

func (s *Server) readGraph(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	name, ok := strings.CutPrefix(request.Params.URI, graphURIPrefix)
	name, ok2 := strings.CutSuffix(name, "/graph")
	if !ok || !ok2 || name == "" {
		return nil, errors.New("expected " + graphURIPrefix + "{name}/graph")
	}
	wf, err := s.engine.Lookup(name)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/vnd.mermaid",
			Text:     graph.GenerateMermaid(wf, nil),
		},
	}, nil
}
