package interpret

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/ArnavBalyan/concierge/internal/logging"
	"github.com/ArnavBalyan/concierge/pkg/domain"
)

// ErrNoToolCall is returned when the model answers in prose instead of picking a tool.
// The wrapped message carries the model's text.
var ErrNoToolCall = errors.New("model did not call a tool")

const defaultInstructions = `You operate a staged workflow on behalf of a user.
Choose exactly one of the offered tools for the user's message. Only the tools listed are
callable in the current stage; use transition_stage to move between stages and
provide_state to record facts the user volunteers.`

// Model interprets free text with a tool-calling language model. Every task of the
// current stage and every control tool is offered as a function; the first call the
// model makes becomes the action.
type Model struct {
	Presenter

	llm          llms.Model
	instructions string
	limit        int
	logger       *slog.Logger
	callOpts     []llms.CallOption
}

// ModelOption configures a Model interpreter.
type ModelOption func(*Model)

// WithInstructions replaces the system prompt preamble.
func WithInstructions(text string) ModelOption {
	return func(m *Model) { m.instructions = text }
}

// WithModelLogger sets the logger used for model round trips.
func WithModelLogger(logger *slog.Logger) ModelOption {
	return func(m *Model) { m.logger = logger }
}

// WithCallOptions passes extra options (temperature, model name) on every call.
func WithCallOptions(opts ...llms.CallOption) ModelOption {
	return func(m *Model) { m.callOpts = append(m.callOpts, opts...) }
}

// WithInputLimit caps the user message size in bytes.
func WithInputLimit(n int) ModelOption {
	return func(m *Model) { m.limit = n }
}

// NewModel creates a model-backed interpreter.
func NewModel(llm llms.Model, detail Detail, opts ...ModelOption) *Model {
	m := &Model{
		Presenter:    Presenter{Detail: detail},
		llm:          llm,
		instructions: defaultInstructions,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Interpret asks the model to pick a tool for text.
func (m *Model) Interpret(ctx context.Context, text string, view *domain.View) (domain.Action, error) {
	text, err := Sanitize(text, m.limit)
	if err != nil {
		return domain.Action{}, err
	}
	if view == nil {
		return domain.Action{}, errors.New("a session view is required")
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(m.systemPrompt(view))},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(text)},
		},
	}

	opts := append([]llms.CallOption{llms.WithTools(Tools(view))}, m.callOpts...)
	resp, err := m.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return domain.Action{}, fmt.Errorf("model call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Action{}, ErrNoToolCall
	}

	choice := resp.Choices[0]
	if len(choice.ToolCalls) == 0 || choice.ToolCalls[0].FunctionCall == nil {
		return domain.Action{}, fmt.Errorf("%w: %s", ErrNoToolCall, strings.TrimSpace(choice.Content))
	}
	if len(choice.ToolCalls) > 1 {
		m.logger.Debug("Model proposed several tool calls, using the first", "count", len(choice.ToolCalls))
	}

	call := choice.ToolCalls[0].FunctionCall
	args := map[string]any{}
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return domain.Action{}, fmt.Errorf("failed to parse %s arguments: %w", call.Name, err)
		}
	}
	m.logger.Debug("Model selected tool", "tool", call.Name, "stage", view.Stage)

	if p := view.Pending; p != nil && call.Name == p.Task {
		// Continuing the pending task is an answer, which keeps already collected values.
		return domain.Answer(args), nil
	}
	return domain.ToolCallAction(call.Name, args)
}

func (m *Model) systemPrompt(view *domain.View) string {
	var b strings.Builder
	b.WriteString(m.instructions)
	b.WriteString("\n\n")
	writeComprehensive(&b, view)
	if p := view.Pending; p != nil {
		fmt.Fprintf(&b, "\nThe task %s is waiting for: %s. Call it again with those values.\n",
			p.Task, strings.Join(p.Missing, ", "))
	}
	return b.String()
}

// Tools converts the view's tasks and control tools into function definitions.
func Tools(view *domain.View) []llms.Tool {
	specs := append(append([]domain.ToolSpec{}, view.Tasks...), view.Controls...)
	tools := make([]llms.Tool, 0, len(specs))
	for _, s := range specs {
		var params map[string]any
		if err := json.Unmarshal(s.InputSchema, &params); err != nil || params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		tools = append(tools, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  params,
			},
		})
	}
	return tools
}
