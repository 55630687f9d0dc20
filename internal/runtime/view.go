package runtime

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/schema"
)

type provideStateArgs struct{}

type terminateArgs struct {
	Reason string `json:"reason,omitempty" jsonschema:"description=Why the conversation ends"`
}

// BuildView describes what the session can currently see and do.
func BuildView(wf *domain.Workflow, sess *domain.Session) *domain.View {
	v := &domain.View{
		Workflow:    wf.Name,
		Stage:       sess.CurrentStage,
		Transitions: append([]string{}, wf.Next(sess.CurrentStage)...),
		Terminal:    wf.IsTerminal(sess.CurrentStage),
		Pending:     sess.Pending,
		Tasks:       []domain.ToolSpec{},
	}
	if sess.State != nil {
		v.State = sess.State.Snapshot()
	}

	stage, ok := wf.Stage(sess.CurrentStage)
	if !ok {
		return v
	}
	v.Description = stage.Description
	for _, t := range stage.Tasks {
		v.Tasks = append(v.Tasks, domain.ToolSpec{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: mustJSON(schema.InputSchema(t.Params)),
		})
	}
	v.Controls = ControlTools(wf, sess.CurrentStage)
	return v
}

// ControlTools returns the built-in tools for stage: transition_stage (only when the
// stage has outgoing edges), provide_state and terminate_session.
func ControlTools(wf *domain.Workflow, stage string) []domain.ToolSpec {
	var tools []domain.ToolSpec

	if next := wf.Next(stage); len(next) > 0 {
		target := &jsonschema.Schema{Type: "string", Description: "Stage to move to"}
		for _, s := range next {
			target.Enum = append(target.Enum, s)
		}
		props := jsonschema.NewProperties()
		props.Set("target_stage", target)
		tools = append(tools, domain.ToolSpec{
			Name:        domain.ToolTransitionStage,
			Description: "Move the conversation to another stage of the workflow",
			InputSchema: mustJSON(&jsonschema.Schema{
				Type:       "object",
				Properties: props,
				Required:   []string{"target_stage"},
			}),
		})
	}

	tools = append(tools,
		domain.ToolSpec{
			Name:        domain.ToolProvideState,
			Description: "Store values in the session state; keys may be dotted paths such as user.payment_method",
			InputSchema: mustJSON(schema.Reflect(&provideStateArgs{})),
		},
		domain.ToolSpec{
			Name:        domain.ToolTerminate,
			Description: "End the session",
			InputSchema: mustJSON(schema.Reflect(&terminateArgs{})),
		},
	)
	return tools
}

func mustJSON(s *jsonschema.Schema) json.RawMessage {
	raw, err := json.Marshal(s)
	if err != nil {
		// Schemas built here only hold JSON-safe values.
		return json.RawMessage(`{"type":"object"}`)
	}
	return raw
}
