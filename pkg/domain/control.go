package domain

import "fmt"

// Built-in control tools offered to tool-calling agents next to the stage's tasks.
const (
	ToolTransitionStage = "transition_stage"
	ToolProvideState    = "provide_state"
	ToolTerminate       = "terminate_session"
)

// ToolCallAction maps an agent tool call onto an Action. Control tools map to
// their dedicated actions; any other name is a task invocation.
func ToolCallAction(name string, args map[string]any) (Action, error) {
	switch name {
	case ToolTransitionStage:
		target, _ := args["target_stage"].(string)
		if target == "" {
			return Action{}, fmt.Errorf("%s requires target_stage", ToolTransitionStage)
		}
		return Enter(target), nil
	case ToolProvideState:
		return Action{Type: ActionStateInput, StateUpdates: args}, nil
	case ToolTerminate:
		reason, _ := args["reason"].(string)
		if reason == "" {
			reason = "completed"
		}
		return Action{Type: ActionTerminate, Reason: reason}, nil
	default:
		return Invoke(name, args), nil
	}
}
