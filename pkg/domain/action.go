package domain

import (
	"encoding/json"
	"fmt"
)

// ActionType identifies what an agent asks the orchestrator to do.
type ActionType string

const (
	// ActionHandshake starts (or resumes) a session and returns its view.
	ActionHandshake ActionType = "handshake"
	// ActionInvoke calls a task of the current stage.
	ActionInvoke ActionType = "invoke"
	// ActionAnswer supplies values for the pending request's missing parameters.
	ActionAnswer ActionType = "answer"
	// ActionEnter moves the session to another stage.
	ActionEnter ActionType = "enter"
	// ActionStateInput writes values directly into the session state.
	ActionStateInput ActionType = "state_input"
	// ActionTerminate ends the session and discards it.
	ActionTerminate ActionType = "terminate_session"
	// ActionDescribe returns the current view without changing anything.
	ActionDescribe ActionType = "describe"
)

// Aliases accepted on the wire.
var actionAliases = map[string]ActionType{
	"method_call":      ActionInvoke,
	"stage_transition": ActionEnter,
	"initiate":         ActionHandshake,
}

// ParseActionType normalizes a wire action name.
func ParseActionType(s string) (ActionType, error) {
	switch t := ActionType(s); t {
	case ActionHandshake, ActionInvoke, ActionAnswer, ActionEnter,
		ActionStateInput, ActionTerminate, ActionDescribe:
		return t, nil
	}
	if t, ok := actionAliases[s]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Action is a single agent request against a session.
type Action struct {
	Type         ActionType     `json:"action"`
	Task         string         `json:"task,omitempty"`
	Stage        string         `json:"stage,omitempty"`
	Arguments    map[string]any `json:"arguments,omitempty"`
	StateUpdates map[string]any `json:"state_updates,omitempty"`
	Reason       string         `json:"reason,omitempty"`
}

// UnmarshalJSON accepts wire aliases for the action name and "args" for arguments.
func (a *Action) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type         string         `json:"action"`
		Task         string         `json:"task"`
		Stage        string         `json:"stage"`
		Arguments    map[string]any `json:"arguments"`
		Args         map[string]any `json:"args"`
		StateUpdates map[string]any `json:"state_updates"`
		Reason       string         `json:"reason"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	t, err := ParseActionType(raw.Type)
	if err != nil {
		return err
	}
	*a = Action{
		Type:         t,
		Task:         raw.Task,
		Stage:        raw.Stage,
		Arguments:    raw.Arguments,
		StateUpdates: raw.StateUpdates,
		Reason:       raw.Reason,
	}
	if a.Arguments == nil {
		a.Arguments = raw.Args
	}
	return nil
}

// Invoke builds an invoke action.
func Invoke(task string, args map[string]any) Action {
	return Action{Type: ActionInvoke, Task: task, Arguments: args}
}

// Answer builds an answer action.
func Answer(values map[string]any) Action {
	return Action{Type: ActionAnswer, Arguments: values}
}

// Enter builds a stage transition action.
func Enter(stage string) Action {
	return Action{Type: ActionEnter, Stage: stage}
}

// Handshake builds a handshake action.
func Handshake() Action {
	return Action{Type: ActionHandshake}
}

// Request addresses an Action to a workflow session.
// SessionID may be empty only for a handshake.
type Request struct {
	Workflow  string
	SessionID string
	Action    Action
}

// Describe builds an action that returns the session view.
func Describe() Action {
	return Action{Type: ActionDescribe}
}
