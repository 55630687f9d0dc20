package domain

import "encoding/json"

// Status is the outcome class of a handled action.
type Status string

const (
	StatusOK                 Status = "ok"
	StatusNeedsInput         Status = "needs_input"
	StatusPrerequisiteFailed Status = "prerequisite_failed"
	StatusInvalidTransition  Status = "invalid_transition"
	StatusError              Status = "error"
)

// MissingParameter is one required parameter the agent still has to supply.
type MissingParameter struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description,omitempty"`
	Options     []string  `json:"options,omitempty"`
}

// MissingParameters asks the agent for the rest of an invocation.
type MissingParameters struct {
	Task        string             `json:"task"`
	Description string             `json:"description,omitempty"`
	Missing     []MissingParameter `json:"missing"`
	Collected   map[string]any     `json:"collected,omitempty"`
}

// Names lists the missing parameter names in schema order.
func (m *MissingParameters) Names() []string {
	names := make([]string, len(m.Missing))
	for i, p := range m.Missing {
		names[i] = p.Name
	}
	return names
}

// PrerequisiteFailure reports the state paths blocking entry to a stage.
type PrerequisiteFailure struct {
	Stage   string   `json:"stage"`
	Missing []string `json:"missing"`
}

// Transition reports a stage change (or a rejected one).
type Transition struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	Available []string `json:"available,omitempty"` // Populated when the move is rejected
}

// ErrorInfo is the agent-safe description of a failure.
type ErrorInfo struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ToolSpec describes a callable exposed to the agent, in JSON Schema form.
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// View is what the agent can currently see and do.
type View struct {
	Workflow    string          `json:"workflow"`
	Stage       string          `json:"current_stage"`
	Description string          `json:"description,omitempty"`
	Tasks       []ToolSpec      `json:"tools"`
	Controls    []ToolSpec      `json:"control_tools,omitempty"` // transition_stage, provide_state, terminate_session
	Transitions []string        `json:"transitions"`
	State       map[string]any  `json:"state,omitempty"`
	Terminal    bool            `json:"terminal,omitempty"`
	Pending     *PendingRequest `json:"pending,omitempty"`
}

// Response is the structured outcome of Engine.Handle.
// Exactly one of the payload fields is set according to Status.
type Response struct {
	Status        Status               `json:"status"`
	SessionID     string               `json:"session_id"`
	Workflow      string               `json:"workflow"`
	Stage         string               `json:"stage"`
	Task          string               `json:"task,omitempty"`
	Result        Result               `json:"result,omitempty"`
	Missing       *MissingParameters   `json:"missing,omitempty"`
	Prerequisites *PrerequisiteFailure `json:"prerequisites,omitempty"`
	Transition    *Transition          `json:"transition,omitempty"`
	Error         *ErrorInfo           `json:"error,omitempty"`
	View          *View                `json:"view,omitempty"`
	Terminated    bool                 `json:"terminated,omitempty"`
}
