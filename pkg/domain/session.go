package domain

import (
	"maps"
	"slices"
	"time"

	"github.com/ArnavBalyan/concierge/pkg/state"
)

// PendingRequest is an invocation still waiting for required parameters.
// A session holds at most one.
type PendingRequest struct {
	Task    string         `json:"task"`
	Stage   string         `json:"stage"`
	Args    map[string]any `json:"args"`    // Validated subset supplied so far
	Missing []string       `json:"missing"` // Schema order
}

// Invocation is one completed task execution, appended to the session history.
type Invocation struct {
	Task   string         `json:"task"`
	Stage  string         `json:"stage"`
	Args   map[string]any `json:"args,omitempty"`
	Result Result         `json:"result,omitempty"`
	At     time.Time      `json:"at"`
}

// Session is one agent conversation: its position in a workflow and its isolated state.
type Session struct {
	ID           string          `json:"id"`
	Workflow     string          `json:"workflow"`
	CurrentStage string          `json:"current_stage"`
	State        *state.Store    `json:"state"`
	History      []Invocation    `json:"history,omitempty"`
	Pending      *PendingRequest `json:"pending,omitempty"`
	Terminated   bool            `json:"terminated,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewSession creates a session positioned at the workflow's entry stage.
func NewSession(id string, wf *Workflow) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Workflow:     wf.Name,
		CurrentStage: wf.Entry(),
		State:        state.New(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Clone returns a deep copy, used as the working copy of a request.
func (s *Session) Clone() *Session {
	out := *s
	if s.State != nil {
		out.State = s.State.Clone()
	} else {
		out.State = state.New()
	}
	out.History = slices.Clone(s.History)
	if s.Pending != nil {
		p := *s.Pending
		p.Args = maps.Clone(s.Pending.Args)
		p.Missing = slices.Clone(s.Pending.Missing)
		out.Pending = &p
	}
	return &out
}
