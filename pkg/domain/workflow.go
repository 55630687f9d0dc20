package domain

import (
	"context"
	"slices"

	"github.com/ArnavBalyan/concierge/pkg/state"
)

// ParamType is the semantic type of a task parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeFloat   ParamType = "float"
	TypeBoolean ParamType = "boolean"
	TypeEnum    ParamType = "enum"
)

// Param describes one entry of a task's parameter schema.
type Param struct {
	Name        string    `json:"name" yaml:"name" mapstructure:"name"`
	Type        ParamType `json:"type" yaml:"type" mapstructure:"type"`
	Required    bool      `json:"required" yaml:"required" mapstructure:"required"`
	Default     any       `json:"default,omitempty" yaml:"default,omitempty" mapstructure:"default"`
	HasDefault  bool      `json:"-" yaml:"-" mapstructure:"-"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Options     []string  `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"` // Labels for TypeEnum
}

// TaskFunc is the executable body of a task.
// It may only touch the session state handed to it and returns an ordered result.
type TaskFunc func(ctx context.Context, st *state.Store, args Args) (Result, error)

// Task is a single invocable operation.
type Task struct {
	Name        string
	Description string
	Params      []Param
	Body        TaskFunc
}

// Param returns the schema entry for name.
func (t *Task) Param(name string) (Param, bool) {
	for _, p := range t.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Stage is a phase of a workflow.
type Stage struct {
	Name          string
	Description   string
	Tasks         []*Task
	Prerequisites []string // Dotted state paths, checked in order
}

// Task returns the task registered under name in this stage.
func (s *Stage) Task(name string) (*Task, bool) {
	for _, t := range s.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// TaskNames lists the stage's tasks in declaration order.
func (s *Stage) TaskNames() []string {
	names := make([]string, len(s.Tasks))
	for i, t := range s.Tasks {
		names[i] = t.Name
	}
	return names
}

// Workflow is the immutable description of stages, tasks and the transition graph.
// It must not be modified once registered.
type Workflow struct {
	Name        string
	Description string
	Stages      []*Stage
	Transitions map[string][]string
	EntryStage  string // Defaults to the first stage when empty
}

// Entry returns the stage every new session starts in.
func (w *Workflow) Entry() string {
	if w.EntryStage != "" {
		return w.EntryStage
	}
	if len(w.Stages) == 0 {
		return ""
	}
	return w.Stages[0].Name
}

// Stage looks up a stage by name.
func (w *Workflow) Stage(name string) (*Stage, bool) {
	for _, s := range w.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// StageNames lists the workflow's stages in declaration order.
func (w *Workflow) StageNames() []string {
	names := make([]string, len(w.Stages))
	for i, s := range w.Stages {
		names[i] = s.Name
	}
	return names
}

// Next returns the stages reachable from stage in one transition.
func (w *Workflow) Next(stage string) []string {
	return w.Transitions[stage]
}

// CanTransition reports whether the graph has an edge from -> to.
// Self-loops are only allowed when declared.
func (w *Workflow) CanTransition(from, to string) bool {
	return slices.Contains(w.Transitions[from], to)
}

// IsTerminal reports whether stage has no outgoing transitions.
func (w *Workflow) IsTerminal(stage string) bool {
	return len(w.Transitions[stage]) == 0
}

// FindTask returns the first stage (in declaration order) that owns a task named name.
func (w *Workflow) FindTask(name string) (*Stage, *Task, bool) {
	for _, s := range w.Stages {
		if t, ok := s.Task(name); ok {
			return s, t, true
		}
	}
	return nil, nil, false
}
