package dsl

import (
	"github.com/ArnavBalyan/concierge/pkg/domain"
)

// StageBuilder provides a fluent API for configuring a stage.
type StageBuilder struct {
	stage   *domain.Stage
	builder *Builder
	tasks   map[string]*TaskBuilder
}

// Describe sets the stage description shown to agents.
func (s *StageBuilder) Describe(text string) *StageBuilder {
	s.stage.Description = text
	return s
}

// Requires adds prerequisite state paths that must be present before the stage can be entered.
func (s *StageBuilder) Requires(paths ...string) *StageBuilder {
	s.stage.Prerequisites = append(s.stage.Prerequisites, paths...)
	return s
}

// To adds transitions from this stage to targets. Listing the stage itself allows re-entry.
func (s *StageBuilder) To(targets ...string) *StageBuilder {
	t := s.builder.wf.Transitions
	t[s.stage.Name] = append(t[s.stage.Name], targets...)
	return s
}

// Terminal marks the stage as having no outgoing transitions.
func (s *StageBuilder) Terminal() *StageBuilder {
	delete(s.builder.wf.Transitions, s.stage.Name)
	return s
}

// Task adds a task bound to body, or returns the existing builder for name.
func (s *StageBuilder) Task(name string, body domain.TaskFunc) *TaskBuilder {
	if tb, ok := s.tasks[name]; ok {
		if body != nil {
			tb.task.Body = body
		}
		return tb
	}
	tb := &TaskBuilder{
		task:  &domain.Task{Name: name, Body: body},
		stage: s,
	}
	s.tasks[name] = tb
	s.stage.Tasks = append(s.stage.Tasks, tb.task)
	return tb
}

// Stage jumps back to the workflow builder to configure another stage.
func (s *StageBuilder) Stage(name string) *StageBuilder {
	return s.builder.Stage(name)
}
