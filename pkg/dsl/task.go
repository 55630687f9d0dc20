package dsl

import (
	"github.com/ArnavBalyan/concierge/pkg/domain"
)

// TaskBuilder provides a fluent API for configuring a task.
type TaskBuilder struct {
	task  *domain.Task
	stage *StageBuilder
}

// ParamOption customizes a parameter declaration.
type ParamOption func(*domain.Param)

// Optional marks the parameter as not required.
func Optional() ParamOption {
	return func(p *domain.Param) { p.Required = false }
}

// Default sets a value used when the parameter is omitted. It implies Optional.
func Default(v any) ParamOption {
	return func(p *domain.Param) {
		p.Default = v
		p.HasDefault = true
		p.Required = false
	}
}

// Doc sets the parameter description.
func Doc(text string) ParamOption {
	return func(p *domain.Param) { p.Description = text }
}

// Options sets the allowed labels of an enum parameter.
func Options(labels ...string) ParamOption {
	return func(p *domain.Param) { p.Options = labels }
}

// Describe sets the task description shown to agents.
func (t *TaskBuilder) Describe(text string) *TaskBuilder {
	t.task.Description = text
	return t
}

// Param appends a parameter to the schema. Parameters are required unless an option says otherwise.
func (t *TaskBuilder) Param(name string, typ domain.ParamType, opts ...ParamOption) *TaskBuilder {
	p := domain.Param{Name: name, Type: typ, Required: true}
	for _, opt := range opts {
		opt(&p)
	}
	t.task.Params = append(t.task.Params, p)
	return t
}

// Enum is shorthand for a required enum parameter over labels.
func (t *TaskBuilder) Enum(name string, labels []string, opts ...ParamOption) *TaskBuilder {
	return t.Param(name, domain.TypeEnum, append([]ParamOption{Options(labels...)}, opts...)...)
}

// Task adds a sibling task to the same stage.
func (t *TaskBuilder) Task(name string, body domain.TaskFunc) *TaskBuilder {
	return t.stage.Task(name, body)
}

// Stage jumps back to the workflow builder to configure another stage.
func (t *TaskBuilder) Stage(name string) *StageBuilder {
	return t.stage.builder.Stage(name)
}
