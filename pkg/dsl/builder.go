package dsl

import (
	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/registry"
)

// Builder manages workflow construction.
type Builder struct {
	wf     domain.Workflow
	stages map[string]*StageBuilder
	order  []string
}

// New creates a builder for a workflow named name.
func New(name string) *Builder {
	return &Builder{
		wf: domain.Workflow{
			Name:        name,
			Transitions: make(map[string][]string),
		},
		stages: make(map[string]*StageBuilder),
	}
}

// Describe sets the workflow description.
func (b *Builder) Describe(text string) *Builder {
	b.wf.Description = text
	return b
}

// Entry overrides the entry stage. By default it is the first stage added.
func (b *Builder) Entry(stage string) *Builder {
	b.wf.EntryStage = stage
	return b
}

// Stage creates a stage, or returns the existing builder if it was already added.
// Stages keep the order of their first mention.
func (b *Builder) Stage(name string) *StageBuilder {
	if sb, ok := b.stages[name]; ok {
		return sb
	}
	sb := &StageBuilder{
		stage:   &domain.Stage{Name: name},
		builder: b,
		tasks:   make(map[string]*TaskBuilder),
	}
	b.stages[name] = sb
	b.order = append(b.order, name)
	return sb
}

// Build validates the workflow and returns a frozen copy ready for registration.
func (b *Builder) Build() (*domain.Workflow, error) {
	wf := b.wf
	wf.Stages = make([]*domain.Stage, 0, len(b.order))
	for _, name := range b.order {
		wf.Stages = append(wf.Stages, b.stages[name].stage)
	}
	return registry.Validate(&wf)
}

// MustBuild is like Build but panics on error. Intended for static workflow definitions.
func (b *Builder) MustBuild() *domain.Workflow {
	wf, err := b.Build()
	if err != nil {
		panic(err)
	}
	return wf
}
