package memory

import "github.com/ArnavBalyan/concierge/pkg/domain"

// Source implements ports.WorkflowSource over workflows built in Go (e.g. with pkg/dsl).
type Source struct {
	workflows []*domain.Workflow
}

// NewSource wraps a fixed list of workflows.
func NewSource(workflows ...*domain.Workflow) *Source {
	return &Source{workflows: workflows}
}

// Workflows returns the wrapped workflows.
func (s *Source) Workflows() ([]*domain.Workflow, error) {
	return s.workflows, nil
}
