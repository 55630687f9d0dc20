package ports

import "github.com/ArnavBalyan/concierge/pkg/domain"

// WorkflowSource supplies workflow definitions at startup.
// This decouples registration from how definitions are authored (Go DSL, YAML files).
type WorkflowSource interface {
	Workflows() ([]*domain.Workflow, error)
}

// WorkflowSourceFunc adapts a function to WorkflowSource.
type WorkflowSourceFunc func() ([]*domain.Workflow, error)

func (f WorkflowSourceFunc) Workflows() ([]*domain.Workflow, error) { return f() }
