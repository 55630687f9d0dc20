package ports

import (
	"context"

	"github.com/ArnavBalyan/concierge/pkg/domain"
)

// Engine is the orchestrator as seen by transport adapters (HTTP, MCP, CLI).
type Engine interface {
	// Handle runs one action against a workflow session.
	Handle(ctx context.Context, req domain.Request) (*domain.Response, error)

	// Lookup returns a registered workflow.
	Lookup(name string) (*domain.Workflow, error)

	// Workflows lists registered workflows in registration order.
	Workflows() []*domain.Workflow

	// Search returns workflows fuzzily matching query.
	Search(query string) []*domain.Workflow
}

// Interpreter converts between orchestrator responses and agent-facing text.
// Implementations are best effort; ambiguity is theirs to resolve.
type Interpreter interface {
	// Render turns a response into text for the agent.
	Render(resp *domain.Response) string

	// Interpret maps free text onto a candidate action, given what the session can currently do.
	Interpret(ctx context.Context, text string, view *domain.View) (domain.Action, error)
}
