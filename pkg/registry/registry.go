package registry

import (
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"

	"github.com/ArnavBalyan/concierge/pkg/domain"
)

// Registry holds the registered workflows.
// Registration is the only mutation; lookups are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	workflows map[string]*domain.Workflow
	order     []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		workflows: make(map[string]*domain.Workflow),
	}
}

// Register validates wf and adds a frozen copy of it.
// A name that is already taken fails with DuplicateWorkflowError, never overwrites.
func (r *Registry) Register(wf *domain.Workflow) error {
	frozen, err := Validate(wf)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.workflows[frozen.Name]; exists {
		return &domain.DuplicateWorkflowError{Workflow: frozen.Name}
	}
	r.workflows[frozen.Name] = frozen
	r.order = append(r.order, frozen.Name)
	return nil
}

// Lookup returns the registered workflow or UnknownWorkflowError.
// The returned value is shared and must not be modified.
func (r *Registry) Lookup(name string) (*domain.Workflow, error) {
	r.mu.RLock()
	wf, ok := r.workflows[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &domain.UnknownWorkflowError{Workflow: name}
	}
	return wf, nil
}

// Names lists workflow names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Workflows lists the registered workflows in registration order.
func (r *Registry) Workflows() []*domain.Workflow {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Workflow, len(r.order))
	for i, name := range r.order {
		out[i] = r.workflows[name]
	}
	return out
}

// Search returns workflows whose name or description fuzzily matches query,
// best match first. An empty query returns everything.
func (r *Registry) Search(query string) []*domain.Workflow {
	all := r.Workflows()
	query = strings.TrimSpace(query)
	if query == "" {
		return all
	}

	matches := fuzzy.FindFrom(strings.ToLower(query), workflowSource(all))
	out := make([]*domain.Workflow, len(matches))
	for i, m := range matches {
		out[i] = all[m.Index]
	}
	return out
}

type workflowSource []*domain.Workflow

func (s workflowSource) String(i int) string {
	return strings.ToLower(s[i].Name + " " + s[i].Description)
}

func (s workflowSource) Len() int { return len(s) }
