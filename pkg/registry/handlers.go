package registry

import (
	"fmt"
	"slices"
	"sync"

	"github.com/ArnavBalyan/concierge/pkg/domain"
)

// Handlers maps handler names to task bodies.
// Declarative workflow files refer to bodies by name; the host binds them here.
type Handlers struct {
	mu    sync.RWMutex
	funcs map[string]domain.TaskFunc
}

// NewHandlers creates an empty handler set.
func NewHandlers() *Handlers {
	return &Handlers{
		funcs: make(map[string]domain.TaskFunc),
	}
}

// Register binds name to fn. Binding a name twice is an error.
func (h *Handlers) Register(name string, fn domain.TaskFunc) error {
	if fn == nil {
		return fmt.Errorf("handler %q: nil function", name)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.funcs[name]; exists {
		return fmt.Errorf("handler %q already registered", name)
	}
	h.funcs[name] = fn
	return nil
}

// MustRegister is like Register but panics on error. Intended for static setup.
func (h *Handlers) MustRegister(name string, fn domain.TaskFunc) *Handlers {
	if err := h.Register(name, fn); err != nil {
		panic(err)
	}
	return h
}

// Lookup returns the body bound to name.
func (h *Handlers) Lookup(name string) (domain.TaskFunc, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn, ok := h.funcs[name]
	return fn, ok
}

// Names lists the bound handler names, sorted.
func (h *Handlers) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.funcs))
	for name := range h.funcs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
