package processor

import (
	"fmt"
	"log/slog"
)

// Registry holds the candidate processors of one application instance, in
// registration order. Registration order is pipeline order.
type Registry struct {
	pre   []PreProcessor
	post  []PostProcessor
	names map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// RegisterPre adds a pre-processor. Registering two processors under the
// same name is a programmer error.
func (r *Registry) RegisterPre(p PreProcessor) {
	r.reserve(p.Name())
	slog.Debug("Registering pre-processor.", "name", p.Name())
	r.pre = append(r.pre, p)
}

// RegisterPost adds a post-processor. Registering two processors under the
// same name is a programmer error.
func (r *Registry) RegisterPost(p PostProcessor) {
	r.reserve(p.Name())
	slog.Debug("Registering post-processor.", "name", p.Name())
	r.post = append(r.post, p)
}

func (r *Registry) reserve(name string) {
	if _, exists := r.names[name]; exists {
		panic(fmt.Sprintf("processor with name '%s' already registered", name))
	}
	r.names[name] = struct{}{}
}
