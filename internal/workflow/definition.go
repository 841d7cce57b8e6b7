package workflow

import (
	"fmt"
	"sort"
)

// Definition is the per-type strategy for validating and enriching request data.
// Implementations are stateless and pure: Validate checks the raw submission and
// returns the first failing rule, Prepare enriches it into the canonical payload
// the engine persists. Prepare is invoked exactly once per request.
type Definition interface {
	// Type returns the workflow type key ("pto", "expense", ...)
	Type() string

	// DisplayName returns the human-readable workflow name
	DisplayName() string

	// Description returns a short description for listings
	Description() string

	// Validate checks the raw submission data, returning the first failing rule
	Validate(data map[string]interface{}) error

	// Prepare enriches raw data into the canonical payload
	Prepare(data map[string]interface{}) map[string]interface{}

	// Summary formats a human-readable summary for notifications
	Summary(data map[string]interface{}) string
}

// Registry is a closed table of workflow definitions keyed by type
type Registry struct {
	definitions map[string]Definition
}

// NewRegistry creates a registry holding the given definitions
func NewRegistry(definitions ...Definition) *Registry {
	r := &Registry{definitions: make(map[string]Definition, len(definitions))}
	for _, d := range definitions {
		r.definitions[d.Type()] = d
	}
	return r
}

// DefaultRegistry returns a registry with all built-in workflow types
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewPTODefinition(),
		NewExpenseDefinition(),
		NewOnboardingDefinition(),
	)
}

// Get returns the definition for a workflow type
func (r *Registry) Get(workflowType string) (Definition, error) {
	d, ok := r.definitions[workflowType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorkflowType, workflowType)
	}
	return d, nil
}

// List returns all registered definitions ordered by type key
func (r *Registry) List() []Definition {
	out := make([]Definition, 0, len(r.definitions))
	for _, d := range r.definitions {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type() < out[j].Type() })
	return out
}
