package symbol

import (
	"context"
	"fmt"
)

// Registry is an in-memory Catalog.
type Registry struct {
	byID map[string]*Symbol
	all  []Symbol
}

// NewRegistry creates a registry from loaded symbols.
// Later duplicates of an id replace earlier ones in lookups but keep catalog order.
func NewRegistry(symbols []Symbol) *Registry {
	r := &Registry{
		byID: make(map[string]*Symbol, len(symbols)),
		all:  symbols,
	}
	for i := range symbols {
		r.byID[symbols[i].ID] = &symbols[i]
	}
	return r
}

// Candidates returns the symbols matching f.
func (r *Registry) Candidates(_ context.Context, f Filter) ([]Symbol, error) {
	out := make([]Symbol, 0, len(r.all))
	for _, s := range r.all {
		if !f.Match(s) {
			continue
		}
		out = append(out, s)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

// Lookup returns the symbol with the given id.
func (r *Registry) Lookup(_ context.Context, id string) (Symbol, error) {
	s, ok := r.byID[id]
	if !ok {
		return Symbol{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *s, nil
}

// All returns every symbol in catalog order.
func (r *Registry) All() []Symbol {
	return r.all
}

// Count returns the number of symbols.
func (r *Registry) Count() int {
	return len(r.all)
}
