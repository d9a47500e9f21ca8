// internal/adapters/registry.go
package adapters

import "errors"

var ErrNoAdapter = errors.New("no adapter available for input")

// Registry is an ordered list of marketplace strategies. The list is
// fixed at construction; selection is first-match in registration order.
type Registry struct {
	adapters []MarketplaceAdapter
}

func NewRegistry(adapters ...MarketplaceAdapter) *Registry {
	return &Registry{adapters: adapters}
}

func (r *Registry) List() []MarketplaceAdapter {
	out := make([]MarketplaceAdapter, len(r.adapters))
	copy(out, r.adapters)
	return out
}

func (r *Registry) Pick(input ResolveInput) (MarketplaceAdapter, error) {
	for _, adapter := range r.adapters {
		if adapter.CanHandle(input) {
			return adapter, nil
		}
	}
	return nil, ErrNoAdapter
}
