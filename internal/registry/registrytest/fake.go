// Package registrytest provides an in-memory purchase registry for tests.
package registrytest

import (
	"context"
	"sync"

	"rolesync/internal/registry"
)

// Fake implements registry.Client against an in-memory catalog.
type Fake struct {
	mu       sync.Mutex
	products map[string]registry.Product
	order    []string

	// Err, when set, is returned by every call.
	Err error
	// LookupCount counts Product calls, for cache assertions.
	LookupCount int
}

func New() *Fake {
	return &Fake{products: make(map[string]registry.Product)}
}

// Add registers a product in the fake catalog.
func (f *Fake) Add(p registry.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[p.ID]; !ok {
		f.order = append(f.order, p.ID)
	}
	f.products[p.ID] = p
}

func (f *Fake) Product(_ context.Context, _ string, id string) (registry.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LookupCount++
	if f.Err != nil {
		return registry.Product{}, f.Err
	}
	p, ok := f.products[id]
	if !ok {
		return registry.Product{}, registry.NotFoundErr(id)
	}
	return p, nil
}

func (f *Fake) Products(_ context.Context, _ string) ([]registry.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]registry.Product, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.products[id])
	}
	return out, nil
}
