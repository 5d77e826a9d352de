// Package registry defines the purchase-registry capability: the upstream
// catalog of purchasable products that entitlement proof is checked against.
package registry

import (
	"context"
	"fmt"

	"rolesync/pkg/platform/sentinel"
)

// Product is the upstream registry's view of a purchasable product.
type Product struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PreviewURL string `json:"preview_url"`
	ShortURL   string `json:"short_url"`
}

// Client is the lookup capability. token is the per-guild registry access
// token; implementations must return sentinel.ErrNotFound (wrapped) when the
// registry has no product with the given id.
type Client interface {
	Product(ctx context.Context, token, id string) (Product, error)
	Products(ctx context.Context, token string) ([]Product, error)
}

// NotFoundErr wraps sentinel.ErrNotFound with the failing product id so the
// command boundary can name it in the reply.
func NotFoundErr(id string) error {
	return fmt.Errorf("registry has no product %q: %w", id, sentinel.ErrNotFound)
}
