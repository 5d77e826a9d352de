// Package resolver turns free-form administrator input into exactly one
// registered product, or a typed failure.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rolesync/internal/product/models"
	"rolesync/internal/product/store"
	"rolesync/pkg/platform/sentinel"
)

// AmbiguousError reports that a display name matched more than one record in
// the guild. Candidates are ordered by creation time so callers can render a
// stable disambiguation hint.
type AmbiguousError struct {
	Token      string
	Candidates []*models.Product
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("token %q matches %d products", e.Token, len(e.Candidates))
}

// Resolver resolves tokens against the product store.
type Resolver struct {
	store store.Store
}

func New(s store.Store) *Resolver {
	return &Resolver{store: s}
}

// Resolve maps a token to exactly one product scoped to guildID.
//
// A registry-id match short-circuits and is unique by the store's key
// invariant. Otherwise the display name is matched case-insensitively; zero
// matches yield sentinel.ErrNotFound and more than one yields an
// AmbiguousError rather than silently picking the first.
func (r *Resolver) Resolve(ctx context.Context, guildID, token string) (*models.Product, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("resolve product: empty token: %w", sentinel.ErrNotFound)
	}

	p, err := r.store.FindByGuildAndID(ctx, guildID, token)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("resolve product %q: %w", token, err)
	}

	matches, err := r.store.FindByGuildAndName(ctx, guildID, token)
	if err != nil {
		return nil, fmt.Errorf("resolve product %q: %w", token, err)
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("resolve product %q: %w", token, sentinel.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return nil, &AmbiguousError{Token: token, Candidates: matches}
	}
}
