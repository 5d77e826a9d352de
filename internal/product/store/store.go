// Package store persists product sync-link records. Implementations commit
// per operation; callers treat each call as atomic and independently durable.
package store

import (
	"context"

	"rolesync/internal/product/models"
)

// Store is interface-driven so the service layer stays testable and the
// in-memory and PostgreSQL implementations stay swappable.
//
// Key semantics: (guildID, registryID) uniquely identifies a record. Create
// reports sentinel.ErrConflict to the later of two writers racing on the same
// key; Update and Delete report sentinel.ErrNotFound when the record is gone.
type Store interface {
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, guildID, registryID string) error
	FindByGuildAndID(ctx context.Context, guildID, registryID string) (*models.Product, error)
	// FindByGuildAndName matches DisplayName case-insensitively and returns
	// candidates in creation order. The name index is non-unique; callers own
	// disambiguation.
	FindByGuildAndName(ctx context.Context, guildID, name string) ([]*models.Product, error)
	ListByGuild(ctx context.Context, guildID string) ([]*models.Product, error)
}
