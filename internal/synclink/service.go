// Package synclink owns the product→role→anchor-message association: its
// creation against the purchase registry, anchor updates, and the gated
// delete path.
package synclink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rolesync/internal/events"
	"rolesync/internal/product/models"
	"rolesync/internal/product/store"
	"rolesync/internal/registry"
	"rolesync/pkg/platform/sentinel"
)

// ErrDuplicate reports that the guild already has a sync link for the
// registry id.
var ErrDuplicate = errors.New("product is already registered for this guild")

// ExternalLookupError reports that the purchase registry could not resolve
// the external id. Distinct from a local duplicate so the command boundary
// can phrase the two failures differently.
type ExternalLookupError struct {
	RegistryID string
	Err        error
}

func (e *ExternalLookupError) Error() string {
	return fmt.Sprintf("purchase registry lookup for %q failed: %v", e.RegistryID, e.Err)
}

func (e *ExternalLookupError) Unwrap() error {
	return e.Err
}

// Service is the sync link manager.
type Service struct {
	store         store.Store
	registry      registry.Client
	registryToken string
	events        events.Publisher
	logger        *slog.Logger
	now           func() time.Time
}

type Option func(*Service)

// WithClock overrides the creation timestamp source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(st store.Store, reg registry.Client, registryToken string, pub events.Publisher, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:         st,
		registry:      reg,
		registryToken: registryToken,
		events:        pub,
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register looks the external id up in the purchase registry and persists a
// new sync link. anchorMessageID may be empty; the record then starts
// unanchored until a sync message is published or set explicitly.
func (s *Service) Register(ctx context.Context, guildID, roleID, externalID, anchorMessageID string) (*models.Product, error) {
	remote, err := s.registry.Product(ctx, s.registryToken, externalID)
	if err != nil {
		return nil, &ExternalLookupError{RegistryID: externalID, Err: err}
	}

	p, err := models.New(guildID, remote.ID, remote.Name, roleID, s.now())
	if err != nil {
		return nil, err
	}
	p.PreviewImageURL = remote.PreviewURL
	p.ShortURL = remote.ShortURL
	p.WatchMessageID = anchorMessageID

	if err := s.store.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, fmt.Errorf("register %q: %w", externalID, ErrDuplicate)
		}
		return nil, fmt.Errorf("register %q: %w", externalID, err)
	}

	s.emit(ctx, events.TypeLinkCreated, p)
	return p, nil
}

// SetAnchorMessage points the record at messageID. Idempotent; overwrites any
// previous anchor.
func (s *Service) SetAnchorMessage(ctx context.Context, p *models.Product, messageID string) error {
	p.SetAnchor(messageID)
	if err := s.store.Update(ctx, p); err != nil {
		return fmt.Errorf("set anchor for %q: %w", p.RegistryID, err)
	}
	s.emit(ctx, events.TypeLinkAnchored, p)
	return nil
}

// Remove deletes the sync link. Callers must have passed the confirmation
// gate first. The record may have been mutated or deleted by a concurrent
// administrator between resolution and confirmation, so a missing record is a
// no-op rather than an error.
func (s *Service) Remove(ctx context.Context, p *models.Product) error {
	err := s.store.Delete(ctx, p.GuildID, p.RegistryID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("remove %q: %w", p.RegistryID, err)
	}
	s.emit(ctx, events.TypeLinkRemoved, p)
	return nil
}

// List returns the guild's sync links in creation order.
func (s *Service) List(ctx context.Context, guildID string) ([]*models.Product, error) {
	return s.store.ListByGuild(ctx, guildID)
}

// emit publishes a change notification. Events are advisory; a publish
// failure is logged, never propagated into the mutation's result.
func (s *Service) emit(ctx context.Context, eventType events.Type, p *models.Product) {
	event := events.Event{
		ID:             uuid.NewString(),
		Type:           eventType,
		GuildID:        p.GuildID,
		RegistryID:     p.RegistryID,
		RoleID:         p.RoleID,
		WatchMessageID: p.WatchMessageID,
		OccurredAt:     s.now(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("sync-link event publish failed",
			"type", eventType,
			"guild_id", p.GuildID,
			"registry_id", p.RegistryID,
			"error", err,
		)
	}
}
