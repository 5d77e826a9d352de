package synclink

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rolesync/internal/events"
	"rolesync/internal/product/store"
	"rolesync/internal/registry"
	"rolesync/internal/registry/registrytest"
)

type ServiceSuite struct {
	suite.Suite
	store    *store.InMemory
	registry *registrytest.Fake
	events   *events.Memory
	service  *Service
	ctx      context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.registry = registrytest.New()
	s.events = events.NewMemory()
	s.service = New(s.store, s.registry, "secret", s.events, slog.Default(),
		WithClock(func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }))
	s.ctx = context.Background()

	s.registry.Add(registry.Product{
		ID:         "P-100",
		Name:       "Starter Pack",
		PreviewURL: "https://cdn.example.com/p-100.png",
		ShortURL:   "https://shop.example.com/p-100",
	})
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) TestRegister() {
	s.Run("persists the record from the registry's view of the product", func() {
		p, err := s.service.Register(s.ctx, "G1", "R1", "P-100", "")
		s.Require().NoError(err)
		s.Equal("Starter Pack", p.DisplayName)
		s.Equal("https://cdn.example.com/p-100.png", p.PreviewImageURL)
		s.Equal("https://shop.example.com/p-100", p.ShortURL)
		s.False(p.Anchored())

		stored, err := s.store.FindByGuildAndID(s.ctx, "G1", "P-100")
		s.Require().NoError(err)
		s.Equal(p.DisplayName, stored.DisplayName)

		published := s.events.Events()
		s.Require().Len(published, 1)
		s.Equal(events.TypeLinkCreated, published[0].Type)
		s.Equal("G1", published[0].GuildID)
	})

	s.Run("accepts a pre-existing anchor message", func() {
		p, err := s.service.Register(s.ctx, "G2", "R2", "P-100", "M42")
		s.Require().NoError(err)
		s.True(p.Anchored())
		s.Equal("M42", p.WatchMessageID)
	})
}

func (s *ServiceSuite) TestRegisterUnknownExternalID() {
	_, err := s.service.Register(s.ctx, "G1", "R1", "P-999", "")

	var lookupErr *ExternalLookupError
	s.Require().ErrorAs(err, &lookupErr)
	s.Equal("P-999", lookupErr.RegistryID)

	all, listErr := s.store.ListByGuild(s.ctx, "G1")
	s.Require().NoError(listErr)
	s.Empty(all, "store must be unchanged on lookup failure")
	s.Empty(s.events.Events())
}

func (s *ServiceSuite) TestRegisterDuplicate() {
	_, err := s.service.Register(s.ctx, "G1", "R1", "P-100", "")
	s.Require().NoError(err)

	_, err = s.service.Register(s.ctx, "G1", "R1", "P-100", "")
	s.Require().ErrorIs(err, ErrDuplicate)

	all, listErr := s.store.ListByGuild(s.ctx, "G1")
	s.Require().NoError(listErr)
	s.Len(all, 1, "exactly one stored record after a duplicate attempt")
}

func (s *ServiceSuite) TestSetAnchorMessage() {
	p, err := s.service.Register(s.ctx, "G1", "R1", "P-100", "")
	s.Require().NoError(err)

	s.Run("anchors the record", func() {
		s.Require().NoError(s.service.SetAnchorMessage(s.ctx, p, "M1"))

		stored, err := s.store.FindByGuildAndID(s.ctx, "G1", "P-100")
		s.Require().NoError(err)
		s.Equal("M1", stored.WatchMessageID)
	})

	s.Run("is idempotent", func() {
		s.Require().NoError(s.service.SetAnchorMessage(s.ctx, p, "M1"))
		first, err := s.store.FindByGuildAndID(s.ctx, "G1", "P-100")
		s.Require().NoError(err)

		s.Require().NoError(s.service.SetAnchorMessage(s.ctx, p, "M1"))
		second, err := s.store.FindByGuildAndID(s.ctx, "G1", "P-100")
		s.Require().NoError(err)
		s.Equal(first, second)
	})

	s.Run("overwrites a previous anchor", func() {
		s.Require().NoError(s.service.SetAnchorMessage(s.ctx, p, "M2"))

		stored, err := s.store.FindByGuildAndID(s.ctx, "G1", "P-100")
		s.Require().NoError(err)
		s.Equal("M2", stored.WatchMessageID)
	})
}

func (s *ServiceSuite) TestRemove() {
	p, err := s.service.Register(s.ctx, "G1", "R1", "P-100", "")
	s.Require().NoError(err)

	s.Run("deletes the record and emits removal", func() {
		s.Require().NoError(s.service.Remove(s.ctx, p))

		all, err := s.store.ListByGuild(s.ctx, "G1")
		s.Require().NoError(err)
		s.Empty(all)

		published := s.events.Events()
		s.Equal(events.TypeLinkRemoved, published[len(published)-1].Type)
	})

	s.Run("double delete is a no-op", func() {
		s.Require().NoError(s.service.Remove(s.ctx, p))
	})
}

func (s *ServiceSuite) TestRemoveToleratesConcurrentMutation() {
	p, err := s.service.Register(s.ctx, "G1", "R1", "P-100", "")
	s.Require().NoError(err)

	// Another administrator re-anchors the record while the confirmation gate
	// is open; the confirmed removal still applies.
	concurrent := *p
	concurrent.SetAnchor("M-other")
	s.Require().NoError(s.store.Update(s.ctx, &concurrent))

	s.Require().NoError(s.service.Remove(s.ctx, p))
	all, err := s.store.ListByGuild(s.ctx, "G1")
	s.Require().NoError(err)
	s.Empty(all)
}
