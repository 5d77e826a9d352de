package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rolesync/internal/product/models"
	"rolesync/internal/product/store"
	"rolesync/pkg/platform/sentinel"
)

type ResolverSuite struct {
	suite.Suite
	store    *store.InMemory
	resolver *Resolver
	ctx      context.Context
}

func (s *ResolverSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.resolver = New(s.store)
	s.ctx = context.Background()
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) seed(guildID, registryID, name string) *models.Product {
	p := &models.Product{
		GuildID:     guildID,
		RegistryID:  registryID,
		DisplayName: name,
		RoleID:      "R1",
		CreatedAt:   time.Now(),
	}
	s.Require().NoError(s.store.Create(s.ctx, p))
	return p
}

func (s *ResolverSuite) TestRegistryIDMatchShortCircuits() {
	s.seed("G1", "P-100", "Starter Pack")
	// A decoy whose display name equals another record's registry id must lose
	// to the exact id match.
	s.seed("G1", "P-200", "P-100")

	p, err := s.resolver.Resolve(s.ctx, "G1", "P-100")
	s.Require().NoError(err)
	s.Equal("P-100", p.RegistryID)
	s.Equal("Starter Pack", p.DisplayName)
}

func (s *ResolverSuite) TestDisplayNameMatch() {
	s.Run("matches case-insensitively", func() {
		s.seed("G1", "P-100", "Starter Pack")

		p, err := s.resolver.Resolve(s.ctx, "G1", "starter pack")
		s.Require().NoError(err)
		s.Equal("P-100", p.RegistryID)
	})

	s.Run("is scoped to the guild", func() {
		s.seed("G2", "P-300", "Elsewhere Pack")

		_, err := s.resolver.Resolve(s.ctx, "G1", "Elsewhere Pack")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *ResolverSuite) TestNotFound() {
	_, err := s.resolver.Resolve(s.ctx, "G1", "no-such-token")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.resolver.Resolve(s.ctx, "G1", "   ")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ResolverSuite) TestAmbiguousNameIsSurfaced() {
	s.seed("G1", "P-201", "Bundle")
	s.seed("G1", "P-202", "bundle")

	_, err := s.resolver.Resolve(s.ctx, "G1", "BUNDLE")
	var ambiguous *AmbiguousError
	s.Require().ErrorAs(err, &ambiguous)
	s.Equal("BUNDLE", ambiguous.Token)
	s.Require().Len(ambiguous.Candidates, 2)
	// Creation order keeps the disambiguation hint stable.
	s.Equal("P-201", ambiguous.Candidates[0].RegistryID)
	s.Equal("P-202", ambiguous.Candidates[1].RegistryID)
}
