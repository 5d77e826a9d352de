package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"rolesync/internal/product/models"
	"rolesync/pkg/platform/sentinel"
)

type memoryRecord struct {
	product models.Product
	seq     uint64 // creation order, drives ambiguity candidate ordering
}

// InMemory keeps sync-link records in process memory. It intentionally favors
// clarity over performance and is the default backend for development and
// unit tests.
type InMemory struct {
	mu      sync.RWMutex
	guilds  map[string]map[string]memoryRecord // guildID -> registryID -> record
	nextSeq uint64
}

func NewInMemory() *InMemory {
	return &InMemory{guilds: make(map[string]map[string]memoryRecord)}
}

func (s *InMemory) Create(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	guild, ok := s.guilds[p.GuildID]
	if !ok {
		guild = make(map[string]memoryRecord)
		s.guilds[p.GuildID] = guild
	}
	if _, exists := guild[p.RegistryID]; exists {
		return sentinel.ErrConflict
	}
	s.nextSeq++
	guild[p.RegistryID] = memoryRecord{product: *p, seq: s.nextSeq}
	return nil
}

func (s *InMemory) Update(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	guild := s.guilds[p.GuildID]
	rec, ok := guild[p.RegistryID]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec.product = *p
	guild[p.RegistryID] = rec
	return nil
}

func (s *InMemory) Delete(_ context.Context, guildID, registryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	guild := s.guilds[guildID]
	if _, ok := guild[registryID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(guild, registryID)
	return nil
}

func (s *InMemory) FindByGuildAndID(_ context.Context, guildID, registryID string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.guilds[guildID][registryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	p := rec.product
	return &p, nil
}

func (s *InMemory) FindByGuildAndName(_ context.Context, guildID, name string) ([]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []memoryRecord
	for _, rec := range s.guilds[guildID] {
		if strings.EqualFold(rec.product.DisplayName, name) {
			matched = append(matched, rec)
		}
	}
	return productsInOrder(matched), nil
}

func (s *InMemory) ListByGuild(_ context.Context, guildID string) ([]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := make([]memoryRecord, 0, len(s.guilds[guildID]))
	for _, rec := range s.guilds[guildID] {
		recs = append(recs, rec)
	}
	return productsInOrder(recs), nil
}

func productsInOrder(recs []memoryRecord) []*models.Product {
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	out := make([]*models.Product, 0, len(recs))
	for _, rec := range recs {
		p := rec.product
		out = append(out, &p)
	}
	return out
}
