package command

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rolesync/internal/await"
	"rolesync/internal/chat"
	"rolesync/internal/chat/chattest"
	"rolesync/internal/events"
	"rolesync/internal/product/resolver"
	"rolesync/internal/product/store"
	"rolesync/internal/registry"
	"rolesync/internal/registry/registrytest"
	"rolesync/internal/synclink"
	"rolesync/internal/syncmsg"
)

const (
	guildID   = "G1"
	adminID   = "U-admin"
	channelID = "C-admin"
)

type HandlerSuite struct {
	suite.Suite
	platform *chattest.Fake
	store    *store.InMemory
	registry *registrytest.Fake
	events   *events.Memory
	links    *synclink.Service
	cancel   context.CancelFunc
	seen     int
}

func (s *HandlerSuite) SetupTest() {
	s.platform = chattest.New()
	s.seen = 0
	s.store = store.NewInMemory()
	s.registry = registrytest.New()
	s.events = events.NewMemory()
	s.registry.Add(registry.Product{
		ID:         "P-100",
		Name:       "Starter Pack",
		PreviewURL: "https://cdn.example.com/p-100.png",
		ShortURL:   "https://shop.example.com/p-100",
	})

	logger := slog.Default()
	s.links = synclink.New(s.store, s.registry, "secret", s.events, logger)
	handler := NewHandler(Config{
		Registry:       s.registry,
		RegistryToken:  "secret",
		Links:          s.links,
		Resolver:       resolver.New(s.store),
		Publisher:      syncmsg.New(s.platform, s.links, logger),
		Messenger:      s.platform,
		Gate:           await.NewDispatcher(),
		ConfirmTimeout: 150 * time.Millisecond,
		Prefix:         "!",
		Logger:         logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() { _ = handler.Run(ctx, s.platform) }()
}

func (s *HandlerSuite) TearDownTest() {
	s.cancel()
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

// admin sends a command (or reply) as the invoking administrator.
func (s *HandlerSuite) admin(content string) {
	s.platform.Deliver(chat.Message{
		ID:        "in-" + content,
		GuildID:   guildID,
		ChannelID: channelID,
		AuthorID:  adminID,
		Content:   content,
	})
}

// waitForReply blocks until an outbound message containing fragment appears.
// Matched replies are consumed, so waiting twice for the same fragment waits
// for two distinct occurrences.
func (s *HandlerSuite) waitForReply(fragment string) chattest.Sent {
	var found chattest.Sent
	s.Require().Eventuallyf(func() bool {
		for i, sent := range s.platform.Sent()[s.seen:] {
			if sent.Card == nil && strings.Contains(sent.Content, fragment) {
				found = sent
				s.seen += i + 1
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond, "no reply containing %q", fragment)
	return found
}

func (s *HandlerSuite) mustRegister(productID string) {
	s.admin("!createrolesync <@&R1> " + productID)
	s.waitForReply("Successfully added")
}

func (s *HandlerSuite) TestProductsListsTheCatalog() {
	s.registry.Add(registry.Product{ID: "P-200", Name: "Bundle"})

	s.admin("!products")

	reply := s.waitForReply("**Available Products**")
	s.Contains(reply.Content, "Starter Pack `P-100`")
	s.Contains(reply.Content, "Bundle `P-200`")

	all, err := s.store.ListByGuild(context.Background(), guildID)
	s.Require().NoError(err)
	s.Empty(all, "listing is read-only")
}

func (s *HandlerSuite) TestCreateRoleSync() {
	s.admin("!createrolesync <@&R1> P-100")

	s.waitForReply("Successfully added `Starter Pack` to the syncing service!")

	p, err := s.store.FindByGuildAndID(context.Background(), guildID, "P-100")
	s.Require().NoError(err)
	s.Equal("R1", p.RoleID)
	s.False(p.Anchored(), "no anchor until a sync message exists")
}

func (s *HandlerSuite) TestCreateRoleSyncUnknownProduct() {
	s.admin("!createrolesync <@&R1> P-999")

	s.waitForReply("Sorry, I couldn't find any products matching that ID.")

	all, err := s.store.ListByGuild(context.Background(), guildID)
	s.Require().NoError(err)
	s.Empty(all, "store unchanged on lookup failure")
}

func (s *HandlerSuite) TestCreateRoleSyncDuplicate() {
	s.mustRegister("P-100")

	s.admin("!createrolesync <@&R2> P-100")

	s.waitForReply("`P-100` is already registered for this guild.")
}

func (s *HandlerSuite) TestCreateSyncMessagePublishesAndAnchors() {
	s.mustRegister("P-100")

	s.admin(`!createsyncmessage "Starter Pack" <#C-announce>`)

	s.waitForReply("Sync message created in <#C-announce> for `Starter Pack`.")

	var card chattest.Sent
	for _, sent := range s.platform.Sent() {
		if sent.Card != nil {
			card = sent
		}
	}
	s.Require().NotNil(card.Card, "a rich card was posted")
	s.Equal("C-announce", card.ChannelID)
	s.Equal("Starter Pack", card.Card.Title)
	s.Contains(card.Card.Body, chat.MentionRole("R1"))

	reactions := s.platform.Reactions()
	s.Require().Len(reactions, 1, "single seed reaction")
	s.Equal(card.MessageID, reactions[0].MessageID)

	p, err := s.store.FindByGuildAndID(context.Background(), guildID, "P-100")
	s.Require().NoError(err)
	s.Equal(card.MessageID, p.WatchMessageID)
}

func (s *HandlerSuite) TestCreateSyncMessageCustomBody() {
	s.mustRegister("P-100")

	s.admin("!createsyncmessage P-100 <#C-announce> React here for your role!")

	s.waitForReply("Sync message created")
	var card chattest.Sent
	for _, sent := range s.platform.Sent() {
		if sent.Card != nil {
			card = sent
		}
	}
	s.Require().NotNil(card.Card)
	s.Equal("React here for your role!", card.Card.Body)
}

func (s *HandlerSuite) TestSetSyncMessage() {
	s.mustRegister("P-100")

	s.admin("!setsyncmessage P-100 M-777")

	s.waitForReply("Now watching message `M-777` for `Starter Pack`.")

	p, err := s.store.FindByGuildAndID(context.Background(), guildID, "P-100")
	s.Require().NoError(err)
	s.Equal("M-777", p.WatchMessageID)
}

func (s *HandlerSuite) TestRemoveRoleSyncDeclined() {
	s.mustRegister("P-100")

	s.admin(`!removerolesync "Starter Pack"`)
	s.waitForReply("Are you sure you want to remove `Starter Pack` from the syncing service? Reply yes/no")

	s.admin("no")

	s.waitForReply("Cancelled. `Starter Pack` was not removed.")
	_, err := s.store.FindByGuildAndID(context.Background(), guildID, "P-100")
	s.Require().NoError(err, "record still present after declining")
}

func (s *HandlerSuite) TestRemoveRoleSyncConfirmed() {
	s.mustRegister("P-100")

	s.admin("!removerolesync P-100")
	s.waitForReply("Are you sure")

	s.admin("YES")

	s.waitForReply("Successfully removed `Starter Pack` from the syncing service!")
	all, err := s.store.ListByGuild(context.Background(), guildID)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *HandlerSuite) TestRemoveRoleSyncTimeout() {
	s.mustRegister("P-100")

	s.admin("!removerolesync P-100")
	s.waitForReply("Are you sure")

	// No reply at all; the bounded window elapses.
	s.waitForReply("Timed out waiting for a reply. `Starter Pack` was not removed.")

	_, err := s.store.FindByGuildAndID(context.Background(), guildID, "P-100")
	s.Require().NoError(err, "destructive operation never ran")
}

func (s *HandlerSuite) TestRemoveRoleSyncIgnoresOtherUsers() {
	s.mustRegister("P-100")

	s.admin("!removerolesync P-100")
	s.waitForReply("Are you sure")

	// A bystander's "yes" in the same channel must not satisfy the gate.
	s.platform.Deliver(chat.Message{
		ID:        "bystander",
		GuildID:   guildID,
		ChannelID: channelID,
		AuthorID:  "U-other",
		Content:   "yes",
	})

	s.waitForReply("Timed out waiting for a reply")
	_, err := s.store.FindByGuildAndID(context.Background(), guildID, "P-100")
	s.Require().NoError(err)
}

func (s *HandlerSuite) TestRemoveRoleSyncAmbiguousToken() {
	s.registry.Add(registry.Product{ID: "P-201", Name: "Bundle"})
	s.registry.Add(registry.Product{ID: "P-202", Name: "Bundle"})
	s.mustRegister("P-201")
	s.mustRegister("P-202")

	s.admin("!removerolesync Bundle")

	reply := s.waitForReply("matches more than one product")
	s.Contains(reply.Content, "`P-201`")
	s.Contains(reply.Content, "`P-202`")
	s.Contains(reply.Content, "retry with the product ID")

	all, err := s.store.ListByGuild(context.Background(), guildID)
	s.Require().NoError(err)
	s.Len(all, 2, "nothing removed on ambiguity")
}

func (s *HandlerSuite) TestRemoveRoleSyncUnknownToken() {
	s.admin("!removerolesync nothing-here")

	s.waitForReply("I couldn't find a linked product matching `nothing-here`.")
}

func (s *HandlerSuite) TestAliasesDispatchToTheSameCommand() {
	s.admin("!addrolesync <@&R1> P-100")
	s.waitForReply("Successfully added")

	s.admin("!delrolesync P-100")
	s.waitForReply("Are you sure")
	s.admin("yes")
	s.waitForReply("Successfully removed")
}

func (s *HandlerSuite) TestUnknownCommandIsIgnored() {
	s.admin("!definitelynotacommand")
	s.admin("plain conversation")

	// Give the loop a moment; nothing should have been sent.
	time.Sleep(50 * time.Millisecond)
	s.Empty(s.platform.Sent())
}

// Full lifecycle: register a product, publish its sync message, decline a
// removal, then confirm one.
func (s *HandlerSuite) TestLifecycleScenario() {
	ctx := context.Background()

	s.admin("!createrolesync <@&R1> P-100")
	s.waitForReply("Successfully added")
	p, err := s.store.FindByGuildAndID(ctx, guildID, "P-100")
	s.Require().NoError(err)
	s.False(p.Anchored())

	s.admin("!createsyncmessage P-100 <#C1>")
	s.waitForReply("Sync message created")
	p, err = s.store.FindByGuildAndID(ctx, guildID, "P-100")
	s.Require().NoError(err)
	s.True(p.Anchored())

	s.admin(`!removerolesync "Starter Pack"`)
	s.waitForReply("Are you sure")
	s.admin("no")
	s.waitForReply("Cancelled.")
	_, err = s.store.FindByGuildAndID(ctx, guildID, "P-100")
	s.Require().NoError(err)

	s.admin(`!removerolesync "Starter Pack"`)
	s.waitForReply("Are you sure")
	s.admin("yes")
	s.waitForReply("Successfully removed")
	all, err := s.store.ListByGuild(ctx, guildID)
	s.Require().NoError(err)
	s.Empty(all)
}
