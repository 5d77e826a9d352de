// Package command implements the guild administrator command surface. The
// platform capability delivers pre-authorized traffic; this package parses
// it, drives the resolver, link manager, and publisher, and renders replies.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rolesync/internal/await"
	"rolesync/internal/chat"
	"rolesync/internal/platform/metrics"
	"rolesync/internal/product/models"
	"rolesync/internal/product/resolver"
	"rolesync/internal/registry"
	"rolesync/internal/synclink"
	"rolesync/internal/syncmsg"
	"rolesync/pkg/platform/sentinel"
)

// canonical maps every accepted spelling to its command.
var canonical = map[string]string{
	"products":          "products",
	"createrolesync":    "createrolesync",
	"newrolesync":       "createrolesync",
	"addrolesync":       "createrolesync",
	"removerolesync":    "removerolesync",
	"deleterolesync":    "removerolesync",
	"delrolesync":       "removerolesync",
	"createsyncmessage": "createsyncmessage",
	"createsyncmsg":     "createsyncmessage",
	"newsyncmsg":        "createsyncmessage",
	"addsyncmsg":        "createsyncmessage",
	"setsyncmessage":    "setsyncmessage",
	"setsyncmsg":        "setsyncmessage",
}

// Handler owns one guildless view of the command surface; guild scope comes
// from each inbound message.
type Handler struct {
	registry       registry.Client
	registryToken  string
	links          *synclink.Service
	resolver       *resolver.Resolver
	publisher      *syncmsg.Publisher
	messenger      chat.Messenger
	gate           *await.Dispatcher
	confirmTimeout time.Duration
	prefix         string
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

// Config wires the handler's collaborators.
type Config struct {
	Registry       registry.Client
	RegistryToken  string
	Links          *synclink.Service
	Resolver       *resolver.Resolver
	Publisher      *syncmsg.Publisher
	Messenger      chat.Messenger
	Gate           *await.Dispatcher
	ConfirmTimeout time.Duration
	Prefix         string
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
}

func NewHandler(cfg Config) *Handler {
	return &Handler{
		registry:       cfg.Registry,
		registryToken:  cfg.RegistryToken,
		links:          cfg.Links,
		resolver:       cfg.Resolver,
		publisher:      cfg.Publisher,
		messenger:      cfg.Messenger,
		gate:           cfg.Gate,
		confirmTimeout: cfg.ConfirmTimeout,
		prefix:         cfg.Prefix,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
	}
}

// Run consumes the gateway until ctx is cancelled or the stream closes.
// Replies awaited by an open confirmation gate are consumed before command
// parsing, so a "yes" can never be re-dispatched as a command. Each command
// runs in its own goroutine: an invocation suspended on a gate must not stall
// unrelated invocations.
func (h *Handler) Run(ctx context.Context, gateway chat.Gateway) error {
	msgs, err := gateway.Messages(ctx)
	if err != nil {
		return fmt.Errorf("open gateway stream: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-msgs:
			if !ok {
				return nil
			}
			if h.gate.Observe(m) {
				continue
			}
			name, rest, ok := h.parseCommand(m.Content)
			if !ok {
				continue
			}
			go h.handle(ctx, m, name, rest)
		}
	}
}

func (h *Handler) parseCommand(content string) (string, string, bool) {
	line, ok := strings.CutPrefix(content, h.prefix)
	if !ok {
		return "", "", false
	}
	word, rest := nextArg(line)
	name, ok := canonical[strings.ToLower(word)]
	if !ok {
		return "", "", false
	}
	return name, rest, true
}

func (h *Handler) handle(ctx context.Context, m chat.Message, name, rest string) {
	h.metrics.IncCommand(name)
	var err error
	switch name {
	case "products":
		err = h.handleProducts(ctx, m)
	case "createrolesync":
		err = h.handleCreateRoleSync(ctx, m, rest)
	case "removerolesync":
		err = h.handleRemoveRoleSync(ctx, m, rest)
	case "createsyncmessage":
		err = h.handleCreateSyncMessage(ctx, m, rest)
	case "setsyncmessage":
		err = h.handleSetSyncMessage(ctx, m, rest)
	}
	if err != nil {
		h.logger.Error("command failed",
			"command", name,
			"guild_id", m.GuildID,
			"channel_id", m.ChannelID,
			"error", err,
		)
	}
}

func (h *Handler) handleProducts(ctx context.Context, m chat.Message) error {
	products, err := h.registry.Products(ctx, h.registryToken)
	if err != nil {
		h.metrics.IncRegistryLookupError()
		h.reply(ctx, m, "Sorry, the product registry is unavailable right now.")
		return err
	}
	if len(products) == 0 {
		return h.replyErr(ctx, m, "The product registry has no products.")
	}
	var b strings.Builder
	b.WriteString("**Available Products**")
	for _, p := range products {
		b.WriteString("\n" + p.Name + " `" + p.ID + "`")
	}
	return h.replyErr(ctx, m, b.String())
}

func (h *Handler) handleCreateRoleSync(ctx context.Context, m chat.Message, rest string) error {
	roleArg, rest := nextArg(rest)
	productID, rest := nextArg(rest)
	anchorID, _ := nextArg(rest)
	roleID, ok := parseRoleID(roleArg)
	if !ok || productID == "" {
		return h.replyErr(ctx, m, "Usage: "+h.prefix+"createrolesync <role> <productId> [messageId]")
	}

	p, err := h.links.Register(ctx, m.GuildID, roleID, productID, anchorID)
	var lookupErr *synclink.ExternalLookupError
	switch {
	case errors.As(err, &lookupErr):
		h.metrics.IncRegistryLookupError()
		return h.replyErr(ctx, m, "Sorry, I couldn't find any products matching that ID.")
	case errors.Is(err, synclink.ErrDuplicate):
		return h.replyErr(ctx, m, fmt.Sprintf("`%s` is already registered for this guild.", productID))
	case err != nil:
		h.reply(ctx, m, "Something went wrong while registering the product. Please try again.")
		return err
	}
	return h.replyErr(ctx, m, fmt.Sprintf("Successfully added `%s` to the syncing service!", p.DisplayName))
}

func (h *Handler) handleRemoveRoleSync(ctx context.Context, m chat.Message, rest string) error {
	token, _ := nextArg(rest)
	if token == "" {
		return h.replyErr(ctx, m, "Usage: "+h.prefix+"removerolesync <productIdOrName>")
	}
	p, ok := h.resolveOrReply(ctx, m, token)
	if !ok {
		return nil
	}

	// Arm the gate before the prompt so a reply racing the send is not lost.
	gate := h.gate.Register(m.ChannelID, func(r chat.Message) bool {
		if r.AuthorID != m.AuthorID {
			return false
		}
		c := strings.ToLower(strings.TrimSpace(r.Content))
		return c == "yes" || c == "no"
	})

	prompt := fmt.Sprintf("Are you sure you want to remove `%s` from the syncing service? Reply yes/no", p.DisplayName)
	if err := h.replyErr(ctx, m, prompt); err != nil {
		gate.Cancel()
		return err
	}

	answer, err := gate.Wait(ctx, h.confirmTimeout)
	switch {
	case errors.Is(err, await.ErrTimeout):
		h.metrics.IncConfirmation(metrics.ConfirmationTimeout)
		return h.replyErr(ctx, m, fmt.Sprintf("Timed out waiting for a reply. `%s` was not removed.", p.DisplayName))
	case err != nil:
		// Context cancellation: the invocation is gone, nobody to reply to.
		return err
	}

	if !strings.EqualFold(strings.TrimSpace(answer.Content), "yes") {
		h.metrics.IncConfirmation(metrics.ConfirmationDeclined)
		return h.replyErr(ctx, m, fmt.Sprintf("Cancelled. `%s` was not removed.", p.DisplayName))
	}

	h.metrics.IncConfirmation(metrics.ConfirmationConfirmed)
	if err := h.links.Remove(ctx, p); err != nil {
		h.reply(ctx, m, "Something went wrong while removing the product. Please try again.")
		return err
	}
	return h.replyErr(ctx, m, fmt.Sprintf("Successfully removed `%s` from the syncing service!", p.DisplayName))
}

func (h *Handler) handleCreateSyncMessage(ctx context.Context, m chat.Message, rest string) error {
	token, rest := nextArg(rest)
	channelArg, body := nextArg(rest)
	channelID, ok := parseChannelID(channelArg)
	if token == "" || !ok {
		return h.replyErr(ctx, m, "Usage: "+h.prefix+"createsyncmessage <productIdOrName> <channel> [message]")
	}
	p, found := h.resolveOrReply(ctx, m, token)
	if !found {
		return nil
	}

	messageID, err := h.publisher.Publish(ctx, p, channelID, body)
	var inconsistency *syncmsg.InconsistencyError
	switch {
	case errors.As(err, &inconsistency):
		// The card is already visible; tell the administrator how to finish
		// the half-applied publish instead of hiding it.
		h.reply(ctx, m, fmt.Sprintf(
			"Warning: I posted the sync message in %s but could not link it to `%s`. Run `%ssetsyncmessage %s %s` to finish linking.",
			chat.MentionChannel(channelID), p.DisplayName, h.prefix, p.RegistryID, messageID))
		return err
	case err != nil:
		h.reply(ctx, m, "Something went wrong while creating the sync message. Please try again.")
		return err
	}

	h.metrics.IncSyncMessagePublished()
	return h.replyErr(ctx, m, fmt.Sprintf("Sync message created in %s for `%s`.",
		chat.MentionChannel(channelID), p.DisplayName))
}

func (h *Handler) handleSetSyncMessage(ctx context.Context, m chat.Message, rest string) error {
	token, rest := nextArg(rest)
	messageID, _ := nextArg(rest)
	if token == "" || messageID == "" {
		return h.replyErr(ctx, m, "Usage: "+h.prefix+"setsyncmessage <productIdOrName> <messageId>")
	}
	p, found := h.resolveOrReply(ctx, m, token)
	if !found {
		return nil
	}

	if err := h.links.SetAnchorMessage(ctx, p, messageID); err != nil {
		h.reply(ctx, m, "Something went wrong while setting the sync message. Please try again.")
		return err
	}
	return h.replyErr(ctx, m, fmt.Sprintf("Now watching message `%s` for `%s`.", messageID, p.DisplayName))
}

// resolveOrReply resolves a product token, rendering not-found and ambiguity
// failures as user replies. Returns false when resolution did not produce
// exactly one record.
func (h *Handler) resolveOrReply(ctx context.Context, m chat.Message, token string) (*models.Product, bool) {
	p, err := h.resolver.Resolve(ctx, m.GuildID, token)
	if err == nil {
		return p, true
	}

	var ambiguous *resolver.AmbiguousError
	switch {
	case errors.As(err, &ambiguous):
		var b strings.Builder
		fmt.Fprintf(&b, "`%s` matches more than one product:", token)
		for _, c := range ambiguous.Candidates {
			b.WriteString("\n" + c.DisplayName + " `" + c.RegistryID + "`")
		}
		b.WriteString("\nPlease retry with the product ID.")
		h.reply(ctx, m, b.String())
	case errors.Is(err, sentinel.ErrNotFound):
		h.reply(ctx, m, fmt.Sprintf("I couldn't find a linked product matching `%s`.", token))
	default:
		h.logger.Error("product resolution failed", "guild_id", m.GuildID, "token", token, "error", err)
		h.reply(ctx, m, "Something went wrong while looking that product up. Please try again.")
	}
	return nil, false
}

// reply sends a user-facing message, logging delivery failures.
func (h *Handler) reply(ctx context.Context, m chat.Message, content string) {
	if err := h.replyErr(ctx, m, content); err != nil {
		h.logger.Error("reply failed", "channel_id", m.ChannelID, "error", err)
	}
}

func (h *Handler) replyErr(ctx context.Context, m chat.Message, content string) error {
	_, err := h.messenger.Send(ctx, m.ChannelID, content)
	return err
}
