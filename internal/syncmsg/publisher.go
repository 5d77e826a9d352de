// Package syncmsg composes and posts the anchor message whose reactions the
// downstream grant processor watches.
package syncmsg

import (
	"context"
	"fmt"
	"log/slog"

	"rolesync/internal/chat"
	"rolesync/internal/product/models"
)

// SeedReaction is the single reaction attached to a fresh sync message so
// users have a signal to mirror.
const SeedReaction = "\U0001F44D"

// LinkWriter is the slice of the sync link manager the publisher needs.
type LinkWriter interface {
	SetAnchorMessage(ctx context.Context, p *models.Product, messageID string) error
}

// InconsistencyError reports a posted sync message whose anchor write failed:
// the message is visible in the channel but the record does not watch it.
// Posting is non-reversible from here, so the caller must surface the orphan
// to the administrator instead of dropping it.
type InconsistencyError struct {
	ChannelID string
	MessageID string
	Err       error
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("sync message %s posted in channel %s but anchor write failed: %v", e.MessageID, e.ChannelID, e.Err)
}

func (e *InconsistencyError) Unwrap() error {
	return e.Err
}

// Publisher posts anchor messages and registers them with the link manager.
type Publisher struct {
	messenger chat.Messenger
	links     LinkWriter
	logger    *slog.Logger
}

func New(messenger chat.Messenger, links LinkWriter, logger *slog.Logger) *Publisher {
	return &Publisher{messenger: messenger, links: links, logger: logger}
}

// Publish posts the rich card for p in channelID, seeds one reaction, and
// anchors the record to the new message. body may be empty; a prompt naming
// the mentioned role is generated then.
//
// The anchor write is retried once before giving up, since the posted message
// cannot be taken back; a persistent failure is returned as an
// InconsistencyError carrying the orphaned message id.
func (pub *Publisher) Publish(ctx context.Context, p *models.Product, channelID, body string) (string, error) {
	if body == "" {
		body = fmt.Sprintf(
			"If you would like to sync your purchase of this product for the %s role, add a reaction to this message!",
			chat.MentionRole(p.RoleID),
		)
	}
	card := chat.Card{
		Title:        p.DisplayName,
		ThumbnailURL: p.PreviewImageURL,
		URL:          p.ShortURL,
		Body:         body,
	}

	messageID, err := pub.messenger.SendCard(ctx, channelID, card)
	if err != nil {
		return "", fmt.Errorf("post sync message: %w", err)
	}

	if err := pub.messenger.React(ctx, channelID, messageID, SeedReaction); err != nil {
		// The seed is a usability hint, not a correctness requirement; the
		// grant processor watches all reactions on the anchor.
		pub.logger.Warn("seed reaction failed",
			"channel_id", channelID,
			"message_id", messageID,
			"error", err,
		)
	}

	if err := pub.links.SetAnchorMessage(ctx, p, messageID); err != nil {
		pub.logger.Warn("anchor write failed, retrying once",
			"channel_id", channelID,
			"message_id", messageID,
			"error", err,
		)
		if err := pub.links.SetAnchorMessage(ctx, p, messageID); err != nil {
			return messageID, &InconsistencyError{ChannelID: channelID, MessageID: messageID, Err: err}
		}
	}
	return messageID, nil
}
