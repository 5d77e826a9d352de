// Package chat defines the chat-platform capability consumed by the sync
// subsystem. The gateway connection, permission checks, and event fan-out are
// owned by the platform adapter; this package only carries the types and
// interfaces the core needs.
package chat

import "context"

// Message is one inbound conversational event. IDs are the platform's
// snowflake-style identifiers, carried as opaque strings.
type Message struct {
	ID        string
	GuildID   string
	ChannelID string
	AuthorID  string
	Content   string
}

// Card is the rich layout the sync publisher posts: a titled embed with a
// thumbnail, an outbound link, and a body.
type Card struct {
	Title        string
	ThumbnailURL string
	URL          string
	Body         string
}

// Messenger is the outbound half of the platform capability.
type Messenger interface {
	// Send posts plain text and returns the new message's id.
	Send(ctx context.Context, channelID, content string) (string, error)
	// SendCard posts a rich card and returns the new message's id.
	SendCard(ctx context.Context, channelID string, card Card) (string, error)
	// React attaches an emoji reaction to an existing message.
	React(ctx context.Context, channelID, messageID, emoji string) error
}

// Gateway delivers raw inbound traffic. Commands arriving here have already
// passed the platform's permission middleware.
type Gateway interface {
	Messages(ctx context.Context) (<-chan Message, error)
}

// MentionRole renders a role mention the platform understands.
func MentionRole(roleID string) string {
	return "<@&" + roleID + ">"
}

// MentionChannel renders a channel mention.
func MentionChannel(channelID string) string {
	return "<#" + channelID + ">"
}
