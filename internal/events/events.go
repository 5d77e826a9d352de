// Package events publishes sync-link change notifications for the downstream
// reaction-grant processor. Delivery is best-effort: the registry record is
// the source of truth and the processor re-reads it on startup.
package events

import (
	"context"
	"time"
)

// Type labels a sync-link lifecycle transition.
type Type string

const (
	TypeLinkCreated  Type = "sync_link.created"
	TypeLinkAnchored Type = "sync_link.anchored"
	TypeLinkRemoved  Type = "sync_link.removed"
)

// Event is the wire record consumed by the grant processor.
type Event struct {
	ID             string    `json:"id"`
	Type           Type      `json:"type"`
	GuildID        string    `json:"guild_id"`
	RegistryID     string    `json:"registry_id"`
	RoleID         string    `json:"role_id"`
	WatchMessageID string    `json:"watch_message_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Publisher emits sync-link change events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}
