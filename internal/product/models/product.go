package models

import (
	"time"

	dErrors "rolesync/pkg/domain-errors"
)

// Product is the persisted link between an external purchasable product, a
// grantable role, and an optional anchor message.
//
// Invariants:
//   - (GuildID, RegistryID) uniquely identifies a record
//   - RegistryID is immutable once created
//   - DisplayName carries no uniqueness guarantee; resolution by name may be
//     ambiguous and the resolver surfaces that instead of guessing
//   - A record belongs to exactly one guild; there is no cross-guild sharing
//
// RoleID and WatchMessageID reference external platform state that can drift:
// the role or message may have been deleted out from under us. The subsystem
// does not re-validate them at write time; the downstream grant processor
// surfaces such drift at grant time.
type Product struct {
	GuildID         string    `json:"guild_id"`
	RegistryID      string    `json:"registry_id"`
	DisplayName     string    `json:"display_name"`
	PreviewImageURL string    `json:"preview_image_url,omitempty"`
	ShortURL        string    `json:"short_url,omitempty"`
	RoleID          string    `json:"role_id"`
	WatchMessageID  string    `json:"watch_message_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// New constructs a Product, validating the identity fields. WatchMessageID
// starts empty (unanchored) unless the caller supplies a pre-existing anchor.
func New(guildID, registryID, displayName, roleID string, createdAt time.Time) (*Product, error) {
	if guildID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "guild id is required")
	}
	if registryID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "registry id is required")
	}
	if roleID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "role id is required")
	}
	return &Product{
		GuildID:     guildID,
		RegistryID:  registryID,
		DisplayName: displayName,
		RoleID:      roleID,
		CreatedAt:   createdAt,
	}, nil
}

// Anchored reports whether a sync message is currently watched for this
// product. Unanchored and anchored are both valid resting states; an anchor
// only changes through SetAnchor (re-publication or an explicit set).
func (p *Product) Anchored() bool {
	return p.WatchMessageID != ""
}

// SetAnchor points the record at the message whose reactions the grant
// processor watches. Overwrites any previous anchor; idempotent.
func (p *Product) SetAnchor(messageID string) {
	p.WatchMessageID = messageID
}
