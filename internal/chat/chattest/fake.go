// Package chattest provides an in-memory chat platform for tests.
package chattest

import (
	"context"
	"fmt"
	"sync"

	"rolesync/internal/chat"
)

// Sent records one outbound message.
type Sent struct {
	MessageID string
	ChannelID string
	Content   string
	Card      *chat.Card
}

// Reaction records one outbound reaction.
type Reaction struct {
	ChannelID string
	MessageID string
	Emoji     string
}

// Fake implements chat.Messenger and chat.Gateway against in-memory state.
// Deliver pushes inbound traffic; Sent and Reactions expose what went out.
type Fake struct {
	mu        sync.Mutex
	inbox     chan chat.Message
	sent      []Sent
	reactions []Reaction
	nextID    int

	// SendErr, when set, is returned by the next Send/SendCard call.
	SendErr error
	// ReactErr, when set, is returned by the next React call.
	ReactErr error
}

func New() *Fake {
	return &Fake{inbox: make(chan chat.Message, 64)}
}

func (f *Fake) Messages(_ context.Context) (<-chan chat.Message, error) {
	return f.inbox, nil
}

// Deliver feeds one inbound message to the gateway channel.
func (f *Fake) Deliver(m chat.Message) {
	f.inbox <- m
}

func (f *Fake) Send(_ context.Context, channelID, content string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.SendErr; err != nil {
		f.SendErr = nil
		return "", err
	}
	id := f.newID()
	f.sent = append(f.sent, Sent{MessageID: id, ChannelID: channelID, Content: content})
	return id, nil
}

func (f *Fake) SendCard(_ context.Context, channelID string, card chat.Card) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.SendErr; err != nil {
		f.SendErr = nil
		return "", err
	}
	id := f.newID()
	c := card
	f.sent = append(f.sent, Sent{MessageID: id, ChannelID: channelID, Card: &c})
	return id, nil
}

func (f *Fake) React(_ context.Context, channelID, messageID, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ReactErr; err != nil {
		f.ReactErr = nil
		return err
	}
	f.reactions = append(f.reactions, Reaction{ChannelID: channelID, MessageID: messageID, Emoji: emoji})
	return nil
}

// Sent returns a snapshot of everything posted so far.
func (f *Fake) Sent() []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Sent{}, f.sent...)
}

// LastSent returns the most recent outbound message, or false if none exists.
func (f *Fake) LastSent() (Sent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return Sent{}, false
	}
	return f.sent[len(f.sent)-1], true
}

// Reactions returns a snapshot of all reactions attached so far.
func (f *Fake) Reactions() []Reaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Reaction{}, f.reactions...)
}

func (f *Fake) newID() string {
	f.nextID++
	return fmt.Sprintf("msg-%d", f.nextID)
}
