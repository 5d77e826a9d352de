// Package await implements the single-shot, predicate-filtered wait used to
// gate destructive registry mutations on an explicit human reply.
package await

import (
	"context"
	"errors"
	"sync"
	"time"

	"rolesync/internal/chat"
)

// ErrTimeout reports that no matching reply arrived before the deadline.
// Callers must treat it as an absence signal and abort the gated operation.
var ErrTimeout = errors.New("await: no reply before deadline")

// Predicate decides whether an inbound message satisfies a waiting gate.
// Predicates run under the dispatcher lock and must not block.
type Predicate func(chat.Message) bool

// Dispatcher routes inbound conversational traffic to armed gates. Each gate
// is single-shot: the first matching message consumes it. Traffic that
// matches no gate is discarded, never buffered, so a stale message can never
// satisfy a gate armed later.
type Dispatcher struct {
	mu    sync.Mutex
	gates map[*Gate]struct{}
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{gates: make(map[*Gate]struct{})}
}

// Gate is one armed wait. Arm it with Register before making the prompt
// visible, so a reply arriving immediately after the prompt cannot slip past;
// then block on Wait.
type Gate struct {
	dispatcher *Dispatcher
	channelID  string
	pred       Predicate
	reply      chan chat.Message
}

// Register arms a gate for the given channel. The caller must finish with
// exactly one of Wait or Cancel.
func (d *Dispatcher) Register(channelID string, pred Predicate) *Gate {
	g := &Gate{
		dispatcher: d,
		channelID:  channelID,
		pred:       pred,
		reply:      make(chan chat.Message, 1),
	}
	d.mu.Lock()
	d.gates[g] = struct{}{}
	d.mu.Unlock()
	return g
}

// Observe offers one inbound message to the armed gates. It reports whether a
// gate consumed the message, so the caller can keep consumed replies out of
// command dispatch.
func (d *Dispatcher) Observe(m chat.Message) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for g := range d.gates {
		if g.channelID != m.ChannelID || !g.pred(m) {
			continue
		}
		delete(d.gates, g)
		g.reply <- m
		return true
	}
	return false
}

// Wait suspends until a matching message arrives, the timeout elapses, or ctx
// is cancelled. Timeout returns ErrTimeout; cancellation returns ctx.Err().
// Either way the gate is disarmed before returning, so an abandoned wait
// never leaks as permanently active.
func (g *Gate) Wait(ctx context.Context, timeout time.Duration) (chat.Message, error) {
	defer g.Cancel()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case m := <-g.reply:
		return m, nil
	case <-timer.C:
		return chat.Message{}, ErrTimeout
	case <-ctx.Done():
		return chat.Message{}, ctx.Err()
	}
}

// Cancel disarms the gate without waiting. Safe to call after Wait.
func (g *Gate) Cancel() {
	g.dispatcher.mu.Lock()
	delete(g.dispatcher.gates, g)
	g.dispatcher.mu.Unlock()
}
