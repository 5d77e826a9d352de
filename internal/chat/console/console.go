// Package console adapts the chat capability to stdin/stdout for local
// development. Each input line becomes an inbound message from a fixed
// guild, channel, and author; outbound traffic is printed.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"rolesync/internal/chat"
)

// Adapter implements chat.Gateway and chat.Messenger over a reader/writer
// pair. Not for production; the real platform adapter lives outside this
// module and is injected at deploy time.
type Adapter struct {
	guildID   string
	channelID string
	authorID  string
	in        io.Reader

	mu   sync.Mutex
	out  io.Writer
	seq  int
	msgs int
}

func New(guildID, channelID, authorID string) *Adapter {
	return &Adapter{
		guildID:   guildID,
		channelID: channelID,
		authorID:  authorID,
		in:        os.Stdin,
		out:       os.Stdout,
	}
}

// Messages turns input lines into inbound messages. The channel closes when
// the input reaches EOF or ctx is cancelled.
func (a *Adapter) Messages(ctx context.Context) (<-chan chat.Message, error) {
	out := make(chan chat.Message)
	scanner := bufio.NewScanner(a.in)
	go func() {
		defer close(out)
		for scanner.Scan() {
			a.mu.Lock()
			a.msgs++
			id := "in-" + strconv.Itoa(a.msgs)
			a.mu.Unlock()
			m := chat.Message{
				ID:        id,
				GuildID:   a.guildID,
				ChannelID: a.channelID,
				AuthorID:  a.authorID,
				Content:   scanner.Text(),
			}
			select {
			case out <- m:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (a *Adapter) Send(_ context.Context, channelID, content string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq++
	id := "out-" + strconv.Itoa(a.seq)
	fmt.Fprintf(a.out, "[%s] %s\n", channelID, content)
	return id, nil
}

func (a *Adapter) SendCard(_ context.Context, channelID string, card chat.Card) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq++
	id := "out-" + strconv.Itoa(a.seq)
	fmt.Fprintf(a.out, "[%s] card: %s\n", channelID, card.Title)
	if card.Body != "" {
		fmt.Fprintf(a.out, "[%s]   %s\n", channelID, card.Body)
	}
	return id, nil
}

func (a *Adapter) React(_ context.Context, channelID, messageID, emoji string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.out, "[%s] react %s -> %s\n", channelID, emoji, messageID)
	return nil
}
