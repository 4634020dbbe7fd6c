package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

// ErrOutboxUnbound is returned when a send is attempted before the bot client
// exists.
var ErrOutboxUnbound = errors.New("telegram: outbox not bound to a bot")

// Outbox delivers broadcast payloads to individual users through the bot
// client. The client is bound late, once the bot has been constructed.
type Outbox struct {
	bot atomic.Pointer[tele.Bot]
}

// NewOutbox returns an unbound outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

// Bind attaches the live bot client. Safe to call from lifecycle hooks while
// sends are in flight.
func (o *Outbox) Bind(b *tele.Bot) {
	o.bot.Store(b)
}

// Send delivers one text message to the user, honoring the context deadline.
func (o *Outbox) Send(ctx context.Context, userID, text string) error {
	bot := o.bot.Load()
	if bot == nil {
		return ErrOutboxUnbound
	}
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: bad recipient id %q: %w", userID, err)
	}

	done := make(chan error, 1)
	go func() {
		_, sendErr := bot.Send(&tele.User{ID: id}, text)
		done <- sendErr
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
