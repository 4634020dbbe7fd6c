package telegram

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/mehradnfi/shadwbot/core/dispatch"
	tghelpers "github.com/mehradnfi/shadwbot/core/telegram/helpers"
)

// Binder translates telebot updates into dispatch events and delivers the
// resulting replies back through the asynchronous sender.
type Binder struct {
	dispatcher *dispatch.Dispatcher
}

// NewBinder wires a binder around the routing table.
func NewBinder(d *dispatch.Dispatcher) *Binder {
	return &Binder{dispatcher: d}
}

// Routes returns the telebot endpoints the binder listens on. Slash commands
// not registered here arrive through the text endpoint and are classified
// there, so the routing table still sees them as commands.
func (b *Binder) Routes() []Route {
	return []Route{
		{Endpoint: "/start", Handler: b.onStart},
		{Endpoint: tele.OnText, Handler: b.onText},
		{Endpoint: tele.OnContact, Handler: b.onContact},
		{Endpoint: tele.OnCallback, Handler: b.onCallback},
	}
}

func (b *Binder) onStart(c tele.Context) error {
	ev := baseEvent(c)
	ev.Kind = dispatch.KindCommand
	ev.Command = "/start"
	if m := c.Message(); m != nil {
		ev.Payload = strings.TrimSpace(m.Payload)
	}
	return b.dispatch(c, ev)
}

func (b *Binder) onText(c tele.Context) error {
	ev := baseEvent(c)
	text := c.Text()
	if strings.HasPrefix(text, "/") {
		ev.Kind = dispatch.KindCommand
		cmd, payload, _ := strings.Cut(text, " ")
		ev.Command = cmd
		ev.Payload = strings.TrimSpace(payload)
	} else {
		ev.Kind = dispatch.KindText
		ev.Payload = text
	}
	return b.dispatch(c, ev)
}

func (b *Binder) onContact(c tele.Context) error {
	m := c.Message()
	if m == nil || m.Contact == nil {
		return nil
	}
	ev := baseEvent(c)
	ev.Kind = dispatch.KindContact
	ev.Payload = m.Contact.PhoneNumber
	if m.Contact.UserID != 0 {
		ev.ContactOwner = strconv.FormatInt(m.Contact.UserID, 10)
	}
	return b.dispatch(c, ev)
}

func (b *Binder) onCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	ev := baseEvent(c)
	ev.Kind = dispatch.KindCallback
	ev.Command, ev.Payload = callbackKey(cb)

	// Ack first so the client stops the spinner even if delivery is slow.
	_ = c.Respond()
	return b.dispatch(c, ev)
}

func (b *Binder) dispatch(c tele.Context, ev dispatch.Event) error {
	ctx := tghelpers.BuildContext(c)
	for _, reply := range b.dispatcher.Dispatch(ctx, ev) {
		opts := &tele.SendOptions{ReplyMarkup: buildMarkup(reply.Keyboard)}
		if reply.Format == dispatch.FormatMarkdown {
			opts.ParseMode = tele.ModeMarkdown
		}
		if err := tghelpers.SendText(c, reply.Text, opts); err != nil {
			return err
		}
	}
	return nil
}

func baseEvent(c tele.Context) dispatch.Event {
	ev := dispatch.Event{ChatType: dispatch.ChatOther}
	if chat := c.Chat(); chat != nil {
		ev.ChatID = chat.ID
		if chat.Type == tele.ChatPrivate {
			ev.ChatType = dispatch.ChatPrivate
		}
	}
	if user := c.Sender(); user != nil {
		ev.UserID = strconv.FormatInt(user.ID, 10)
	}
	return ev
}

// callbackKey extracts the button key and payload. Telebot splits unique-key
// callbacks before handler dispatch; raw data is parsed as a fallback.
func callbackKey(cb *tele.Callback) (string, string) {
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	key, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(key), payload
}

// buildMarkup renders a transport-neutral keyboard into telebot markup.
func buildMarkup(kb *dispatch.Keyboard) *tele.ReplyMarkup {
	if kb == nil {
		return nil
	}
	rm := &tele.ReplyMarkup{ResizeKeyboard: true}

	switch {
	case kb.Remove:
		rm.RemoveKeyboard = true
	case kb.RequestContact:
		rm.OneTimeKeyboard = true
		rm.Reply(rm.Row(rm.Contact(kb.ContactLabel)))
	case len(kb.Buttons) > 0:
		rows := make([]tele.Row, 0, len(kb.Buttons))
		for _, labels := range kb.Buttons {
			btns := make([]tele.Btn, 0, len(labels))
			for _, label := range labels {
				btns = append(btns, rm.Text(label))
			}
			rows = append(rows, rm.Row(btns...))
		}
		rm.Reply(rows...)
	case len(kb.Inline) > 0:
		rows := make([]tele.Row, 0, len(kb.Inline))
		for _, row := range kb.Inline {
			btns := make([]tele.Btn, 0, len(row))
			for _, btn := range row {
				btns = append(btns, rm.Data(btn.Text, btn.Key, btn.Data))
			}
			rows = append(rows, rm.Row(btns...))
		}
		rm.Inline(rows...)
	default:
		return nil
	}
	return rm
}
