package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mehradnfi/shadwbot/core/dispatch"
	"github.com/mehradnfi/shadwbot/core/ledger"
	"github.com/mehradnfi/shadwbot/core/session"
)

// ensure lazily creates the sender's record so every later read sees one.
func (a *App) ensure(ctx context.Context, ev dispatch.Event) error {
	return a.store.EnsureExists(ctx, ev.UserID)
}

// menuReplies re-presents the menu matching the sender's current state.
func (a *App) menuReplies(ev dispatch.Event, text string) []dispatch.Reply {
	if a.resolver.StateOf(ev.UserID) == session.StateUnregistered {
		return []dispatch.Reply{{
			ChatID:   ev.ChatID,
			Text:     textAskContact,
			Keyboard: contactKeyboard(),
		}}
	}
	if text == "" {
		text = textMenuHint
	}
	return []dispatch.Reply{{
		ChatID:   ev.ChatID,
		Text:     text,
		Keyboard: mainKeyboard(a.dispatcher.IsAdmin(ev.UserID)),
	}}
}

func (a *App) handleStart(ctx context.Context, ev dispatch.Event) ([]dispatch.Reply, error) {
	if err := a.ensure(ctx, ev); err != nil {
		return []dispatch.Reply{{ChatID: ev.ChatID, Text: textCommitFailed}}, err
	}

	if code, ok := a.graph.DecodeCode(ev.Payload); ok {
		a.graph.Attribute(ctx, code, ev.UserID)
	}

	replies := []dispatch.Reply{{ChatID: ev.ChatID, Text: textWelcome}}
	return append(replies, a.menuReplies(ev, textRegistered)...), nil
}

func (a *App) handleContact(ctx context.Context, ev dispatch.Event) ([]dispatch.Reply, error) {
	if err := a.ensure(ctx, ev); err != nil {
		return []dispatch.Reply{{ChatID: ev.ChatID, Text: textCommitFailed}}, err
	}

	if ev.ContactOwner != "" && ev.ContactOwner != ev.UserID {
		return []dispatch.Reply{{
			ChatID:   ev.ChatID,
			Text:     textForeignContact,
			Keyboard: contactKeyboard(),
		}}, nil
	}

	err := a.store.RegisterPhone(ctx, ev.UserID, ev.Payload)
	switch {
	case err == nil:
		return a.menuReplies(ev, textRegistered), nil
	case errors.Is(err, ledger.ErrAlreadySet):
		// Write-once: the first phone stays, the repeat is routine.
		return a.menuReplies(ev, textAlreadyRegistered), nil
	default:
		return []dispatch.Reply{{ChatID: ev.ChatID, Text: textCommitFailed}}, err
	}
}

func (a *App) handleBalance(ctx context.Context, ev dispatch.Event) ([]dispatch.Reply, error) {
	if err := a.ensure(ctx, ev); err != nil {
		return []dispatch.Reply{{ChatID: ev.ChatID, Text: textCommitFailed}}, err
	}
	if !a.resolver.Registered(ev.UserID) {
		return a.menuReplies(ev, ""), nil
	}

	rec, err := a.store.Get(ev.UserID)
	if err != nil {
		return a.menuReplies(ev, ""), err
	}
	return []dispatch.Reply{{
		ChatID:   ev.ChatID,
		Text:     fmt.Sprintf("Your balance: %d", rec.Balance),
		Keyboard: mainKeyboard(a.dispatcher.IsAdmin(ev.UserID)),
	}}, nil
}

func (a *App) handleServices(ctx context.Context, ev dispatch.Event) ([]dispatch.Reply, error) {
	if err := a.ensure(ctx, ev); err != nil {
		return []dispatch.Reply{{ChatID: ev.ChatID, Text: textCommitFailed}}, err
	}
	if !a.resolver.Registered(ev.UserID) {
		return a.menuReplies(ev, ""), nil
	}

	rec, err := a.store.Get(ev.UserID)
	if err != nil {
		return a.menuReplies(ev, ""), err
	}
	text := textNoServices
	if len(rec.Active) > 0 {
		text = "Active services:\n• " + strings.Join(rec.Active, "\n• ")
	}
	return []dispatch.Reply{{
		ChatID:   ev.ChatID,
		Text:     text,
		Keyboard: mainKeyboard(a.dispatcher.IsAdmin(ev.UserID)),
	}}, nil
}

func (a *App) handleInvite(ctx context.Context, ev dispatch.Event) ([]dispatch.Reply, error) {
	if err := a.ensure(ctx, ev); err != nil {
		return []dispatch.Reply{{ChatID: ev.ChatID, Text: textCommitFailed}}, err
	}

	invited, reward := a.graph.Stats(ev.UserID)
	text := fmt.Sprintf(
		"Share your personal link to invite friends:\n%s\n\nInvited so far: %d\nProjected reward: %d",
		a.graph.Link(ev.UserID), invited, reward,
	)
	return []dispatch.Reply{{ChatID: ev.ChatID, Text: text}}, nil
}

func (a *App) handleAdmin(ctx context.Context, ev dispatch.Event) ([]dispatch.Reply, error) {
	if err := a.ensure(ctx, ev); err != nil {
		return []dispatch.Reply{{ChatID: ev.ChatID, Text: textCommitFailed}}, err
	}
	return []dispatch.Reply{{
		ChatID:   ev.ChatID,
		Text:     textAdminPanel,
		Keyboard: adminKeyboard(),
	}}, nil
}

func (a *App) handleAdminBroadcast(ctx context.Context, ev dispatch.Event) ([]dispatch.Reply, error) {
	a.controller.Arm(ctx, ev.UserID)
	return []dispatch.Reply{{ChatID: ev.ChatID, Text: textAdminBroadcastArmed}}, nil
}

func (a *App) handleAdminCancel(ctx context.Context, ev dispatch.Event) ([]dispatch.Reply, error) {
	a.controller.Disarm(ev.UserID)
	return []dispatch.Reply{{ChatID: ev.ChatID, Text: textAdminCancelled}}, nil
}

// handleBroadcastPayload consumes the admin's pending message, runs the
// fan-out, and acknowledges exactly once.
func (a *App) handleBroadcastPayload(ctx context.Context, ev dispatch.Event) ([]dispatch.Reply, error) {
	summary := a.controller.Run(ctx, ev.UserID, broadcastPayload(ev))
	ack := fmt.Sprintf("Broadcast finished: %d sent, %d failed (of %d recipients).",
		summary.Sent, summary.Failed, summary.Recipients)
	return []dispatch.Reply{{ChatID: ev.ChatID, Text: ack}}, nil
}

// broadcastPayload renders any consumed message kind back into plain text.
func broadcastPayload(ev dispatch.Event) string {
	if ev.Kind == dispatch.KindCommand {
		return strings.TrimSpace(ev.Command + " " + ev.Payload)
	}
	return ev.Payload
}

// handleFallback is the catch-all: unmatched events re-present the menu.
func (a *App) handleFallback(ctx context.Context, ev dispatch.Event) ([]dispatch.Reply, error) {
	if err := a.ensure(ctx, ev); err != nil {
		return []dispatch.Reply{{ChatID: ev.ChatID, Text: textCommitFailed}}, err
	}
	return a.menuReplies(ev, ""), nil
}
