package dispatch

import (
	"context"
	"errors"
	"testing"
)

func privateText(userID, text string) Event {
	return Event{
		ChatID:   1,
		UserID:   userID,
		ChatType: ChatPrivate,
		Kind:     KindText,
		Payload:  text,
	}
}

func reply(text string) Handler {
	return func(ctx context.Context, ev Event) ([]Reply, error) {
		return []Reply{{ChatID: ev.ChatID, Text: text}}, nil
	}
}

func TestFirstMatchWins(t *testing.T) {
	d := New(Options{})
	d.Handle(
		Rule{Name: "first", Match: OnTextEquals("hello"), Handle: reply("one")},
		Rule{Name: "second", Match: Any(), Handle: reply("two")},
	)

	replies := d.Dispatch(context.Background(), privateText("100", "hello"))
	if len(replies) != 1 || replies[0].Text != "one" {
		t.Fatalf("replies = %+v, want the first matching rule", replies)
	}
}

func TestNonPrivateIgnored(t *testing.T) {
	d := New(Options{CatchAll: reply("fallback")})
	d.Handle(Rule{Name: "any", Match: Any(), Handle: reply("handled")})

	ev := privateText("100", "hello")
	ev.ChatType = ChatOther
	if replies := d.Dispatch(context.Background(), ev); replies != nil {
		t.Fatalf("non-private events must produce nothing, got %+v", replies)
	}
}

func TestAdminOnlyFallsThrough(t *testing.T) {
	d := New(Options{AdminID: "1"})
	d.Handle(
		Rule{Name: "admin_any", AdminOnly: true, Match: Any(), Handle: reply("admin")},
		Rule{Name: "plain", Match: Any(), Handle: reply("plain")},
	)

	replies := d.Dispatch(context.Background(), privateText("100", "x"))
	if len(replies) != 1 || replies[0].Text != "plain" {
		t.Fatalf("non-admin must fall past admin rules, got %+v", replies)
	}

	replies = d.Dispatch(context.Background(), privateText("1", "x"))
	if len(replies) != 1 || replies[0].Text != "admin" {
		t.Fatalf("admin must match admin rules, got %+v", replies)
	}
}

func TestCatchAllRuns(t *testing.T) {
	d := New(Options{CatchAll: reply("menu")})
	d.Handle(Rule{Name: "start", Match: OnCommand("/start"), Handle: reply("start")})

	replies := d.Dispatch(context.Background(), privateText("100", "gibberish"))
	if len(replies) != 1 || replies[0].Text != "menu" {
		t.Fatalf("unmatched event must hit the catch-all, got %+v", replies)
	}
}

func TestHandlerErrorSwallowed(t *testing.T) {
	d := New(Options{})
	d.Handle(Rule{
		Name:  "boom",
		Match: Any(),
		Handle: func(ctx context.Context, ev Event) ([]Reply, error) {
			return []Reply{{ChatID: ev.ChatID, Text: "partial"}}, errors.New("boom")
		},
	})

	replies := d.Dispatch(context.Background(), privateText("100", "x"))
	if len(replies) != 1 || replies[0].Text != "partial" {
		t.Fatalf("handler replies must still be delivered on error, got %+v", replies)
	}
}

func TestPredicates(t *testing.T) {
	start := Event{ChatType: ChatPrivate, Kind: KindCommand, Command: "/start", Payload: "ref"}
	if !OnCommand("/start")(start) {
		t.Fatal("OnCommand must match /start")
	}
	if OnCommand("/admin")(start) {
		t.Fatal("OnCommand must not match a different command")
	}

	text := Event{ChatType: ChatPrivate, Kind: KindText, Payload: "Balance"}
	if !OnTextEquals("Balance")(text) {
		t.Fatal("OnTextEquals must match exact text")
	}
	if OnTextEquals("Balance")(start) {
		t.Fatal("OnTextEquals must not match commands")
	}

	contact := Event{ChatType: ChatPrivate, Kind: KindContact, Payload: "+1555"}
	if !OnContact()(contact) {
		t.Fatal("OnContact must match contact events")
	}

	cb := Event{ChatType: ChatPrivate, Kind: KindCallback, Command: "admin_cancel"}
	if !OnCallback("admin_cancel")(cb) {
		t.Fatal("OnCallback must match the callback key")
	}
	if OnCallback("admin_broadcast")(cb) {
		t.Fatal("OnCallback must not match a different key")
	}
}

type stubCoded struct{}

func (stubCoded) Error() string { return "nope" }
func (stubCoded) Code() string  { return "already set" }

func TestDeriveErrorCode(t *testing.T) {
	if got := deriveErrorCode(stubCoded{}); got != "ALREADY_SET" {
		t.Fatalf("code = %q, want ALREADY_SET", got)
	}
	if got := deriveErrorCode(errors.New("plain")); got == "" {
		t.Fatal("plain error must derive a type-based code")
	}
}
