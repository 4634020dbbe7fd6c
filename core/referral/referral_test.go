package referral

import (
	"context"
	"testing"

	"github.com/mehradnfi/shadwbot/core/ledger"
)

func seed(t *testing.T, ids ...string) *ledger.Store {
	t.Helper()
	store := ledger.NewStore(nil, ledger.NewDocument())
	for _, id := range ids {
		if err := store.EnsureExists(context.Background(), id); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
	return store
}

func TestDecodeCode(t *testing.T) {
	g := NewGraph(seed(t), 0, "")
	if _, ok := g.DecodeCode(""); ok {
		t.Fatal("empty payload must not decode")
	}
	if _, ok := g.DecodeCode("   "); ok {
		t.Fatal("blank payload must not decode")
	}
	code, ok := g.DecodeCode(" 100 ")
	if !ok || code != "100" {
		t.Fatalf("decode = %q/%v, want 100/true", code, ok)
	}
}

func TestAttributeSilentSkips(t *testing.T) {
	store := seed(t, "100", "200")
	g := NewGraph(store, 10, "examplebot")
	ctx := context.Background()

	if !g.Attribute(ctx, "100", "200") {
		t.Fatal("valid attribution must succeed")
	}
	if g.Attribute(ctx, "100", "200") {
		t.Fatal("repeat attribution must be skipped")
	}
	if g.Attribute(ctx, "200", "200") {
		t.Fatal("self referral must be skipped")
	}
	if g.Attribute(ctx, "404", "200") {
		t.Fatal("unknown inviter must be skipped")
	}

	rec, _ := store.Get("200")
	if rec.Inviter != "100" {
		t.Fatalf("inviter = %q, want 100", rec.Inviter)
	}
}

func TestStatsAndLink(t *testing.T) {
	store := seed(t, "100", "200", "300")
	g := NewGraph(store, 25, "@examplebot")
	ctx := context.Background()

	g.Attribute(ctx, "100", "200")
	g.Attribute(ctx, "100", "300")

	invited, reward := g.Stats("100")
	if invited != 2 || reward != 50 {
		t.Fatalf("stats = %d/%d, want 2/50", invited, reward)
	}
	if invited, reward = g.Stats("404"); invited != 0 || reward != 0 {
		t.Fatalf("unknown user stats = %d/%d, want zeros", invited, reward)
	}

	if got := g.Link("100"); got != "https://t.me/examplebot?start=100" {
		t.Fatalf("link = %q", got)
	}
}
