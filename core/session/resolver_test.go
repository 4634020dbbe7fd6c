package session

import (
	"context"
	"testing"

	"github.com/mehradnfi/shadwbot/core/ledger"
)

func TestStateDerivation(t *testing.T) {
	store := ledger.NewStore(nil, ledger.NewDocument())
	r := NewResolver(store)
	ctx := context.Background()

	if got := r.StateOf("100"); got != StateUnregistered {
		t.Fatalf("unknown user state = %s, want unregistered", got)
	}

	if err := store.EnsureExists(ctx, "100"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if got := r.StateOf("100"); got != StateUnregistered {
		t.Fatalf("phoneless user state = %s, want unregistered", got)
	}
	if r.Registered("100") {
		t.Fatal("phoneless user must not be registered")
	}

	if err := store.RegisterPhone(ctx, "100", "+15550001"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := r.StateOf("100"); got != StateRegistered {
		t.Fatalf("state after contact = %s, want registered", got)
	}
	if !r.Registered("100") {
		t.Fatal("user with phone must be registered")
	}
}
