package state

import "testing"

func TestMemoryManager(t *testing.T) {
	m := NewMemoryManager()

	if m.HasState("1") {
		t.Fatal("fresh manager must hold no state")
	}
	if got := m.GetState("1"); got != StateIdle {
		t.Fatalf("missing entry = %q, want idle", got)
	}

	m.SetState("1", State("awaiting"))
	if !m.HasState("1") {
		t.Fatal("HasState must see the stored entry")
	}
	if got := m.GetState("1"); got != State("awaiting") {
		t.Fatalf("state = %q, want awaiting", got)
	}
	if m.HasState("2") {
		t.Fatal("state must be scoped per user")
	}

	m.ClearState("1")
	if m.HasState("1") {
		t.Fatal("ClearState must remove the entry")
	}
}
