// Package session derives the user's registration state from the ledger.
// The state is never stored separately, so it cannot drift from the record.
package session

import (
	"errors"

	"github.com/mehradnfi/shadwbot/core/ledger"
)

// State is the registration state of a user.
//
// Transition table:
//
//	UNREGISTERED --contact shared--> REGISTERED
//	REGISTERED   --(no event)-----> REGISTERED (terminal)
//
// The transition fires exactly once; the ledger's write-once phone rule
// guards against any repeat.
type State string

const (
	// StateUnregistered means the user has not shared a phone yet.
	StateUnregistered State = "unregistered"
	// StateRegistered means the phone is set. Terminal.
	StateRegistered State = "registered"
)

// Resolver answers state and menu questions for handlers so they never
// inspect records directly.
type Resolver struct {
	store *ledger.Store
}

// NewResolver wraps the ledger store.
func NewResolver(store *ledger.Store) *Resolver {
	return &Resolver{store: store}
}

// StateOf derives the registration state of the user. A user the ledger has
// never seen is unregistered.
func (r *Resolver) StateOf(userID string) State {
	rec, err := r.store.Get(userID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return StateUnregistered
		}
		return StateUnregistered
	}
	if rec.Phone == "" {
		return StateUnregistered
	}
	return StateRegistered
}

// Registered reports whether the user completed phone registration.
func (r *Resolver) Registered(userID string) bool {
	return r.StateOf(userID) == StateRegistered
}
