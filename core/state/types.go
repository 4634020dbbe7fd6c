// Package state tracks short-lived conversation state that is not part of
// the durable ledger, such as the admin's pending-broadcast flag. Entries are
// keyed by user id and always cleared explicitly.
package state

// State identifies a conversation step a user is currently in.
type State string

// StateIdle indicates there is no active conversation step for the user.
const StateIdle State = "idle"

// Manager stores and transitions per-user conversation state.
type Manager interface {
	// SetState moves the user into st.
	SetState(userID string, st State)
	// GetState returns the current state, or StateIdle when none is set.
	GetState(userID string) State
	// HasState reports whether the user has an active state other than idle.
	HasState(userID string) bool
	// ClearState resets the user's state to idle.
	ClearState(userID string)
}
