package state

import "sync"

type memoryManager struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemoryManager constructs an in-memory Manager. Conversation state is
// ephemeral; a restart drops pending steps without touching the ledger.
func NewMemoryManager() Manager {
	return &memoryManager{states: make(map[string]State)}
}

// SetState moves the user into st, creating the entry if necessary.
func (m *memoryManager) SetState(userID string, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st == StateIdle {
		delete(m.states, userID)
		return
	}
	m.states[userID] = st
}

// GetState returns the current state of a user, or StateIdle if none exists.
func (m *memoryManager) GetState(userID string) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if st, ok := m.states[userID]; ok {
		return st
	}
	return StateIdle
}

// HasState checks if a user has an active state other than idle.
func (m *memoryManager) HasState(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[userID]
	return ok && st != StateIdle
}

// ClearState resets the state to idle for a user.
func (m *memoryManager) ClearState(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
}
