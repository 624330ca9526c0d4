package state

import "sync"

type memoryManager struct {
	mu     sync.RWMutex
	states map[int64]State
}

// NewMemoryManager constructs an in-memory Manager. States are lost on restart.
func NewMemoryManager() Manager {
	return &memoryManager{
		states: make(map[int64]State),
	}
}

// SetState sets the state for the given user. StateIdle drops the entry.
func (m *memoryManager) SetState(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st == "" || st == StateIdle {
		delete(m.states, userID)
		return
	}
	m.states[userID] = st
}

// GetState returns the current state of a user, or StateIdle if none exists.
func (m *memoryManager) GetState(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if st, ok := m.states[userID]; ok {
		return st
	}
	return StateIdle
}

// ClearState resets the user to idle.
func (m *memoryManager) ClearState(userID int64) {
	m.SetState(userID, StateIdle)
}

// InProgress reports whether the user has an active state other than idle.
func (m *memoryManager) InProgress(userID int64) bool {
	return m.GetState(userID) != StateIdle
}
