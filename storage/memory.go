// Package storage provides reference backends for the stable engine's
// persistence boundary. The in-memory backend is used by tests and the
// simulation binary; production hosts supply their own store.
package storage

import (
	"sync"

	"stablecore/native/stable"
)

// Memory is an in-memory stable.StateStore. Records are cloned on the way
// in and out so an aborted operation can never leak partial mutations back
// into the store, and reads within one operation observe prior writes.
type Memory struct {
	mu    sync.RWMutex
	state *stable.State
	users map[string]*stable.UserAccount
}

// NewMemory constructs an empty store.
func NewMemory() *Memory {
	return &Memory{users: make(map[string]*stable.UserAccount)}
}

// GetState returns a copy of the singleton state, or nil when nothing has
// been stored yet.
func (m *Memory) GetState() (*stable.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone(), nil
}

// PutState replaces the singleton state.
func (m *Memory) PutState(s *stable.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s.Clone()
	return nil
}

// GetUserAccount returns a copy of the record for addr, or nil when the
// depositor has never been seen.
func (m *Memory) GetUserAccount(addr string) (*stable.UserAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[addr].Clone(), nil
}

// PutUserAccount upserts the record keyed by its address.
func (m *Memory) PutUserAccount(u *stable.UserAccount) error {
	if u == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.Address] = u.Clone()
	return nil
}
