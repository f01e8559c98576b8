// Package cursor tracks the next-page token per (account, timeline) pair.
// Tokens are opaque: the max-id style token of the REST backend and the
// forward cursor of the DID-addressed backend are stored and replayed
// verbatim, never interpreted.
package cursor

import (
	"sync"

	"github.com/feedplex/feedplex/internal/store"
)

// Manager keeps an in-memory fast path over the persisted cursor records so
// pagination survives a restart without a storage read on every fetch.
type Manager struct {
	mu          sync.Mutex
	store       *store.Store
	mem         map[string]memState
	networkOnly map[string]bool
}

type memState struct {
	rec store.CursorRecord
	// fetched distinguishes "end of feed" (rec.End) from "never fetched".
	fetched bool
	// loaded marks that persistent storage has been consulted this session.
	loaded bool
}

// NewManager creates a manager. networkOnly lists timelines backed by
// server-internal pagination that must never be persisted (their tokens are
// only valid within one session).
func NewManager(st *store.Store, networkOnly []string) *Manager {
	no := make(map[string]bool, len(networkOnly))
	for _, t := range networkOnly {
		no[t] = true
	}
	return &Manager{store: st, mem: make(map[string]memState), networkOnly: no}
}

func memKey(accountID, timeline string) string {
	return accountID + "\x00" + timeline
}

// NetworkOnly reports whether a timeline's cursor must not be persisted.
func (m *Manager) NetworkOnly(timeline string) bool {
	return m.networkOnly[timeline]
}

// Get returns the stored token for (account, timeline). fetched=false means
// the pair has never been fetched; fetched=true with an empty token means the
// feed is exhausted.
func (m *Manager) Get(accountID, timeline string) (token string, fetched bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.load(accountID, timeline)
	if err != nil {
		return "", false, err
	}
	if !st.fetched {
		return "", false, nil
	}
	return st.rec.Token, true, nil
}

// Set records the next-page token from a fetch. An empty token marks end of
// feed. Both memory and persistent storage are written, except for
// network-only timelines which stay memory-resident.
func (m *Manager) Set(accountID, timeline, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := store.CursorRecord{Token: token, End: token == ""}
	m.mem[memKey(accountID, timeline)] = memState{rec: rec, fetched: true, loaded: true}

	if m.networkOnly[timeline] {
		return nil
	}
	return m.store.PutCursor(accountID, timeline, rec)
}

// HasMore reports whether another page may exist: true until a fetch has
// returned an empty token.
func (m *Manager) HasMore(accountID, timeline string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.load(accountID, timeline)
	if err != nil {
		return false, err
	}
	if !st.fetched {
		return true, nil
	}
	return !st.rec.End, nil
}

// Reset forgets the cursor, returning the pair to the never-fetched state.
func (m *Manager) Reset(accountID, timeline string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.mem, memKey(accountID, timeline))
	if m.networkOnly[timeline] {
		return nil
	}
	return m.store.DeleteCursor(accountID, timeline)
}

// load resolves memory state, falling back to persistent storage once per
// session on a cold miss. Caller holds the lock.
func (m *Manager) load(accountID, timeline string) (memState, error) {
	key := memKey(accountID, timeline)
	if st, ok := m.mem[key]; ok && st.loaded {
		return st, nil
	}
	if m.networkOnly[timeline] {
		st := memState{loaded: true}
		m.mem[key] = st
		return st, nil
	}
	rec, found, err := m.store.GetCursor(accountID, timeline)
	if err != nil {
		return memState{}, err
	}
	st := memState{rec: rec, fetched: found, loaded: true}
	m.mem[key] = st
	return st, nil
}
