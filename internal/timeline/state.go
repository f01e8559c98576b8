package timeline

import (
	"fmt"
	"slices"
	"sync"

	"github.com/feedplex/feedplex/internal/bus"
)

// State is the lifecycle state of one (account, timeline) pair.
type State string

const (
	// Empty: nothing cached, nothing in flight.
	Empty State = "EMPTY"
	// Loading: a fetch is in flight.
	Loading State = "LOADING"
	// Ready: contents reflect the last successful fetch.
	Ready State = "READY"
	// Stale: contents come from local cache after a failed fetch or while
	// offline, to be reconciled on the next successful fetch.
	Stale State = "STALE"
)

var validTransitions = map[State][]State{
	Empty:   {Loading},
	Loading: {Ready, Stale, Empty},
	Ready:   {Loading, Stale},
	Stale:   {Loading},
}

// Tracker holds the state machine of every timeline and publishes stale-flag
// events only on actual transitions, never on redundant writes.
type Tracker struct {
	mu     sync.RWMutex
	states map[string]State
	bus    *bus.Bus
}

// NewTracker creates a tracker. The bus may be nil in tests.
func NewTracker(b *bus.Bus) *Tracker {
	return &Tracker{states: make(map[string]State), bus: b}
}

func stateKey(accountID, timeline string) string {
	return accountID + "\x00" + timeline
}

// Current returns the state of a timeline; unseen timelines are Empty.
func (t *Tracker) Current(accountID, timeline string) State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.states[stateKey(accountID, timeline)]; ok {
		return s
	}
	return Empty
}

// Transition moves a timeline to a new state, enforcing the machine. A
// transition to the current state is a no-op rather than an error so callers
// need not pre-check.
func (t *Tracker) Transition(accountID, timeline string, to State) error {
	t.mu.Lock()
	key := stateKey(accountID, timeline)
	from, ok := t.states[key]
	if !ok {
		from = Empty
	}
	if from == to {
		t.mu.Unlock()
		return nil
	}
	if !slices.Contains(validTransitions[from], to) {
		t.mu.Unlock()
		return fmt.Errorf("invalid timeline transition from %s to %s", from, to)
	}
	t.states[key] = to
	t.mu.Unlock()

	if t.bus != nil && (to == Stale || from == Stale) {
		t.bus.Emit(bus.KindTimelineStale, bus.TimelineChange{
			AccountID: accountID,
			Timeline:  timeline,
			Stale:     to == Stale,
		})
	}
	return nil
}

// IsStale reports whether a timeline currently serves cached-only contents.
func (t *Tracker) IsStale(accountID, timeline string) bool {
	return t.Current(accountID, timeline) == Stale
}
