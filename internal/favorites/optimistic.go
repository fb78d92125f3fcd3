package favorites

import (
	"errors"
	"sync"
)

// Mutation states. A mutation moves idle -> pending -> committed or
// rolled-back; nothing else is legal.
const (
	StatePending    = "pending"
	StateCommitted  = "committed"
	StateRolledBack = "rolled_back"
)

var ErrNoMutation = errors.New("favorites: no pending mutation")

// Mutation tracks one in-flight optimistic flip with the snapshot needed
// to undo it.
type Mutation struct {
	Key      string
	State    string
	Desired  bool
	snapshot bool
}

// OptimisticStore holds a favorite set that is flipped optimistically
// before the server answer arrives. The UI reads the optimistic value;
// Commit settles it and Rollback restores the snapshot. Mutations may
// stack on one key (tap add, tap remove before the add resolves): the
// newest flip is what readers see, and each settlement unwinds only its
// own step.
type OptimisticStore struct {
	mu      sync.Mutex
	values  map[string]bool
	pending map[string][]*Mutation
}

func NewOptimisticStore(initial map[string]bool) *OptimisticStore {
	values := make(map[string]bool, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &OptimisticStore{values: values, pending: make(map[string][]*Mutation)}
}

// Get returns the current (possibly optimistic) value for a key.
func (s *OptimisticStore) Get(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// Begin applies the desired value optimistically and snapshots the value
// it replaced. Beginning again on the same key before settlement stacks a
// new mutation on top rather than refusing.
func (s *OptimisticStore) Begin(key string, desired bool) *Mutation {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := &Mutation{Key: key, State: StatePending, Desired: desired, snapshot: s.values[key]}
	s.pending[key] = append(s.pending[key], m)
	s.values[key] = desired
	return m
}

// Commit settles a pending mutation; the optimistic value becomes real.
func (s *OptimisticStore) Commit(m *Mutation) error {
	return s.settle(m, false)
}

// Rollback undoes one mutation. If a newer mutation is stacked on top, the
// visible value stays with the newer flip and only the snapshot chain is
// repaired; otherwise the value taken at Begin is restored.
func (s *OptimisticStore) Rollback(m *Mutation) error {
	return s.settle(m, true)
}

func (s *OptimisticStore) settle(m *Mutation, rollback bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain := s.pending[m.Key]
	idx := -1
	for i, p := range chain {
		if p == m {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNoMutation
	}

	if rollback {
		if idx == len(chain)-1 {
			s.values[m.Key] = m.snapshot
		} else {
			// A newer flip sits on top; hand it our snapshot so its own
			// rollback also skips the undone step.
			chain[idx+1].snapshot = m.snapshot
		}
		m.State = StateRolledBack
	} else {
		m.State = StateCommitted
	}

	chain = append(chain[:idx], chain[idx+1:]...)
	if len(chain) == 0 {
		delete(s.pending, m.Key)
	} else {
		s.pending[m.Key] = chain
	}
	return nil
}

// Snapshot copies the current visible set, true entries only.
func (s *OptimisticStore) Snapshot() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]bool)
	for k, v := range s.values {
		if v {
			out[k] = true
		}
	}
	return out
}
