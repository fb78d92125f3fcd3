package events

import "sync"

// ChangeKind mirrors the row-change events pushed over realtime channels.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "INSERT"
	ChangeUpdate ChangeKind = "UPDATE"
	ChangeDelete ChangeKind = "DELETE"
)

// Change is one row-change event keyed by entity id. Seq orders events from
// the same source; duplicates carry the same Seq.
type Change[T any] struct {
	Kind ChangeKind
	ID   string
	Seq  uint64
	Row  T
}

// Reducer folds row-change events into an ordered map keyed by entity id,
// replacing a full refetch on every push. Apply is idempotent: replaying an
// event with a Seq at or below the last applied one for that id is a no-op.
type Reducer[T any] struct {
	mu      sync.RWMutex
	rows    map[string]T
	order   []string
	lastSeq map[string]uint64
}

func NewReducer[T any]() *Reducer[T] {
	return &Reducer[T]{
		rows:    make(map[string]T),
		lastSeq: make(map[string]uint64),
	}
}

// Apply folds one change event into the state. Returns true when the state
// changed, false for duplicates and deletes of unknown ids.
func (r *Reducer[T]) Apply(ch Change[T]) bool {
	if ch.ID == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if last, ok := r.lastSeq[ch.ID]; ok && ch.Seq <= last {
		return false
	}

	switch ch.Kind {
	case ChangeInsert, ChangeUpdate:
		if _, exists := r.rows[ch.ID]; !exists {
			r.order = append(r.order, ch.ID)
		}
		r.rows[ch.ID] = ch.Row
	case ChangeDelete:
		if _, exists := r.rows[ch.ID]; !exists {
			r.lastSeq[ch.ID] = ch.Seq
			return false
		}
		delete(r.rows, ch.ID)
		for i, id := range r.order {
			if id == ch.ID {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	default:
		return false
	}

	r.lastSeq[ch.ID] = ch.Seq
	return true
}

// Snapshot returns rows in insertion order.
func (r *Reducer[T]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.rows[id])
	}
	return out
}

// Get returns the row for id, if present.
func (r *Reducer[T]) Get(id string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[id]
	return row, ok
}

// Len reports the number of live rows.
func (r *Reducer[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}
