package favorites

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimisticAddThenRemoveBeforeSettlementNetsFalse(t *testing.T) {
	s := NewOptimisticStore(nil)

	// Tap add, then tap remove before the add resolves.
	add := s.Begin("co-1", true)
	assert.True(t, s.Get("co-1"))

	rem := s.Begin("co-1", false)
	assert.False(t, s.Get("co-1")) // newest flip wins immediately

	require.NoError(t, s.Commit(add))
	assert.False(t, s.Get("co-1")) // settling the add must not resurrect it

	require.NoError(t, s.Commit(rem))
	assert.False(t, s.Get("co-1"))
	assert.Empty(t, s.Snapshot())
}

func TestOptimisticFailedRemoveRollsBack(t *testing.T) {
	s := NewOptimisticStore(map[string]bool{"co-1": true})

	rem := s.Begin("co-1", false)
	assert.False(t, s.Get("co-1")) // optimistic flip visible immediately

	require.NoError(t, s.Rollback(rem))
	assert.True(t, s.Get("co-1")) // snapshot restored
	assert.Equal(t, StateRolledBack, rem.State)
}

func TestOptimisticStackedRollbacksRestoreOriginal(t *testing.T) {
	s := NewOptimisticStore(nil)

	add := s.Begin("co-1", true)
	rem := s.Begin("co-1", false)

	// The failed add hands its snapshot to the newer mutation, so undoing
	// the remove afterwards lands on the original value, not the add's.
	require.NoError(t, s.Rollback(add))
	assert.False(t, s.Get("co-1"))

	require.NoError(t, s.Rollback(rem))
	assert.False(t, s.Get("co-1"))

	// Other keys are unaffected throughout.
	other := s.Begin("co-2", true)
	require.NoError(t, s.Commit(other))
	assert.True(t, s.Get("co-2"))
}

func TestOptimisticRollbackNewestFirstUnwinds(t *testing.T) {
	s := NewOptimisticStore(nil)

	add := s.Begin("co-1", true)
	rem := s.Begin("co-1", false)

	require.NoError(t, s.Rollback(rem))
	assert.True(t, s.Get("co-1")) // back to the pending add

	require.NoError(t, s.Rollback(add))
	assert.False(t, s.Get("co-1")) // back to the original
}

func TestOptimisticSettlingTwiceFails(t *testing.T) {
	s := NewOptimisticStore(nil)

	m := s.Begin("co-1", true)
	require.NoError(t, s.Commit(m))

	assert.ErrorIs(t, s.Commit(m), ErrNoMutation)
	assert.ErrorIs(t, s.Rollback(m), ErrNoMutation)
}
