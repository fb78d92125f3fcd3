package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishesToSubscribers(t *testing.T) {
	bus := NewBus()

	var got []string
	bus.Subscribe(EventBookingCreated, func(e *Event) error {
		got = append(got, string(e.Payload))
		return nil
	})
	bus.Subscribe(EventBookingConfirmed, func(e *Event) error {
		t.Fatal("wrong event type delivered")
		return nil
	})

	require.NoError(t, bus.PublishJSON(EventBookingCreated, map[string]string{"booking_id": "b1"}))

	require.Len(t, got, 1)
	assert.JSONEq(t, `{"booking_id":"b1"}`, got[0])
}

func TestBusNilReceiverIsSafe(t *testing.T) {
	var bus *Bus
	assert.NoError(t, bus.PublishJSON(EventOrderCompleted, "x"))
}

type notif struct {
	ID    string
	Title string
}

func TestReducerFoldsChanges(t *testing.T) {
	r := NewReducer[notif]()

	assert.True(t, r.Apply(Change[notif]{Kind: ChangeInsert, ID: "a", Seq: 1, Row: notif{ID: "a", Title: "first"}}))
	assert.True(t, r.Apply(Change[notif]{Kind: ChangeInsert, ID: "b", Seq: 2, Row: notif{ID: "b", Title: "second"}}))
	assert.True(t, r.Apply(Change[notif]{Kind: ChangeUpdate, ID: "a", Seq: 3, Row: notif{ID: "a", Title: "edited"}}))

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "edited", snap[0].Title)
	assert.Equal(t, "second", snap[1].Title)

	assert.True(t, r.Apply(Change[notif]{Kind: ChangeDelete, ID: "b", Seq: 4}))
	assert.Equal(t, 1, r.Len())
	_, ok := r.Get("b")
	assert.False(t, ok)
}

func TestReducerIdempotentUnderDuplicateDelivery(t *testing.T) {
	r := NewReducer[notif]()

	ev := Change[notif]{Kind: ChangeInsert, ID: "a", Seq: 5, Row: notif{ID: "a", Title: "once"}}
	assert.True(t, r.Apply(ev))
	assert.False(t, r.Apply(ev), "duplicate delivery must be a no-op")
	assert.False(t, r.Apply(Change[notif]{Kind: ChangeUpdate, ID: "a", Seq: 4, Row: notif{Title: "stale"}}),
		"older event must not overwrite newer state")

	row, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, "once", row.Title)
	assert.Equal(t, 1, r.Len())
}

func TestReducerDeleteUnknownID(t *testing.T) {
	r := NewReducer[notif]()
	assert.False(t, r.Apply(Change[notif]{Kind: ChangeDelete, ID: "ghost", Seq: 1}))
	assert.Equal(t, 0, r.Len())
}
