package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/catalog"
)

func TestAllowedActionsPerStatus(t *testing.T) {
	assert.Equal(t, []string{ActionPay, ActionCancel}, AllowedActions(StatusPendingPayment, RoleBuyer))
	assert.Equal(t, []string{ActionCancel}, AllowedActions(StatusPendingPayment, RoleSeller))

	assert.Equal(t, []string{ActionDeliver, ActionCancel}, AllowedActions(StatusActive, RoleSeller))
	assert.Equal(t, []string{ActionCancel}, AllowedActions(StatusActive, RoleBuyer))

	assert.Equal(t, []string{ActionComplete, ActionRevision}, AllowedActions(StatusDelivered, RoleBuyer))
	assert.Empty(t, AllowedActions(StatusDelivered, RoleSeller))

	assert.Empty(t, AllowedActions(StatusCompleted, RoleBuyer))
	assert.Empty(t, AllowedActions(StatusCancelled, RoleSeller))
}

func TestCanPerform(t *testing.T) {
	// Buyers cannot deliver; sellers cannot approve their own work.
	assert.False(t, CanPerform(StatusActive, RoleBuyer, ActionDeliver))
	assert.False(t, CanPerform(StatusDelivered, RoleSeller, ActionComplete))

	// The delivered -> active loop belongs to the buyer.
	assert.True(t, CanPerform(StatusDelivered, RoleBuyer, ActionRevision))

	// Terminal states allow nothing.
	assert.False(t, CanPerform(StatusCompleted, RoleBuyer, ActionCancel))
	assert.False(t, CanPerform(StatusCancelled, RoleSeller, ActionDeliver))
}

func TestDeadlineFrom(t *testing.T) {
	start := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	d := DeadlineFrom(start, &catalog.Package{DeliveryTime: 3, DeliveryUnit: catalog.UnitDays})
	require.NotNil(t, d)
	assert.Equal(t, start.AddDate(0, 0, 3), *d)

	d = DeadlineFrom(start, &catalog.Package{DeliveryTime: 90, DeliveryUnit: catalog.UnitMinutes})
	require.NotNil(t, d)
	assert.Equal(t, start.Add(90*time.Minute), *d)

	assert.Nil(t, DeadlineFrom(start, nil))
	assert.Nil(t, DeadlineFrom(start, &catalog.Package{DeliveryTime: 0, DeliveryUnit: catalog.UnitDays}))
	assert.Nil(t, DeadlineFrom(start, &catalog.Package{DeliveryTime: 2, DeliveryUnit: "weeks"}))
}
