package order

import (
	"time"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/catalog"
)

// Order lifecycle. Cancellation is a parallel terminal state; a revision
// request loops delivered back to active.
const (
	StatusPendingPayment = "pending_payment"
	StatusActive         = "active"
	StatusDelivered      = "delivered"
	StatusCompleted      = "completed"
	StatusCancelled      = "cancelled"
)

// Actions an order participant can take, used both for transition checks
// and to tell clients which buttons to show.
const (
	ActionPay      = "pay"
	ActionDeliver  = "deliver"
	ActionComplete = "complete"
	ActionRevision = "request_revision"
	ActionCancel   = "cancel"
)

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

type Order struct {
	ID               string           `json:"id"`
	ServiceID        *string          `json:"service_id,omitempty"`
	ServiceTitle     string           `json:"service_title"`
	BuyerID          string           `json:"buyer_id"`
	SellerID         string           `json:"seller_id"`
	PackageTier      string           `json:"package_tier"`
	Price            int64            `json:"price"`
	PackageSnapshot  *catalog.Package `json:"package_snapshot,omitempty"`
	Status           string           `json:"status"`
	DeliveryDeadline *time.Time       `json:"delivery_deadline,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`

	// Joined participant names for listing views.
	BuyerName  string `json:"buyer_name,omitempty"`
	SellerName string `json:"seller_name,omitempty"`
}

// AllowedActions returns what the given participant may do in the order's
// current status.
func AllowedActions(status, role string) []string {
	switch status {
	case StatusPendingPayment:
		if role == RoleBuyer {
			return []string{ActionPay, ActionCancel}
		}
		return []string{ActionCancel}
	case StatusActive:
		if role == RoleSeller {
			return []string{ActionDeliver, ActionCancel}
		}
		return []string{ActionCancel}
	case StatusDelivered:
		if role == RoleBuyer {
			return []string{ActionComplete, ActionRevision}
		}
		return nil
	default:
		return nil
	}
}

// CanPerform reports whether role may take action while the order is in
// the given status.
func CanPerform(status, role, action string) bool {
	for _, a := range AllowedActions(status, role) {
		if a == action {
			return true
		}
	}
	return false
}

// DeadlineFrom computes the delivery deadline from the purchased package's
// promised delivery window.
func DeadlineFrom(start time.Time, pkg *catalog.Package) *time.Time {
	if pkg == nil || pkg.DeliveryTime <= 0 {
		return nil
	}
	var d time.Duration
	switch pkg.DeliveryUnit {
	case catalog.UnitMinutes:
		d = time.Duration(pkg.DeliveryTime) * time.Minute
	case catalog.UnitHours:
		d = time.Duration(pkg.DeliveryTime) * time.Hour
	case catalog.UnitDays:
		d = time.Duration(pkg.DeliveryTime) * 24 * time.Hour
	default:
		return nil
	}
	deadline := start.Add(d)
	return &deadline
}
