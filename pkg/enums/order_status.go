package enums

import "fmt"

// OrderStatus tracks the payment lifecycle of a storefront order.
type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "pending"
	OrderStatusPaid              OrderStatus = "paid"
	OrderStatusFailed            OrderStatus = "failed"
	OrderStatusRefunded          OrderStatus = "refunded"
	OrderStatusPartiallyRefunded OrderStatus = "partially_refunded"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusFailed,
	OrderStatusRefunded,
	OrderStatusPartiallyRefunded,
}

// orderTransitions lists, per target status, the statuses it may be entered from.
// Refunds may overtake the success event, so they are also accepted from
// pending and failed; a later success then finds the order already settled.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPaid:              {OrderStatusPending, OrderStatusFailed},
	OrderStatusFailed:            {OrderStatusPending},
	OrderStatusRefunded:          {OrderStatusPaid, OrderStatusPartiallyRefunded, OrderStatusPending, OrderStatusFailed},
	OrderStatusPartiallyRefunded: {OrderStatusPaid, OrderStatusPending, OrderStatusFailed},
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// AllowedFrom returns the statuses an order must currently hold to move into s.
func (s OrderStatus) AllowedFrom() []OrderStatus {
	from := orderTransitions[s]
	out := make([]OrderStatus, len(from))
	copy(out, from)
	return out
}

// CanTransitionTo reports whether an order in s may move to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, from := range orderTransitions[next] {
		if from == s {
			return true
		}
	}
	return false
}

// HoldsStock reports whether stock for the order's items has been taken off
// the shelf.
func (s OrderStatus) HoldsStock() bool {
	return s == OrderStatusPaid || s == OrderStatusPartiallyRefunded
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
