package enums

import "fmt"

// OrderItemStatus tracks the fulfillment lifecycle of a single order item.
// Progression is strictly linear; cancelled is only reachable before shipment.
type OrderItemStatus string

const (
	OrderItemStatusPending    OrderItemStatus = "pending"
	OrderItemStatusReceived   OrderItemStatus = "received"
	OrderItemStatusProcessing OrderItemStatus = "processing"
	OrderItemStatusShipped    OrderItemStatus = "shipped"
	OrderItemStatusDelivered  OrderItemStatus = "delivered"
	OrderItemStatusCancelled  OrderItemStatus = "cancelled"
)

var orderItemStatusOrder = []OrderItemStatus{
	OrderItemStatusPending,
	OrderItemStatusReceived,
	OrderItemStatusProcessing,
	OrderItemStatusShipped,
	OrderItemStatusDelivered,
}

// String implements fmt.Stringer.
func (s OrderItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderItemStatus.
func (s OrderItemStatus) IsValid() bool {
	if s == OrderItemStatusCancelled {
		return true
	}
	for _, candidate := range orderItemStatusOrder {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s OrderItemStatus) IsTerminal() bool {
	return s == OrderItemStatusDelivered || s == OrderItemStatusCancelled
}

// Rank returns the position of the status in the linear chain, or -1 for
// cancelled and unknown values.
func (s OrderItemStatus) Rank() int {
	for i, candidate := range orderItemStatusOrder {
		if candidate == s {
			return i
		}
	}
	return -1
}

// Next returns the single next status in the linear chain, or false when the
// status has no successor.
func (s OrderItemStatus) Next() (OrderItemStatus, bool) {
	rank := s.Rank()
	if rank < 0 || rank >= len(orderItemStatusOrder)-1 {
		return "", false
	}
	return orderItemStatusOrder[rank+1], true
}

// ParseOrderItemStatus converts raw input into an OrderItemStatus.
func ParseOrderItemStatus(value string) (OrderItemStatus, error) {
	status := OrderItemStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid order item status %q", value)
	}
	return status, nil
}
