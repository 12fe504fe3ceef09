package fulfillment

import "github.com/trovemarket/trove-backend/pkg/enums"

// DeriveOrderStatus reduces the statuses of an order's items to the single
// buyer-facing order status. This is the only place the aggregation lives;
// every surface that shows an order status goes through it.
//
// Cancelled items drop out of the aggregate: the order reads as the earliest
// stage among the remaining items, and as cancelled only when nothing
// remains. An order with no items at all reads as pending.
func DeriveOrderStatus(statuses []enums.OrderItemStatus) enums.OrderStatus {
	if len(statuses) == 0 {
		return enums.OrderStatusPending
	}

	remaining := 0
	earliest := -1
	for _, status := range statuses {
		if status == enums.OrderItemStatusCancelled {
			continue
		}
		remaining++
		rank := status.Rank()
		if earliest == -1 || rank < earliest {
			earliest = rank
		}
	}

	if remaining == 0 {
		return enums.OrderStatusCancelled
	}

	switch earliest {
	case enums.OrderItemStatusPending.Rank():
		return enums.OrderStatusPending
	case enums.OrderItemStatusReceived.Rank():
		return enums.OrderStatusReceived
	case enums.OrderItemStatusProcessing.Rank():
		return enums.OrderStatusProcessing
	case enums.OrderItemStatusShipped.Rank():
		return enums.OrderStatusShipped
	default:
		return enums.OrderStatusDelivered
	}
}
