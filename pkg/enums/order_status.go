package enums

// OrderStatus is the buyer-facing status derived from an order's items. It is
// never written independently; see fulfillment.DeriveOrderStatus.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusReceived   OrderStatus = "received"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}
