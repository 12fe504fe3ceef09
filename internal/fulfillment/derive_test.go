package fulfillment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trovemarket/trove-backend/pkg/enums"
)

func TestDeriveOrderStatus(t *testing.T) {
	cases := []struct {
		name     string
		statuses []enums.OrderItemStatus
		want     enums.OrderStatus
	}{
		{
			name: "no items",
			want: enums.OrderStatusPending,
		},
		{
			name:     "single pending",
			statuses: []enums.OrderItemStatus{enums.OrderItemStatusPending},
			want:     enums.OrderStatusPending,
		},
		{
			name: "earliest stage wins",
			statuses: []enums.OrderItemStatus{
				enums.OrderItemStatusShipped,
				enums.OrderItemStatusProcessing,
			},
			want: enums.OrderStatusProcessing,
		},
		{
			name: "delivered only when every item delivered",
			statuses: []enums.OrderItemStatus{
				enums.OrderItemStatusDelivered,
				enums.OrderItemStatusShipped,
			},
			want: enums.OrderStatusShipped,
		},
		{
			name: "all delivered",
			statuses: []enums.OrderItemStatus{
				enums.OrderItemStatusDelivered,
				enums.OrderItemStatusDelivered,
			},
			want: enums.OrderStatusDelivered,
		},
		{
			name: "cancelled items drop out",
			statuses: []enums.OrderItemStatus{
				enums.OrderItemStatusCancelled,
				enums.OrderItemStatusShipped,
			},
			want: enums.OrderStatusShipped,
		},
		{
			name: "all cancelled",
			statuses: []enums.OrderItemStatus{
				enums.OrderItemStatusCancelled,
				enums.OrderItemStatusCancelled,
			},
			want: enums.OrderStatusCancelled,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveOrderStatus(tc.statuses))
		})
	}
}
