package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trovemarket/trove-backend/pkg/enums"
)

// OrderItem is the snapshot of one purchased line. Created in the same
// transaction as its Order from the cart snapshot embedded in the payment
// confirmation; the live cart is never consulted again after checkout.
type OrderItem struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID        uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	VariantID        *uuid.UUID            `gorm:"column:variant_id;type:uuid"`
	SellerID         uuid.UUID             `gorm:"column:seller_id;type:uuid;not null;index"`
	Title            string                `gorm:"column:title;not null"`
	Qty              int                   `gorm:"column:qty;not null"`
	PriceCents       int64                 `gorm:"column:price_cents;not null"`
	Status           enums.OrderItemStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CancelReason     *string               `gorm:"column:cancel_reason"`
	Carrier          *string               `gorm:"column:carrier"`
	TrackingNumber   *string               `gorm:"column:tracking_number"`
	SellerReceivedAt *time.Time            `gorm:"column:seller_received_at"`
	ShippedAt        *time.Time            `gorm:"column:shipped_at"`
	DeliveredAt      *time.Time            `gorm:"column:delivered_at"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
