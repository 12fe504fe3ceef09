package fulfillment

import (
	"time"

	"github.com/google/uuid"

	"github.com/trovemarket/trove-backend/pkg/db/models"
	"github.com/trovemarket/trove-backend/pkg/enums"
	"github.com/trovemarket/trove-backend/pkg/types"
)

// TrackingInfo is the optional shipment metadata supplied on the transition
// to shipped.
type TrackingInfo struct {
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
}

// IssueInput is a buyer-reported problem with an item.
type IssueInput struct {
	Type        enums.IssueType
	Description string
}

// FeedbackInput is one side's rating of the other after delivery.
type FeedbackInput struct {
	Role    enums.RaterRole
	Rating  int
	Comment *string
	Flags   types.FeedbackFlags
}

// ItemView is the buyer/seller-facing projection of an order item.
type ItemView struct {
	ID               uuid.UUID             `json:"id"`
	ProductID        uuid.UUID             `json:"product_id"`
	SellerID         uuid.UUID             `json:"seller_id"`
	Title            string                `json:"title"`
	Qty              int                   `json:"qty"`
	PriceCents       int64                 `json:"price_cents"`
	Status           enums.OrderItemStatus `json:"status"`
	Carrier          *string               `json:"carrier,omitempty"`
	TrackingNumber   *string               `json:"tracking_number,omitempty"`
	SellerReceivedAt *time.Time            `json:"seller_received_at,omitempty"`
	ShippedAt        *time.Time            `json:"shipped_at,omitempty"`
	DeliveredAt      *time.Time            `json:"delivered_at,omitempty"`
}

// OrderView is the buyer-facing projection of an order. Status is derived
// from the item statuses, never read from a caller-mutated field.
type OrderView struct {
	ID                   uuid.UUID         `json:"id"`
	Status               enums.OrderStatus `json:"status"`
	TotalCents           int64             `json:"total_cents"`
	BuyerProtectionCents int64             `json:"buyer_protection_cents"`
	Currency             enums.Currency    `json:"currency"`
	ShippingAddress      *types.Address    `json:"shipping_address,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	Items                []ItemView        `json:"items"`
	CanRate              bool              `json:"can_rate"`
	HasRated             bool              `json:"has_rated"`
}

func itemView(item models.OrderItem) ItemView {
	return ItemView{
		ID:               item.ID,
		ProductID:        item.ProductID,
		SellerID:         item.SellerID,
		Title:            item.Title,
		Qty:              item.Qty,
		PriceCents:       item.PriceCents,
		Status:           item.Status,
		Carrier:          item.Carrier,
		TrackingNumber:   item.TrackingNumber,
		SellerReceivedAt: item.SellerReceivedAt,
		ShippedAt:        item.ShippedAt,
		DeliveredAt:      item.DeliveredAt,
	}
}

func itemStatuses(items []models.OrderItem) []enums.OrderItemStatus {
	statuses := make([]enums.OrderItemStatus, 0, len(items))
	for _, item := range items {
		statuses = append(statuses, item.Status)
	}
	return statuses
}
