package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a buyer-seller thread tied to a settled order. The unique
// index on (order_id, seller_id) keeps the bridge idempotent: re-running
// settlement or a webhook retry cannot create a duplicate thread.
type Conversation struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID  `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_conversations_order_seller,priority:1"`
	SellerID  uuid.UUID  `gorm:"column:seller_id;type:uuid;not null;uniqueIndex:idx_conversations_order_seller,priority:2"`
	BuyerID   uuid.UUID  `gorm:"column:buyer_id;type:uuid;not null;index"`
	ProductID *uuid.UUID `gorm:"column:product_id;type:uuid"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
