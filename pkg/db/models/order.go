package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trovemarket/trove-backend/pkg/enums"
	"github.com/trovemarket/trove-backend/pkg/types"
)

// Order is created exactly once per settled payment. PaymentReference holds
// the gateway's payment-intent identifier; the unique index on it is the
// idempotency guarantee for concurrent settlement, so it must stay enforced
// at the persistence layer rather than in application logic.
type Order struct {
	ID                   uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID               uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	PaymentReference     string            `gorm:"column:payment_reference;not null;uniqueIndex:idx_orders_payment_reference"`
	TotalCents           int64             `gorm:"column:total_cents;not null"`
	BuyerProtectionCents int64             `gorm:"column:buyer_protection_cents;not null;default:0"`
	Currency             enums.Currency    `gorm:"column:currency;type:text;not null;default:'USD'"`
	Status               enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	ShippingAddress      *types.Address    `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	Items                []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
