package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trovemarket/trove-backend/pkg/enums"
)

// Product is a catalog listing. Price is the listed amount in minor units;
// order items snapshot the price at purchase time and never read back here.
type Product struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID   uuid.UUID      `gorm:"column:seller_id;type:uuid;not null;index"`
	Title      string         `gorm:"column:title;not null"`
	PriceCents int64          `gorm:"column:price_cents;not null"`
	Currency   enums.Currency `gorm:"column:currency;type:text;not null;default:'USD'"`
	Active     bool           `gorm:"column:active;not null;default:true"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
