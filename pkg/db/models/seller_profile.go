package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SellerProfile carries the per-seller fee schedule and payout routing.
// Rates are fractions (0.10 == 10%); fixed parts are integer minor units.
type SellerProfile struct {
	ID                        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	CommissionRate            decimal.Decimal `gorm:"column:commission_rate;type:numeric(6,4);not null"`
	SellerFlatFeeCents        int64           `gorm:"column:seller_flat_fee_cents;not null;default:0"`
	BuyerProtectionRate       decimal.Decimal `gorm:"column:buyer_protection_rate;type:numeric(6,4);not null"`
	BuyerProtectionFixedCents int64           `gorm:"column:buyer_protection_fixed_cents;not null;default:0"`
	PayoutAccountID           *string         `gorm:"column:payout_account_id"`
	ChargesEnabled            bool            `gorm:"column:charges_enabled;not null;default:false"`
	CreatedAt                 time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                 time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
