package fees

import (
	"github.com/shopspring/decimal"

	"github.com/trovemarket/trove-backend/pkg/db/models"
	pkgerrors "github.com/trovemarket/trove-backend/pkg/errors"
)

var one = decimal.NewFromInt(1)

// Schedule is the per-seller fee configuration. Rates are fractions of the
// item total (0.10 == 10%); fixed parts are integer minor units.
type Schedule struct {
	CommissionRate            decimal.Decimal
	SellerFlatFeeCents        int64
	BuyerProtectionRate       decimal.Decimal
	BuyerProtectionFixedCents int64
}

// ScheduleFromProfile lifts a seller profile into a fee schedule.
func ScheduleFromProfile(profile *models.SellerProfile) (Schedule, error) {
	if profile == nil {
		return Schedule{}, pkgerrors.New(pkgerrors.CodeValidation, "seller has no fee schedule")
	}
	schedule := Schedule{
		CommissionRate:            profile.CommissionRate,
		SellerFlatFeeCents:        profile.SellerFlatFeeCents,
		BuyerProtectionRate:       profile.BuyerProtectionRate,
		BuyerProtectionFixedCents: profile.BuyerProtectionFixedCents,
	}
	if err := schedule.validate(); err != nil {
		return Schedule{}, err
	}
	return schedule, nil
}

func (s Schedule) validate() error {
	if s.CommissionRate.IsNegative() || s.CommissionRate.GreaterThan(one) {
		return pkgerrors.New(pkgerrors.CodeValidation, "commission rate must be between 0 and 1")
	}
	if s.BuyerProtectionRate.IsNegative() || s.BuyerProtectionRate.GreaterThan(one) {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer protection rate must be between 0 and 1")
	}
	if s.SellerFlatFeeCents < 0 || s.BuyerProtectionFixedCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "fixed fees must be non-negative")
	}
	return nil
}

// Breakdown is the monetary split of a single-seller item total. All amounts
// are integer minor units.
//
// The platform's cut of the item total is commissionRate * itemTotal, rounded
// once. A flat selling fee is carved out of that cut (capped at the cut, so
// no cent is invented); the remainder is variable platform revenue. The sum
// SellerFeeCents + PlatformRevenueCents therefore always equals the rounded
// commission, cent for cent.
type Breakdown struct {
	ItemTotalCents          int64
	BuyerProtectionFeeCents int64
	SellerFeeCents          int64
	PlatformRevenueCents    int64
}

// BuyerChargeTotalCents is the amount presented to the buyer at checkout.
func (b Breakdown) BuyerChargeTotalCents() int64 {
	return b.ItemTotalCents + b.BuyerProtectionFeeCents
}

// Compute splits an item total according to the schedule. Pure and
// deterministic, no I/O.
//
// Rounding policy: each fee is computed in exact decimal arithmetic and
// rounded exactly once, half away from zero, at the minor-unit boundary.
// This is the only place the policy lives; every surface that re-sums the
// line items (the hosted checkout page included) reconciles to the same
// integer totals.
func Compute(itemTotalCents int64, schedule Schedule) (Breakdown, error) {
	if itemTotalCents <= 0 {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "item total must be positive")
	}
	if err := schedule.validate(); err != nil {
		return Breakdown{}, err
	}

	itemTotal := decimal.NewFromInt(itemTotalCents)

	commission := roundCents(itemTotal.Mul(schedule.CommissionRate))
	sellerFee := schedule.SellerFlatFeeCents
	if sellerFee > commission {
		sellerFee = commission
	}

	protection := roundCents(itemTotal.Mul(schedule.BuyerProtectionRate)) + schedule.BuyerProtectionFixedCents

	return Breakdown{
		ItemTotalCents:          itemTotalCents,
		BuyerProtectionFeeCents: protection,
		SellerFeeCents:          sellerFee,
		PlatformRevenueCents:    commission - sellerFee,
	}, nil
}

func roundCents(amount decimal.Decimal) int64 {
	return amount.Round(0).IntPart()
}
