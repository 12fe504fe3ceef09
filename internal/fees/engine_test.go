package fees

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/trovemarket/trove-backend/pkg/errors"
)

func schedule(commission, protection string, flatFee, fixed int64) Schedule {
	return Schedule{
		CommissionRate:            decimal.RequireFromString(commission),
		SellerFlatFeeCents:        flatFee,
		BuyerProtectionRate:       decimal.RequireFromString(protection),
		BuyerProtectionFixedCents: fixed,
	}
}

func TestComputeSplitsCommission(t *testing.T) {
	// 20.00 at 10% commission with a 0.50 flat selling fee.
	breakdown, err := Compute(2000, schedule("0.10", "0.05", 50, 0))
	require.NoError(t, err)

	assert.Equal(t, int64(2000), breakdown.ItemTotalCents)
	assert.Equal(t, int64(50), breakdown.SellerFeeCents)
	assert.Equal(t, int64(150), breakdown.PlatformRevenueCents)
	assert.Equal(t, int64(100), breakdown.BuyerProtectionFeeCents)
	assert.Equal(t, int64(2100), breakdown.BuyerChargeTotalCents())
}

func TestComputeFlatFeeCappedAtCommission(t *testing.T) {
	// Commission on 2.00 at 10% is 20 cents; the 50 cent flat fee cannot
	// exceed it.
	breakdown, err := Compute(200, schedule("0.10", "0", 50, 0))
	require.NoError(t, err)

	assert.Equal(t, int64(20), breakdown.SellerFeeCents)
	assert.Equal(t, int64(0), breakdown.PlatformRevenueCents)
}

func TestComputeConservesCommissionCents(t *testing.T) {
	// Seller fee plus platform revenue must equal the rounded commission for
	// awkward totals too.
	cases := []struct {
		totalCents int64
		commission string
	}{
		{999, "0.10"},
		{1, "0.10"},
		{3333, "0.0725"},
		{105, "0.195"},
	}
	for _, tc := range cases {
		sched := schedule(tc.commission, "0", 30, 0)
		breakdown, err := Compute(tc.totalCents, sched)
		require.NoError(t, err)

		expected := decimal.NewFromInt(tc.totalCents).
			Mul(sched.CommissionRate).
			Round(0).
			IntPart()
		assert.Equal(t, expected, breakdown.SellerFeeCents+breakdown.PlatformRevenueCents,
			"total %d at %s", tc.totalCents, tc.commission)
	}
}

func TestComputeRoundsHalfAwayFromZero(t *testing.T) {
	// 1.25 at 10% is 12.5 cents, which rounds up to 13.
	breakdown, err := Compute(125, schedule("0.10", "0.10", 0, 0))
	require.NoError(t, err)

	assert.Equal(t, int64(13), breakdown.SellerFeeCents+breakdown.PlatformRevenueCents)
	assert.Equal(t, int64(13), breakdown.BuyerProtectionFeeCents)
}

func TestComputeBuyerProtectionFixedPart(t *testing.T) {
	breakdown, err := Compute(1000, schedule("0.10", "0.05", 0, 70))
	require.NoError(t, err)

	assert.Equal(t, int64(120), breakdown.BuyerProtectionFeeCents)
}

func TestComputeIsDeterministic(t *testing.T) {
	sched := schedule("0.0825", "0.03", 25, 30)
	first, err := Compute(4999, sched)
	require.NoError(t, err)
	second, err := Compute(4999, sched)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeRejectsNonPositiveTotal(t *testing.T) {
	for _, total := range []int64{0, -100} {
		_, err := Compute(total, schedule("0.10", "0.05", 0, 0))
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	}
}

func TestComputeRejectsBadSchedule(t *testing.T) {
	cases := map[string]Schedule{
		"negative commission": schedule("-0.10", "0.05", 0, 0),
		"commission over one": schedule("1.50", "0.05", 0, 0),
		"negative protection": schedule("0.10", "-0.05", 0, 0),
		"negative flat fee":   schedule("0.10", "0.05", -10, 0),
		"negative fixed part": schedule("0.10", "0.05", 0, -10),
	}
	for name, sched := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Compute(1000, sched)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		})
	}
}

func TestScheduleFromProfileRequiresProfile(t *testing.T) {
	_, err := ScheduleFromProfile(nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
