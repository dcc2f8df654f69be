package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/digishelf/digishelf-backend/pkg/errors"
)

// DefaultCommissionPercent applies when a vendor has no configured rate.
const DefaultCommissionPercent = 15

// CommissionSplit is the result of dividing a gross sale amount between the
// vendor and the platform. CommissionCents + NetCents always equals the gross.
type CommissionSplit struct {
	GrossCents      int64
	CommissionCents int64
	NetCents        int64
}

// SplitCommission computes the platform commission on a gross amount at the
// given percentage rate. The commission is rounded half-up to the cent and the
// net is the exact remainder, so the split conserves the gross to the cent.
func SplitCommission(grossCents int64, ratePercent int) (CommissionSplit, error) {
	if grossCents <= 0 {
		return CommissionSplit{}, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("gross amount must be positive, got %d", grossCents))
	}
	if ratePercent < 0 || ratePercent > 100 {
		return CommissionSplit{}, pkgerrors.New(pkgerrors.CodeInternal,
			fmt.Sprintf("commission rate must be between 0 and 100, got %d", ratePercent))
	}

	gross := decimal.NewFromInt(grossCents)
	rate := decimal.NewFromInt(int64(ratePercent)).Div(decimal.NewFromInt(100))
	commission := gross.Mul(rate).Round(0)

	commissionCents := commission.IntPart()
	return CommissionSplit{
		GrossCents:      grossCents,
		CommissionCents: commissionCents,
		NetCents:        grossCents - commissionCents,
	}, nil
}

// ResolveRate picks the vendor override when present, the platform default
// otherwise. Out-of-range overrides are rejected, never clamped.
func ResolveRate(override *int, defaultPercent int) (int, error) {
	rate := defaultPercent
	if override != nil {
		rate = *override
	}
	// A rate outside 0..100 is stored configuration gone bad, not caller input.
	if rate < 0 || rate > 100 {
		return 0, pkgerrors.New(pkgerrors.CodeInternal,
			fmt.Sprintf("commission rate must be between 0 and 100, got %d", rate))
	}
	return rate, nil
}
