package analytics

import (
	"math"

	"BondPulse/internal/domain/models"
)

// Spread is the bond's yield to maturity minus the curve yield interpolated
// at the bond's horizon, in percentage points. It is unavailable when the
// yield, the curve or a positive horizon is missing.
func Spread(ytmPct *float64, curve *models.Curve, horizonYears *float64) *float64 {
	if ytmPct == nil || math.IsNaN(*ytmPct) || math.IsInf(*ytmPct, 0) {
		return nil
	}
	if horizonYears == nil || *horizonYears <= 0 {
		return nil
	}
	benchmark := InterpolateYield(curve, *horizonYears)
	if benchmark == nil {
		return nil
	}
	v := *ytmPct - *benchmark
	return &v
}
