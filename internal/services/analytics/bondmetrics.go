package analytics

import (
	"math"
	"time"

	"BondPulse/internal/domain/models"
)

const daysPerYear = 365.0

// Calculator derives per-bond risk metrics. Every method is total: bad or
// missing inputs yield nil, never NaN and never a panic.
type Calculator struct {
	// RateMovePct is the assumed parallel rate shift, in percentage points,
	// used for the price sensitivity estimate.
	RateMovePct float64
}

func NewCalculator(rateMovePct float64) *Calculator {
	return &Calculator{RateMovePct: rateMovePct}
}

// RegularDurationYears converts exchange duration in days to years.
// Non-positive durations are treated as unavailable.
func (c *Calculator) RegularDurationYears(durationDays *float64) *float64 {
	if durationDays == nil || *durationDays <= 0 || math.IsNaN(*durationDays) || math.IsInf(*durationDays, 0) {
		return nil
	}
	v := *durationDays / daysPerYear
	return &v
}

// ModifiedDurationYears computes duration adjusted for yield. When the yield
// is unavailable the unadjusted duration in years is returned instead, so a
// bond with a quoted duration always gets a sensitivity figure.
func (c *Calculator) ModifiedDurationYears(durationDays, ytmPct *float64) *float64 {
	d := c.RegularDurationYears(durationDays)
	if d == nil {
		return nil
	}
	if ytmPct == nil || math.IsNaN(*ytmPct) || math.IsInf(*ytmPct, 0) {
		return d
	}
	denom := 1 + *ytmPct/100
	if denom == 0 {
		return nil
	}
	v := *d / denom
	return &v
}

// PriceChangeForRateMove estimates the percent price change for the
// configured rate shift using modified duration. The result is positive:
// it is the approximate price gain for a rate drop of the same size, and
// presentation owns the sign and label.
func (c *Calculator) PriceChangeForRateMove(durationDays, ytmPct *float64) *float64 {
	md := c.ModifiedDurationYears(durationDays, ytmPct)
	if md == nil {
		return nil
	}
	v := *md * c.RateMovePct
	return &v
}

// CouponYieldToFace is the nominal coupon rate over the current price,
// in percent. Price is quoted in percent of face.
func (c *Calculator) CouponYieldToFace(couponPercent, pricePct *float64) *float64 {
	if couponPercent == nil || pricePct == nil || *pricePct == 0 {
		return nil
	}
	v := *couponPercent / *pricePct * 100
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// CouponYieldToPrice annualizes the coupon cash amount over the purchase
// cost, in percent. Frequency is the rounded payments-per-year figure from
// CouponFrequency.
func (c *Calculator) CouponYieldToPrice(couponValue, pricePct, faceValue *float64, freq *int) *float64 {
	if couponValue == nil || pricePct == nil || faceValue == nil || freq == nil {
		return nil
	}
	cost := *pricePct * *faceValue / 100
	if cost == 0 {
		return nil
	}
	v := *couponValue / cost * float64(*freq) * 100
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// CouponFrequency is the number of coupon payments per year, rounded to the
// nearest whole payment. A 91-day period maps to 4, 182 days to 2.
func (c *Calculator) CouponFrequency(couponPeriodDays *int) *int {
	if couponPeriodDays == nil || *couponPeriodDays <= 0 {
		return nil
	}
	n := int(math.Round(daysPerYear / float64(*couponPeriodDays)))
	if n < 1 {
		n = 1
	}
	return &n
}

// YearsToMaturity measures the horizon from now to the maturity date, as
// calendar days over 365. Already-matured bonds report a negative value;
// callers that cannot use a negative horizon (spread) guard on their side.
func (c *Calculator) YearsToMaturity(maturity *time.Time, now time.Time) *float64 {
	if maturity == nil {
		return nil
	}
	v := maturity.Sub(now).Hours() / 24 / daysPerYear
	return &v
}

// ComputeAll derives the full metric set for a bond against the given curve.
func (c *Calculator) ComputeAll(b *models.Bond, curve *models.Curve, now time.Time) models.DerivedMetrics {
	freq := c.CouponFrequency(b.CouponPeriod)
	m := models.DerivedMetrics{
		DurationYears:         c.RegularDurationYears(b.DurationDays),
		ModifiedDurationYears: c.ModifiedDurationYears(b.DurationDays, b.YieldToMaturity),
		PriceChangePct:        c.PriceChangeForRateMove(b.DurationDays, b.YieldToMaturity),
		CouponYieldToFace:     c.CouponYieldToFace(b.CouponPercent, b.Price),
		CouponYieldToPrice:    c.CouponYieldToPrice(b.CouponValue, b.Price, b.FaceValue, freq),
		CouponFrequency:       freq,
		YearsToMaturity:       c.YearsToMaturity(b.MaturityDate, now),
	}
	m.SpreadToCurve = Spread(b.YieldToMaturity, curve, m.YearsToMaturity)
	return m
}
