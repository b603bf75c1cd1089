package models

// DerivedMetrics holds analytics computed per bond. Every field is a pointer;
// nil means the metric could not be derived from the inputs, never an error.
type DerivedMetrics struct {
	DurationYears         *float64
	ModifiedDurationYears *float64
	PriceChangePct        *float64 // price move for the configured rate shift
	CouponYieldToFace     *float64
	CouponYieldToPrice    *float64
	CouponFrequency       *int // payments per year
	YearsToMaturity       *float64
	SpreadToCurve         *float64 // ytm minus interpolated benchmark, percentage points
}
