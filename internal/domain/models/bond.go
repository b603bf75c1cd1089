package models

import "time"

// Bond is a single security row assembled from the exchange's securities,
// marketdata and yields tables. Optional fields are pointers; nil means the
// exchange did not publish the value.
type Bond struct {
	SecID           string
	BoardID         string
	ShortName       string
	ISIN            string
	MaturityDate    *time.Time
	CouponValue     *float64
	CouponPercent   *float64
	CouponPeriod    *int
	NextCouponDate  *time.Time
	FaceValue       *float64
	FaceUnit        string
	ListLevel       *int
	Price           *float64 // last price, percent of face
	AccruedInt      *float64
	DurationDays    *float64 // from marketdata, matched by SECID+BOARDID
	DurationWA      *float64 // duration to weighted average price, from yields
	YieldToMaturity *float64
}

// ScreenedBond is a Bond enriched with derived analytics.
type ScreenedBond struct {
	Bond
	Metrics DerivedMetrics
}

// BondSnapshot is the full screener state produced by one refresh run.
type BondSnapshot struct {
	Bonds     []ScreenedBond
	Curve     *Curve
	FetchedAt time.Time
}
