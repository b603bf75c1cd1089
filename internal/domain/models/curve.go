package models

import "time"

// CurveRecord is one row of the zero-coupon yield curve history as published
// upstream. Tenors maps the raw column label (for example "Срок 5 лет") to
// the yield in percent; TenorOrder preserves the upstream column order so
// that duplicate horizons resolve deterministically. TradeTime is the
// optional capture time ("HH:MM:SS"), empty when the source omits it; it
// breaks ties between records sharing a trade date.
type CurveRecord struct {
	TradeDate  time.Time
	TradeTime  string
	Tenors     map[string]float64
	TenorOrder []string
}

// Curve is a parsed yield curve keyed by horizon in years. Horizons is kept
// sorted ascending so interpolation can bracket a target in one pass.
type Curve struct {
	TradeDate time.Time
	Horizons  []float64
	Yields    map[float64]float64
}

// CurvePoint is a single (date, horizon, yield) observation. It is the unit
// written to the curve history backend.
type CurvePoint struct {
	TradeDate time.Time `json:"trade_date"`
	Horizon   float64   `json:"horizon_years"`
	Yield     float64   `json:"yield_pct"`
}
