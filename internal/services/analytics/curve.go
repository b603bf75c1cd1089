package analytics

import (
	"regexp"
	"sort"

	"BondPulse/internal/domain/models"
	"BondPulse/pkg/util"
)

// tenorPattern matches the upstream curve column labels, for example
// "Срок 0,25 лет" or "Срок 30 лет". The captured group is the horizon
// in years with either a comma or a dot as the decimal separator.
var tenorPattern = regexp.MustCompile(`Срок\s+([0-9]+(?:[.,][0-9]+)?)\s+лет`)

// SelectLatestRecord picks the curve record with the most recent trade date.
// Same-date ties go to the most recent capture time when populated, then to
// the later record in source order. Records without any tenor data are
// skipped. Returns nil when no record qualifies.
func SelectLatestRecord(records []models.CurveRecord) *models.CurveRecord {
	var latest *models.CurveRecord
	for i := range records {
		r := &records[i]
		if len(r.Tenors) == 0 {
			continue
		}
		if latest == nil || supersedes(r, latest) {
			latest = r
		}
	}
	return latest
}

// supersedes reports whether r replaces cur as the latest record. TradeTime
// is "HH:MM:SS", so lexicographic comparison is chronological; an absent
// time sorts before any populated one.
func supersedes(r, cur *models.CurveRecord) bool {
	if !r.TradeDate.Equal(cur.TradeDate) {
		return r.TradeDate.After(cur.TradeDate)
	}
	return r.TradeTime >= cur.TradeTime
}

// BuildCurve extracts horizon/yield pairs from a raw curve record. Columns
// whose label does not match the tenor pattern are ignored, as are values
// that fail to parse. When two labels map to the same horizon the later
// column in upstream order wins. Returns nil when nothing usable remains.
func BuildCurve(record *models.CurveRecord) *models.Curve {
	if record == nil {
		return nil
	}

	order := record.TenorOrder
	if len(order) == 0 {
		order = make([]string, 0, len(record.Tenors))
		for label := range record.Tenors {
			order = append(order, label)
		}
		sort.Strings(order)
	}

	yields := make(map[float64]float64)
	for _, label := range order {
		yield, ok := record.Tenors[label]
		if !ok {
			continue
		}
		m := tenorPattern.FindStringSubmatch(label)
		if m == nil {
			continue
		}
		horizon, ok := util.ParseDecimal(m[1])
		if !ok || horizon <= 0 {
			continue
		}
		yields[horizon] = yield
	}
	if len(yields) == 0 {
		return nil
	}

	horizons := make([]float64, 0, len(yields))
	for h := range yields {
		horizons = append(horizons, h)
	}
	sort.Float64s(horizons)

	return &models.Curve{
		TradeDate: record.TradeDate,
		Horizons:  horizons,
		Yields:    yields,
	}
}

// InterpolateYield returns the curve yield at the target horizon using
// linear interpolation between the bracketing knots. Targets outside the
// curve's range extrapolate flat to the nearest endpoint, so any horizon
// at or below the first knot answers the first knot's yield. Returns nil
// only for a nil or empty curve.
func InterpolateYield(curve *models.Curve, years float64) *float64 {
	if curve == nil || len(curve.Horizons) == 0 {
		return nil
	}

	hs := curve.Horizons
	if years <= hs[0] {
		v := curve.Yields[hs[0]]
		return &v
	}
	if years >= hs[len(hs)-1] {
		v := curve.Yields[hs[len(hs)-1]]
		return &v
	}

	// sort.SearchFloat64s finds the first knot >= years; the previous knot
	// is the lower bracket. Both exist because of the endpoint checks above.
	i := sort.SearchFloat64s(hs, years)
	lo, hi := hs[i-1], hs[i]
	yLo, yHi := curve.Yields[lo], curve.Yields[hi]
	if hi == lo {
		v := yLo
		return &v
	}
	v := yLo + (yHi-yLo)*(years-lo)/(hi-lo)
	return &v
}
