package analytics

import (
	"math"
	"testing"
	"time"

	"BondPulse/internal/domain/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSelectLatestRecord(t *testing.T) {
	records := []models.CurveRecord{
		{TradeDate: date(2026, 8, 20), Tenors: map[string]float64{"Срок 1 лет": 5.0}},
		{TradeDate: date(2026, 8, 25), Tenors: map[string]float64{"Срок 1 лет": 5.2}},
		{TradeDate: date(2026, 8, 26), Tenors: map[string]float64{}},
		{TradeDate: date(2026, 8, 22), Tenors: map[string]float64{"Срок 1 лет": 5.1}},
	}
	got := SelectLatestRecord(records)
	if got == nil {
		t.Fatalf("expected a record")
	}
	if !got.TradeDate.Equal(date(2026, 8, 25)) {
		t.Fatalf("expected latest non-empty record, got %v", got.TradeDate)
	}
}

func TestSelectLatestRecordTimeTieBreak(t *testing.T) {
	records := []models.CurveRecord{
		{TradeDate: date(2026, 8, 26), TradeTime: "18:45:00", Tenors: map[string]float64{"Срок 1 лет": 5.3}},
		{TradeDate: date(2026, 8, 26), TradeTime: "10:00:00", Tenors: map[string]float64{"Срок 1 лет": 5.1}},
	}
	got := SelectLatestRecord(records)
	if got == nil || got.TradeTime != "18:45:00" {
		t.Fatalf("expected the later capture time to win, got %+v", got)
	}

	// Without times the later record in source order wins.
	records = []models.CurveRecord{
		{TradeDate: date(2026, 8, 26), Tenors: map[string]float64{"Срок 1 лет": 5.1}},
		{TradeDate: date(2026, 8, 26), Tenors: map[string]float64{"Срок 1 лет": 5.3}},
	}
	got = SelectLatestRecord(records)
	if got == nil || got.Tenors["Срок 1 лет"] != 5.3 {
		t.Fatalf("expected the later record to win the tie, got %+v", got)
	}
}

func TestSelectLatestRecordEmpty(t *testing.T) {
	if got := SelectLatestRecord(nil); got != nil {
		t.Fatalf("expected nil for no records")
	}
	empty := []models.CurveRecord{{TradeDate: date(2026, 8, 26)}}
	if got := SelectLatestRecord(empty); got != nil {
		t.Fatalf("expected nil when every record is empty")
	}
}

func TestBuildCurveCommaAndDotDecimals(t *testing.T) {
	rec := &models.CurveRecord{
		TradeDate: date(2026, 8, 26),
		Tenors: map[string]float64{
			"Срок 0,25 лет": 4.8,
			"Срок 0.5 лет":  4.9,
			"Срок 1 лет":    5.0,
			"Срок 30 лет":   7.2,
			"Дата":          0, // not a tenor column
		},
		TenorOrder: []string{"Дата", "Срок 0,25 лет", "Срок 0.5 лет", "Срок 1 лет", "Срок 30 лет"},
	}
	curve := BuildCurve(rec)
	if curve == nil {
		t.Fatalf("expected a curve")
	}
	want := []float64{0.25, 0.5, 1, 30}
	if len(curve.Horizons) != len(want) {
		t.Fatalf("horizons = %v", curve.Horizons)
	}
	for i, h := range want {
		if curve.Horizons[i] != h {
			t.Fatalf("horizons = %v, want %v", curve.Horizons, want)
		}
	}
	if curve.Yields[0.25] != 4.8 || curve.Yields[30] != 7.2 {
		t.Fatalf("unexpected yields %v", curve.Yields)
	}
}

func TestBuildCurveDuplicateHorizonLastWins(t *testing.T) {
	rec := &models.CurveRecord{
		TradeDate: date(2026, 8, 26),
		Tenors: map[string]float64{
			"Срок 3 лет":   6.0,
			"Срок 3,0 лет": 6.4,
		},
		TenorOrder: []string{"Срок 3 лет", "Срок 3,0 лет"},
	}
	curve := BuildCurve(rec)
	if curve == nil || len(curve.Horizons) != 1 {
		t.Fatalf("expected one horizon, got %+v", curve)
	}
	if curve.Yields[3] != 6.4 {
		t.Fatalf("expected later column to win, got %v", curve.Yields[3])
	}
}

func TestBuildCurveNothingUsable(t *testing.T) {
	rec := &models.CurveRecord{
		TradeDate:  date(2026, 8, 26),
		Tenors:     map[string]float64{"Дата": 0, "Время": 0},
		TenorOrder: []string{"Дата", "Время"},
	}
	if curve := BuildCurve(rec); curve != nil {
		t.Fatalf("expected nil curve, got %+v", curve)
	}
	if curve := BuildCurve(nil); curve != nil {
		t.Fatalf("expected nil for nil record")
	}
}

func testCurve() *models.Curve {
	return &models.Curve{
		TradeDate: date(2026, 8, 26),
		Horizons:  []float64{1, 3, 5},
		Yields:    map[float64]float64{1: 5.0, 3: 6.0, 5: 6.5},
	}
}

func TestInterpolateYieldAtKnot(t *testing.T) {
	v := InterpolateYield(testCurve(), 3)
	if v == nil || !almostEqual(*v, 6.0) {
		t.Fatalf("interpolate(3) = %v, want 6.0", v)
	}
}

func TestInterpolateYieldBetweenKnots(t *testing.T) {
	v := InterpolateYield(testCurve(), 2)
	if v == nil || !almostEqual(*v, 5.5) {
		t.Fatalf("interpolate(2) = %v, want 5.5", v)
	}
	v = InterpolateYield(testCurve(), 4)
	if v == nil || !almostEqual(*v, 6.25) {
		t.Fatalf("interpolate(4) = %v, want 6.25", v)
	}
}

func TestInterpolateYieldFlatExtrapolation(t *testing.T) {
	if v := InterpolateYield(testCurve(), 0.5); v == nil || *v != 5.0 {
		t.Fatalf("below range = %v, want 5.0", v)
	}
	if v := InterpolateYield(testCurve(), 12); v == nil || *v != 6.5 {
		t.Fatalf("above range = %v, want 6.5", v)
	}
}

func TestInterpolateYieldSinglePoint(t *testing.T) {
	// A one-entry curve answers its only yield for any horizon, zero and
	// negative included.
	curve := &models.Curve{
		Horizons: []float64{2},
		Yields:   map[float64]float64{2: 7.1},
	}
	for _, h := range []float64{-1, 0, 0.1, 2, 15} {
		if v := InterpolateYield(curve, h); v == nil || *v != 7.1 {
			t.Fatalf("single point curve at %v = %v, want 7.1", h, v)
		}
	}
}

func TestInterpolateYieldNonPositiveHorizonExtrapolatesFlat(t *testing.T) {
	// Zero and negative horizons sit below the first knot and answer its
	// yield; only the spread calculation rejects non-positive horizons.
	if v := InterpolateYield(testCurve(), 0); v == nil || *v != 5.0 {
		t.Fatalf("interpolate(0) = %v, want 5.0", v)
	}
	if v := InterpolateYield(testCurve(), -3); v == nil || *v != 5.0 {
		t.Fatalf("interpolate(-3) = %v, want 5.0", v)
	}
}

func TestInterpolateYieldUnavailable(t *testing.T) {
	if v := InterpolateYield(nil, 3); v != nil {
		t.Fatalf("nil curve must yield nil")
	}
	if v := InterpolateYield(&models.Curve{}, 3); v != nil {
		t.Fatalf("empty curve must yield nil")
	}
}

func TestInterpolateYieldMonotoneBetweenBrackets(t *testing.T) {
	// The interpolated value never leaves the bracketing yields.
	curve := testCurve()
	for h := 1.0; h <= 5.0; h += 0.125 {
		v := InterpolateYield(curve, h)
		if v == nil {
			t.Fatalf("unexpected nil at %v", h)
		}
		if *v < 5.0-1e-9 || *v > 6.5+1e-9 {
			t.Fatalf("interpolate(%v) = %v, outside curve range", h, *v)
		}
	}
}
