package analytics

import (
	"testing"

	"BondPulse/internal/domain/models"
)

func TestSpread(t *testing.T) {
	curve := testCurve() // knots 1:5.0, 3:6.0, 5:6.5
	v := Spread(fp(8.5), curve, fp(3))
	if v == nil || !almostEqual(*v, 2.5) {
		t.Fatalf("spread = %v, want 2.5", v)
	}
}

func TestSpreadInterpolated(t *testing.T) {
	curve := testCurve()
	// Horizon 2 interpolates to 5.5.
	v := Spread(fp(8.0), curve, fp(2))
	if v == nil || !almostEqual(*v, 2.5) {
		t.Fatalf("spread = %v, want 2.5", v)
	}
}

func TestSpreadUnavailable(t *testing.T) {
	curve := testCurve()
	if v := Spread(nil, curve, fp(3)); v != nil {
		t.Fatalf("nil ytm must be unavailable")
	}
	if v := Spread(fp(8.5), nil, fp(3)); v != nil {
		t.Fatalf("nil curve must be unavailable")
	}
	if v := Spread(fp(8.5), curve, nil); v != nil {
		t.Fatalf("nil horizon must be unavailable")
	}
	if v := Spread(fp(8.5), curve, fp(0)); v != nil {
		t.Fatalf("zero horizon must be unavailable")
	}
	if v := Spread(fp(8.5), curve, fp(-2)); v != nil {
		t.Fatalf("negative horizon must be unavailable")
	}
}

func TestSpreadEndToEndFromRawRecord(t *testing.T) {
	// Raw upstream record with comma decimals through to a spread figure.
	rec := &models.CurveRecord{
		TradeDate: date(2026, 8, 26),
		Tenors: map[string]float64{
			"Срок 1 лет": 5.20,
			"Срок 3 лет": 6.00,
			"Срок 5 лет": 6.50,
		},
		TenorOrder: []string{"Срок 1 лет", "Срок 3 лет", "Срок 5 лет"},
	}
	curve := BuildCurve(rec)
	if curve == nil {
		t.Fatalf("expected curve")
	}
	// ytm 9.1 at 2.5 years: benchmark 5.8, spread 3.3.
	v := Spread(fp(9.1), curve, fp(2.5))
	if v == nil || !almostEqual(*v, 3.3) {
		t.Fatalf("spread = %v, want 3.3", v)
	}
}
