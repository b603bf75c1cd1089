package analytics

import (
	"testing"
	"time"

	"BondPulse/internal/domain/models"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func TestRegularDurationYears(t *testing.T) {
	c := NewCalculator(1)
	if v := c.RegularDurationYears(fp(365)); v == nil || !almostEqual(*v, 1.0) {
		t.Fatalf("365 days = %v, want 1.0", v)
	}
	if v := c.RegularDurationYears(fp(730)); v == nil || !almostEqual(*v, 2.0) {
		t.Fatalf("730 days = %v, want 2.0", v)
	}
}

func TestRegularDurationYearsUnavailable(t *testing.T) {
	c := NewCalculator(1)
	if v := c.RegularDurationYears(nil); v != nil {
		t.Fatalf("nil input must be unavailable")
	}
	if v := c.RegularDurationYears(fp(0)); v != nil {
		t.Fatalf("zero duration must be unavailable")
	}
	if v := c.RegularDurationYears(fp(-10)); v != nil {
		t.Fatalf("negative duration must be unavailable")
	}
}

func TestModifiedDurationYears(t *testing.T) {
	c := NewCalculator(1)
	// 365 days at 10% ytm: 1 / 1.10.
	if v := c.ModifiedDurationYears(fp(365), fp(10)); v == nil || !almostEqual(*v, 1.0/1.10) {
		t.Fatalf("got %v, want %v", v, 1.0/1.10)
	}
	// Missing ytm falls back to the unadjusted duration.
	if v := c.ModifiedDurationYears(fp(730), nil); v == nil || !almostEqual(*v, 2.0) {
		t.Fatalf("nil ytm fallback = %v, want 2.0", v)
	}
	if v := c.ModifiedDurationYears(nil, fp(10)); v != nil {
		t.Fatalf("no duration must be unavailable")
	}
}

func TestPriceChangeForRateMove(t *testing.T) {
	c := NewCalculator(1)
	// Modified duration 2.0 and a one-point move: about 2% of price. The
	// figure is reported unsigned; presentation owns the direction label.
	v := c.PriceChangeForRateMove(fp(730), nil)
	if v == nil || !almostEqual(*v, 2.0) {
		t.Fatalf("got %v, want 2.0", v)
	}
	c2 := NewCalculator(0.5)
	v = c2.PriceChangeForRateMove(fp(730), nil)
	if v == nil || !almostEqual(*v, 1.0) {
		t.Fatalf("half-point move = %v, want 1.0", v)
	}
	if v := c.PriceChangeForRateMove(nil, fp(10)); v != nil {
		t.Fatalf("no duration must be unavailable")
	}
}

func TestCouponYieldToFace(t *testing.T) {
	c := NewCalculator(1)
	// 7.5% nominal coupon at a price of 95% of face.
	v := c.CouponYieldToFace(fp(7.5), fp(95))
	if v == nil || !almostEqual(*v, 7.5/95*100) {
		t.Fatalf("got %v, want %v", v, 7.5/95*100)
	}
	if v := c.CouponYieldToFace(nil, fp(95)); v != nil {
		t.Fatalf("missing coupon must be unavailable")
	}
	if v := c.CouponYieldToFace(fp(7.5), nil); v != nil {
		t.Fatalf("missing price must be unavailable")
	}
	if v := c.CouponYieldToFace(fp(7.5), fp(0)); v != nil {
		t.Fatalf("zero price must be unavailable")
	}
}

func TestCouponYieldToPrice(t *testing.T) {
	c := NewCalculator(1)
	// 35 per payment, two payments a year, at 95% of 1000 face: cost 950.
	v := c.CouponYieldToPrice(fp(35), fp(95), fp(1000), ip(2))
	if v == nil || !almostEqual(*v, 35.0/950*2*100) {
		t.Fatalf("got %v, want %v", v, 35.0/950*2*100)
	}
	if v := c.CouponYieldToPrice(fp(35), nil, fp(1000), ip(2)); v != nil {
		t.Fatalf("missing price must be unavailable")
	}
	if v := c.CouponYieldToPrice(fp(35), fp(95), fp(1000), nil); v != nil {
		t.Fatalf("missing frequency must be unavailable")
	}
	if v := c.CouponYieldToPrice(fp(35), fp(0), fp(1000), ip(2)); v != nil {
		t.Fatalf("zero cost must be unavailable")
	}
}

func TestCouponFrequency(t *testing.T) {
	c := NewCalculator(1)
	cases := []struct {
		days int
		want int
	}{
		{91, 4},
		{182, 2},
		{365, 1},
		{30, 12},
		{700, 1}, // rounds below one payment, clamps to annual
	}
	for _, tc := range cases {
		v := c.CouponFrequency(ip(tc.days))
		if v == nil || *v != tc.want {
			t.Errorf("CouponFrequency(%d) = %v, want %d", tc.days, v, tc.want)
		}
	}
	if v := c.CouponFrequency(nil); v != nil {
		t.Fatalf("nil period must be unavailable")
	}
	if v := c.CouponFrequency(ip(-5)); v != nil {
		t.Fatalf("negative period must be unavailable")
	}
}

func TestYearsToMaturity(t *testing.T) {
	c := NewCalculator(1)
	now := date(2026, 8, 26)
	mat := date(2028, 8, 25)
	v := c.YearsToMaturity(&mat, now)
	if v == nil || *v < 1.99 || *v > 2.01 {
		t.Fatalf("got %v, want about 2 years", v)
	}
	if v := c.YearsToMaturity(nil, now); v != nil {
		t.Fatalf("nil maturity must be unavailable")
	}
}

func TestYearsToMaturityMaturedBondIsNegative(t *testing.T) {
	c := NewCalculator(1)
	now := date(2026, 8, 26)
	past := date(2025, 8, 26)
	v := c.YearsToMaturity(&past, now)
	if v == nil || *v > -0.99 || *v < -1.01 {
		t.Fatalf("matured bond = %v, want about -1 year", v)
	}
	// The negative horizon disables the spread, not the metric itself.
	curve := &models.Curve{Horizons: []float64{1}, Yields: map[float64]float64{1: 5}}
	if s := Spread(fp(8.5), curve, v); s != nil {
		t.Fatalf("spread for matured bond = %v, want unavailable", s)
	}
}

func TestComputeAllEndToEnd(t *testing.T) {
	c := NewCalculator(1)
	now := date(2026, 8, 26)
	// 2.5 years of calendar days exactly: 2.5 * 365 * 24 hours.
	mat := now.Add(21900 * time.Hour)
	curve := &models.Curve{
		TradeDate: now,
		Horizons:  []float64{1, 3, 5},
		Yields:    map[float64]float64{1: 5.2, 3: 6.0, 5: 6.5},
	}
	b := &models.Bond{
		SecID:           "RU000TEST001",
		MaturityDate:    &mat,
		CouponValue:     fp(35),
		CouponPercent:   fp(7.0),
		CouponPeriod:    ip(182),
		FaceValue:       fp(1000),
		Price:           fp(98.5),
		DurationDays:    fp(800),
		YieldToMaturity: fp(9.1),
	}
	m := c.ComputeAll(b, curve, now)
	if m.DurationYears == nil || m.ModifiedDurationYears == nil || m.CouponFrequency == nil {
		t.Fatalf("expected full metric set, got %+v", m)
	}
	if *m.CouponFrequency != 2 {
		t.Fatalf("frequency = %d, want 2", *m.CouponFrequency)
	}
	if m.CouponYieldToFace == nil || !almostEqual(*m.CouponYieldToFace, 7.0/98.5*100) {
		t.Fatalf("coupon yield to face = %v, want %v", m.CouponYieldToFace, 7.0/98.5*100)
	}
	if m.CouponYieldToPrice == nil || !almostEqual(*m.CouponYieldToPrice, 35.0/985*2*100) {
		t.Fatalf("coupon yield to price = %v, want %v", m.CouponYieldToPrice, 35.0/985*2*100)
	}
	// 2.5y horizon brackets [1,3]: benchmark 5.2 + 0.8*1.5/2 = 5.8; spread 3.3.
	if m.SpreadToCurve == nil || !almostEqual(*m.SpreadToCurve, 9.1-5.8) {
		t.Fatalf("spread = %v, want 3.3", m.SpreadToCurve)
	}
}

func TestComputeAllSparseBond(t *testing.T) {
	c := NewCalculator(1)
	m := c.ComputeAll(&models.Bond{SecID: "RU000TEST002"}, nil, date(2026, 8, 26))
	if m.DurationYears != nil || m.SpreadToCurve != nil || m.CouponYieldToFace != nil {
		t.Fatalf("all metrics must be unavailable for an empty bond: %+v", m)
	}
}
