package usecase

import (
	"context"
	"testing"
	"time"

	"BondPulse/internal/domain/models"
	"BondPulse/internal/services/analytics"
	"BondPulse/pkg/logger"
)

type fakeSource struct {
	bonds   []models.Bond
	records []models.CurveRecord
	err     error
}

func (f *fakeSource) FetchBonds(ctx context.Context) ([]models.Bond, error) {
	return f.bonds, f.err
}

func (f *fakeSource) FetchCurveHistory(ctx context.Context, from, to time.Time) ([]models.CurveRecord, error) {
	return f.records, f.err
}

type nopMetrics struct{}

func (nopMetrics) RecordMessageSent(backend, tenor string)  {}
func (nopMetrics) RecordError(kind string)                  {}
func (nopMetrics) RecordRefresh(source, status string)      {}
func (nopMetrics) RecordBondsLoaded(n int)                  {}
func (nopMetrics) RecordCurveDate(unixSeconds int64)        {}
func (nopMetrics) RecordRowsServed(endpoint string, n int)  {}
func (nopMetrics) RecordLatency(op string, seconds float64) {}

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func testBonds() []models.Bond {
	mat1 := time.Now().AddDate(2, 0, 0)
	mat2 := time.Now().AddDate(5, 0, 0)
	return []models.Bond{
		{
			SecID:           "RU000AAA",
			ShortName:       "Alpha",
			FaceUnit:        "RUB",
			ListLevel:       ip(1),
			CouponPercent:   fp(8.0),
			CouponValue:     fp(40),
			CouponPeriod:    ip(182),
			FaceValue:       fp(1000),
			Price:           fp(98.5),
			MaturityDate:    &mat1,
			DurationDays:    fp(600),
			YieldToMaturity: fp(9.0),
		},
		{
			SecID:           "RU000BBB",
			ShortName:       "Beta",
			FaceUnit:        "USD",
			ListLevel:       ip(2),
			CouponPercent:   fp(5.0),
			MaturityDate:    &mat2,
			DurationDays:    fp(1500),
			YieldToMaturity: fp(6.5),
		},
		{
			SecID:     "RU000CCC",
			ShortName: "Gamma",
			FaceUnit:  "RUB",
			// No coupon, duration or yield published.
		},
	}
}

func testRecords() []models.CurveRecord {
	return []models.CurveRecord{
		{
			TradeDate: time.Now().Truncate(24 * time.Hour),
			Tenors: map[string]float64{
				"Срок 1 лет": 5.0,
				"Срок 3 лет": 6.0,
				"Срок 5 лет": 6.5,
			},
			TenorOrder: []string{"Срок 1 лет", "Срок 3 лет", "Срок 5 лет"},
		},
	}
}

func newTestScreener(t *testing.T, src *fakeSource) *Screener {
	t.Helper()
	return NewScreener(src, analytics.NewCalculator(1), nil, nil, nopMetrics{}, testLogger(t), 365, time.Minute)
}

func TestScreenerRefreshAndQuery(t *testing.T) {
	s := newTestScreener(t, &fakeSource{bonds: testBonds(), records: testRecords()})
	ctx := context.Background()

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	req := &models.BondsRequest{SortBy: "secid", Order: "asc", Limit: 100}
	bonds, total, err := s.Query(ctx, req)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if total != 3 || len(bonds) != 3 {
		t.Fatalf("total = %d, rows = %d", total, len(bonds))
	}
	// Alpha has full inputs, so every metric should derive.
	if bonds[0].Metrics.SpreadToCurve == nil || bonds[0].Metrics.CouponYieldToFace == nil {
		t.Fatalf("expected derived metrics for %s: %+v", bonds[0].SecID, bonds[0].Metrics)
	}
	// Gamma published nothing, so every metric is unavailable.
	if bonds[2].Metrics.DurationYears != nil || bonds[2].Metrics.SpreadToCurve != nil {
		t.Fatalf("expected no metrics for %s", bonds[2].SecID)
	}
}

func TestScreenerQueryBeforeRefresh(t *testing.T) {
	s := newTestScreener(t, &fakeSource{})
	_, _, err := s.Query(context.Background(), &models.BondsRequest{Limit: 10})
	if err != ErrNoSnapshot {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestScreenerFilters(t *testing.T) {
	s := newTestScreener(t, &fakeSource{bonds: testBonds(), records: testRecords()})
	ctx := context.Background()
	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	// Coupon filter drops bonds without a published coupon.
	bonds, total, err := s.Query(ctx, &models.BondsRequest{CouponMin: fp(6), Limit: 100})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if total != 1 || bonds[0].SecID != "RU000AAA" {
		t.Fatalf("coupon_min filter: total=%d bonds=%v", total, bonds)
	}

	_, total, err = s.Query(ctx, &models.BondsRequest{FaceUnit: "rub", Limit: 100})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if total != 2 {
		t.Fatalf("faceunit filter: total=%d", total)
	}

	_, total, err = s.Query(ctx, &models.BondsRequest{ListLevel: ip(2), Limit: 100})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if total != 1 {
		t.Fatalf("listlevel filter: total=%d", total)
	}
}

func TestScreenerSortMissingValuesSink(t *testing.T) {
	s := newTestScreener(t, &fakeSource{bonds: testBonds(), records: testRecords()})
	ctx := context.Background()
	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	bonds, _, err := s.Query(ctx, &models.BondsRequest{SortBy: "ytm", Order: "desc", Limit: 100})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if bonds[0].SecID != "RU000AAA" {
		t.Fatalf("desc ytm first = %s", bonds[0].SecID)
	}
	if bonds[len(bonds)-1].SecID != "RU000CCC" {
		t.Fatalf("bond without ytm must sort last, got %s", bonds[len(bonds)-1].SecID)
	}
}

func TestScreenerPagination(t *testing.T) {
	s := newTestScreener(t, &fakeSource{bonds: testBonds(), records: testRecords()})
	ctx := context.Background()
	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	bonds, total, err := s.Query(ctx, &models.BondsRequest{SortBy: "secid", Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if total != 3 || len(bonds) != 1 || bonds[0].SecID != "RU000CCC" {
		t.Fatalf("pagination: total=%d rows=%d", total, len(bonds))
	}

	bonds, total, err = s.Query(ctx, &models.BondsRequest{Limit: 2, Offset: 10})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if total != 3 || len(bonds) != 0 {
		t.Fatalf("offset past end: total=%d rows=%d", total, len(bonds))
	}
}

func TestScreenerGetBondAndCompare(t *testing.T) {
	s := newTestScreener(t, &fakeSource{bonds: testBonds(), records: testRecords()})
	ctx := context.Background()
	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	b, err := s.GetBond(ctx, "RU000BBB")
	if err != nil || b.ShortName != "Beta" {
		t.Fatalf("get bond: %v %v", b, err)
	}
	if _, err := s.GetBond(ctx, "RU000XXX"); err != ErrBondNotFound {
		t.Fatalf("expected ErrBondNotFound, got %v", err)
	}

	found, missing, err := s.Compare(ctx, []string{"RU000CCC", "RU000XXX", "RU000AAA"})
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(found) != 2 || found[0].SecID != "RU000CCC" || found[1].SecID != "RU000AAA" {
		t.Fatalf("compare order: %v", found)
	}
	if len(missing) != 1 || missing[0] != "RU000XXX" {
		t.Fatalf("missing = %v", missing)
	}
}

func TestScreenerOnRefreshNotifies(t *testing.T) {
	s := newTestScreener(t, &fakeSource{bonds: testBonds(), records: testRecords()})
	var got *models.BondSnapshot
	s.OnRefresh(func(snap *models.BondSnapshot) { got = snap })

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got == nil || len(got.Bonds) != 3 {
		t.Fatalf("listener not notified: %+v", got)
	}
}

func TestScreenerExport(t *testing.T) {
	s := newTestScreener(t, &fakeSource{bonds: testBonds(), records: testRecords()})
	ctx := context.Background()
	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	doc, err := s.Export(ctx, &models.BondsRequest{SortBy: "secid", Limit: 100})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if doc.Metadata.BondCount != 3 || len(doc.Data) != 3 {
		t.Fatalf("export rows: %d", len(doc.Data))
	}
	if doc.Metadata.CurveDate == "" {
		t.Fatalf("export metadata must carry the curve date")
	}
	if _, ok := doc.FieldDescriptions["spread_to_curve"]; !ok {
		t.Fatalf("field descriptions incomplete")
	}
	if doc.Data[0].SecID != "RU000AAA" || doc.Data[0].SpreadToCurve == nil {
		t.Fatalf("export row: %+v", doc.Data[0])
	}
}
