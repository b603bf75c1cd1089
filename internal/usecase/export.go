package usecase

import (
	"context"
	"time"

	"BondPulse/internal/domain/models"
	"BondPulse/pkg/util"
)

// ExportDocument is the downloadable screener report: a metadata block, a
// legend for every exported field and the data rows themselves.
type ExportDocument struct {
	Metadata          ExportMetadata    `json:"metadata"`
	FieldDescriptions map[string]string `json:"field_descriptions"`
	Data              []ExportRow       `json:"data"`
}

type ExportMetadata struct {
	GeneratedAt time.Time `json:"generated_at"`
	FetchedAt   time.Time `json:"fetched_at"`
	CurveDate   string    `json:"curve_date,omitempty"`
	BondCount   int       `json:"bond_count"`
	Source      string    `json:"source"`
}

type ExportRow struct {
	SecID              string   `json:"secid"`
	ShortName          string   `json:"shortname"`
	ISIN               string   `json:"isin,omitempty"`
	MaturityDate       string   `json:"matdate,omitempty"`
	CouponPercent      *float64 `json:"coupon_percent,omitempty"`
	CouponValue        *float64 `json:"coupon_value,omitempty"`
	FaceValue          *float64 `json:"face_value,omitempty"`
	FaceUnit           string   `json:"face_unit,omitempty"`
	ListLevel          *int     `json:"listlevel,omitempty"`
	Price              *float64 `json:"price,omitempty"`
	YieldToMaturity    *float64 `json:"ytm,omitempty"`
	DurationYears      *float64 `json:"duration_years,omitempty"`
	ModifiedDuration   *float64 `json:"modified_duration_years,omitempty"`
	PriceChangePct     *float64 `json:"price_change_pct,omitempty"`
	CouponYieldToFace  *float64 `json:"coupon_yield_to_face,omitempty"`
	CouponYieldToPrice *float64 `json:"coupon_yield_to_price,omitempty"`
	CouponFrequency    *int     `json:"coupon_frequency,omitempty"`
	YearsToMaturity    *float64 `json:"years_to_maturity,omitempty"`
	SpreadToCurve      *float64 `json:"spread_to_curve,omitempty"`
}

var exportFieldDescriptions = map[string]string{
	"secid":                   "Exchange security identifier",
	"shortname":               "Short security name",
	"isin":                    "International securities identification number",
	"matdate":                 "Maturity date, YYYY-MM-DD",
	"coupon_percent":          "Coupon rate, percent of face per year",
	"coupon_value":            "Coupon amount per period, currency units",
	"face_value":              "Face value, currency units",
	"face_unit":               "Face value currency",
	"listlevel":               "Exchange listing level",
	"price":                   "Last price, percent of face",
	"ytm":                     "Effective yield to maturity, percent",
	"duration_years":          "Duration in years",
	"modified_duration_years": "Duration adjusted for yield, years",
	"price_change_pct":        "Estimated price change for the configured rate move, percent",
	"coupon_yield_to_face":    "Nominal coupon rate over current price, percent",
	"coupon_yield_to_price":   "Annualized coupon amount over purchase cost, percent",
	"coupon_frequency":        "Coupon payments per year",
	"years_to_maturity":       "Years until maturity",
	"spread_to_curve":         "Yield spread over the zero-coupon curve, percentage points",
}

// Export builds the full report for the current snapshot after applying the
// request filters.
func (s *Screener) Export(ctx context.Context, req *models.BondsRequest) (*ExportDocument, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]models.ScreenedBond, 0, len(snap.Bonds))
	for _, b := range snap.Bonds {
		if matchBond(&b, req) {
			matched = append(matched, b)
		}
	}
	sortBonds(matched, req.SortBy, req.Order)

	doc := &ExportDocument{
		Metadata: ExportMetadata{
			GeneratedAt: time.Now(),
			FetchedAt:   snap.FetchedAt,
			BondCount:   len(matched),
			Source:      "moex-iss",
		},
		FieldDescriptions: exportFieldDescriptions,
		Data:              make([]ExportRow, 0, len(matched)),
	}
	if snap.Curve != nil {
		doc.Metadata.CurveDate = util.FormatCurveDate(snap.Curve.TradeDate)
	}

	for _, b := range matched {
		row := ExportRow{
			SecID:              b.SecID,
			ShortName:          b.ShortName,
			ISIN:               b.ISIN,
			CouponPercent:      b.CouponPercent,
			CouponValue:        b.CouponValue,
			FaceValue:          b.FaceValue,
			FaceUnit:           b.FaceUnit,
			ListLevel:          b.ListLevel,
			Price:              b.Price,
			YieldToMaturity:    b.YieldToMaturity,
			DurationYears:      b.Metrics.DurationYears,
			ModifiedDuration:   b.Metrics.ModifiedDurationYears,
			PriceChangePct:     b.Metrics.PriceChangePct,
			CouponYieldToFace:  b.Metrics.CouponYieldToFace,
			CouponYieldToPrice: b.Metrics.CouponYieldToPrice,
			CouponFrequency:    b.Metrics.CouponFrequency,
			YearsToMaturity:    b.Metrics.YearsToMaturity,
			SpreadToCurve:      b.Metrics.SpreadToCurve,
		}
		if b.MaturityDate != nil {
			row.MaturityDate = b.MaturityDate.Format("2006-01-02")
		}
		doc.Data = append(doc.Data, row)
	}

	return doc, nil
}
