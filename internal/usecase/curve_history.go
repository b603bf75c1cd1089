package usecase

import (
	"context"
	"sort"
	"time"

	"BondPulse/internal/domain/models"
	drepo "BondPulse/internal/domain/repository"
	"BondPulse/pkg/util"
)

// CurveHistory answers range queries over the persisted curve history.
type CurveHistory struct {
	store   drepo.CurveStore
	metrics drepo.Metrics
}

func NewCurveHistory(store drepo.CurveStore, metrics drepo.Metrics) *CurveHistory {
	return &CurveHistory{store: store, metrics: metrics}
}

// Query fetches stored curve points for the requested window. An empty
// window defaults to the last n days.
func (h *CurveHistory) Query(ctx context.Context, req *models.CurveHistoryRequest) ([]*models.CurvePoint, error) {
	now := time.Now()
	from := util.ParseDateDefault(req.From, now.AddDate(0, 0, -req.N))
	to := util.ParseDateDefault(req.To, now)

	limit := req.N * 32 // generous per-day tenor allowance
	points, err := h.store.Query(ctx, from, to, limit)
	if err != nil {
		h.metrics.RecordError("curve_query")
		return nil, err
	}
	return points, nil
}

// CurveExportDocument is the downloadable curve history report.
type CurveExportDocument struct {
	Metadata          CurveExportMetadata  `json:"metadata"`
	FieldDescriptions map[string]string    `json:"field_descriptions"`
	Data              []*models.CurvePoint `json:"data"`
}

type CurveExportMetadata struct {
	GeneratedAt time.Time `json:"generated_at"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	RowCount    int       `json:"row_count"`
	Source      string    `json:"source"`
}

var curveFieldDescriptions = map[string]string{
	"trade_date":    "Curve trade date",
	"horizon_years": "Tenor in years",
	"yield_pct":     "Zero-coupon yield, percent",
}

// Export builds the downloadable report for the requested window.
func (h *CurveHistory) Export(ctx context.Context, req *models.CurveHistoryRequest) (*CurveExportDocument, error) {
	points, err := h.Query(ctx, req)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	doc := &CurveExportDocument{
		Metadata: CurveExportMetadata{
			GeneratedAt: now,
			From:        util.ParseDateDefault(req.From, now.AddDate(0, 0, -req.N)).Format("2006-01-02"),
			To:          util.ParseDateDefault(req.To, now).Format("2006-01-02"),
			RowCount:    len(points),
			Source:      "moex-iss",
		},
		FieldDescriptions: curveFieldDescriptions,
		Data:              points,
	}
	if doc.Data == nil {
		doc.Data = []*models.CurvePoint{}
	}
	return doc, nil
}

// Curves groups stored points into per-date curves, newest first.
func (h *CurveHistory) Curves(ctx context.Context, req *models.CurveHistoryRequest) ([]*models.Curve, error) {
	points, err := h.Query(ctx, req)
	if err != nil {
		return nil, err
	}

	byDate := make(map[time.Time]*models.Curve)
	for _, p := range points {
		day := p.TradeDate.Truncate(24 * time.Hour)
		c, ok := byDate[day]
		if !ok {
			c = &models.Curve{TradeDate: day, Yields: make(map[float64]float64)}
			byDate[day] = c
		}
		if _, dup := c.Yields[p.Horizon]; !dup {
			c.Horizons = append(c.Horizons, p.Horizon)
		}
		c.Yields[p.Horizon] = p.Yield
	}

	curves := make([]*models.Curve, 0, len(byDate))
	for _, c := range byDate {
		sort.Float64s(c.Horizons)
		curves = append(curves, c)
	}
	sort.Slice(curves, func(i, j int) bool {
		return curves[i].TradeDate.After(curves[j].TradeDate)
	})
	return curves, nil
}
