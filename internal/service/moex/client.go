package moex

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"BondPulse/internal/domain/models"
	icache "BondPulse/internal/service/cache"
	imetrics "BondPulse/internal/service/metrics"
	"BondPulse/internal/service/ratelimit"
	pkgcache "BondPulse/pkg/cache"
	xhttp "BondPulse/pkg/http"
	"BondPulse/pkg/logger"
	"BondPulse/pkg/util"
)

// curveCacheTTL bounds how long a fetched curve window is reused before
// hitting the exchange again.
const curveCacheTTL = 5 * time.Minute

// Client fetches bond and yield-curve data from the exchange's ISS API.
type Client struct {
	http     *xhttp.Client
	log      *logger.Logger
	limiter  *ratelimit.Limiter
	cache    icache.BytesCache
	bondsURL string
	curveURL string
	rps      float64
	burst    float64
}

type Option func(*Client)

func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(c *Client) {
		c.rps = requestsPerSecond
		c.burst = float64(burst)
	}
}

// WithCache swaps the in-process curve cache for a shared one, so several
// instances behind Redis reuse the same fetched windows.
func WithCache(bc icache.BytesCache) Option {
	return func(c *Client) {
		if bc != nil {
			c.cache = bc
		}
	}
}

func NewClient(httpClient *xhttp.Client, log *logger.Logger, bondsURL, curveURL string, opts ...Option) *Client {
	c := &Client{
		http:     httpClient,
		log:      log,
		limiter:  ratelimit.New(),
		cache:    icache.NewTTLCache(),
		bondsURL: bondsURL,
		curveURL: curveURL,
		rps:      2,
		burst:    4,
	}
	for _, opt := range opts {
		opt(c)
	}
	imetrics.Register()
	return c
}

// bondsResponse mirrors the ISS bonds endpoint payload.
type bondsResponse struct {
	Securities Table `json:"securities"`
	MarketData Table `json:"marketdata"`
	Yields     Table `json:"marketdata_yields"`
}

// FetchBonds downloads and assembles the bond universe. Security attributes
// come from the securities table, duration from marketdata matched by
// SECID+BOARDID (SECID alone as a fallback), and yield figures from the
// first yields row per SECID.
func (c *Client) FetchBonds(ctx context.Context) ([]models.Bond, error) {
	if err := c.waitForToken(ctx, "bonds"); err != nil {
		return nil, err
	}

	var resp bondsResponse
	start := time.Now()
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.bondsURL,
		QueryParams: map[string][]string{
			"iss.meta": {"off"},
		},
	}, &resp)
	imetrics.UpstreamLatency.WithLabelValues("bonds").Observe(time.Since(start).Seconds())
	if err != nil {
		imetrics.UpstreamErrors.WithLabelValues("bonds").Inc()
		return nil, fmt.Errorf("fetch bonds: %w", err)
	}

	durByBoard := make(map[string]*float64)
	durBySecID := make(map[string]*float64)
	for _, row := range resp.MarketData.Rows() {
		secid := row.String("SECID")
		if secid == "" {
			continue
		}
		d := row.Float("DURATION")
		if d == nil {
			continue
		}
		durByBoard[secid+"|"+row.String("BOARDID")] = d
		if _, seen := durBySecID[secid]; !seen {
			durBySecID[secid] = d
		}
	}

	type yieldInfo struct {
		effective  *float64
		durationWA *float64
	}
	yieldBySecID := make(map[string]yieldInfo)
	for _, row := range resp.Yields.Rows() {
		secid := row.String("SECID")
		if secid == "" {
			continue
		}
		if _, seen := yieldBySecID[secid]; seen {
			continue
		}
		yieldBySecID[secid] = yieldInfo{
			effective:  row.Float("EFFECTIVEYIELD"),
			durationWA: row.Float("DURATIONWAPRICE"),
		}
	}

	priceBySecID := make(map[string]*float64)
	for _, row := range resp.MarketData.Rows() {
		secid := row.String("SECID")
		if secid == "" || priceBySecID[secid] != nil {
			continue
		}
		priceBySecID[secid] = row.Float("LAST")
	}

	bonds := make([]models.Bond, 0, len(resp.Securities.Data))
	for _, row := range resp.Securities.Rows() {
		secid := row.String("SECID")
		if secid == "" {
			continue
		}
		b := models.Bond{
			SecID:         secid,
			BoardID:       row.String("BOARDID"),
			ShortName:     row.String("SHORTNAME"),
			ISIN:          row.String("ISIN"),
			CouponValue:   row.Float("COUPONVALUE"),
			CouponPercent: row.Float("COUPONPERCENT"),
			CouponPeriod:  row.Int("COUPONPERIOD"),
			FaceValue:     row.Float("FACEVALUE"),
			FaceUnit:      row.String("FACEUNIT"),
			ListLevel:     row.Int("LISTLEVEL"),
			AccruedInt:    row.Float("ACCRUEDINT"),
		}
		if d, ok := util.ParseISSDate(row.String("MATDATE")); ok {
			b.MaturityDate = &d
		}
		if d, ok := util.ParseISSDate(row.String("NEXTCOUPON")); ok {
			b.NextCouponDate = &d
		}
		if dur, ok := durByBoard[secid+"|"+b.BoardID]; ok {
			b.DurationDays = dur
		} else {
			b.DurationDays = durBySecID[secid]
		}
		b.Price = priceBySecID[secid]
		if yi, ok := yieldBySecID[secid]; ok {
			b.YieldToMaturity = yi.effective
			b.DurationWA = yi.durationWA
		}
		bonds = append(bonds, b)
	}

	c.log.Info("bonds fetched",
		logger.Int("securities", len(resp.Securities.Data)),
		logger.Int("assembled", len(bonds)))
	return bonds, nil
}

// curveResponse mirrors the ISS zero-coupon yield curve payload.
type curveResponse struct {
	Curve Table `json:"params"`
}

// FetchCurveHistory downloads curve records for the given date range. The
// date column is recognized by name; every other column is carried as a raw
// tenor label for the curve builder to interpret.
func (c *Client) FetchCurveHistory(ctx context.Context, from, to time.Time) ([]models.CurveRecord, error) {
	cacheKey := pkgcache.GenerateKeyWithParams("curve", from.Format("2006-01-02"), to.Format("2006-01-02"))
	if b, ok, _ := c.cache.GetBytes(cacheKey); ok {
		var cached []models.CurveRecord
		if err := json.Unmarshal(b, &cached); err == nil {
			return cached, nil
		}
	}

	if err := c.waitForToken(ctx, "curve"); err != nil {
		return nil, err
	}

	var resp curveResponse
	start := time.Now()
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.curveURL,
		QueryParams: map[string][]string{
			"iss.meta": {"off"},
			"from":     {from.Format("2006-01-02")},
			"till":     {to.Format("2006-01-02")},
		},
	}, &resp)
	imetrics.UpstreamLatency.WithLabelValues("curve").Observe(time.Since(start).Seconds())
	if err != nil {
		imetrics.UpstreamErrors.WithLabelValues("curve").Inc()
		return nil, fmt.Errorf("fetch curve: %w", err)
	}

	records := parseCurveTable(&resp.Curve)
	if b, err := json.Marshal(records); err == nil {
		_ = c.cache.SetBytes(cacheKey, b, curveCacheTTL)
	}
	c.log.Info("curve fetched",
		logger.Int("rows", len(resp.Curve.Data)),
		logger.Int("records", len(records)))
	return records, nil
}

// dateColumns are the labels under which the curve table publishes the
// trade date; timeColumns the optional capture time.
var dateColumns = map[string]bool{
	"Дата":      true,
	"tradedate": true,
	"TRADEDATE": true,
}

var timeColumns = map[string]bool{
	"Время":     true,
	"tradetime": true,
	"TRADETIME": true,
}

func parseCurveTable(t *Table) []models.CurveRecord {
	records := make([]models.CurveRecord, 0, len(t.Data))
	for _, row := range t.Rows() {
		var rec models.CurveRecord
		var hasDate bool
		rec.Tenors = make(map[string]float64)
		for _, col := range t.Columns {
			cell, present := row[col]
			if !present {
				continue
			}
			if dateColumns[col] {
				if s := util.StringCell(cell); s != nil {
					if d, ok := util.ParseCurveDate(*s); ok {
						rec.TradeDate = d
						hasDate = true
					}
				}
				continue
			}
			if timeColumns[col] {
				if s := util.StringCell(cell); s != nil {
					rec.TradeTime = *s
				}
				continue
			}
			if v := util.FloatCell(cell); v != nil {
				rec.Tenors[col] = *v
				rec.TenorOrder = append(rec.TenorOrder, col)
			}
		}
		if !hasDate || len(rec.Tenors) == 0 {
			continue
		}
		records = append(records, rec)
	}
	return records
}

func (c *Client) waitForToken(ctx context.Context, key string) error {
	wait := c.limiter.Reserve("moex:"+key, c.burst, c.rps)
	if wait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
