package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"BondPulse/internal/domain/models"
	drepo "BondPulse/internal/domain/repository"
	"BondPulse/internal/services/analytics"
	"BondPulse/pkg/cache"
	"BondPulse/pkg/logger"
	"BondPulse/pkg/util"
)

const snapshotCacheKey = "bondpulse:snapshot"

// ErrNoSnapshot is returned when the screener has not completed a refresh yet.
var ErrNoSnapshot = fmt.Errorf("no snapshot available")

// ErrBondNotFound is returned when a SECID is absent from the snapshot.
var ErrBondNotFound = fmt.Errorf("bond not found")

// Screener owns the current bond snapshot and answers all read queries. A
// refresh pulls the bond universe and curve history upstream, derives the
// per-bond metrics against the latest curve and atomically swaps the
// snapshot.
type Screener struct {
	source      drepo.BondSource
	calc        *analytics.Calculator
	processor   *CurveProcessor
	cache       cache.Service
	metrics     drepo.Metrics
	log         *logger.Logger
	historyDays int
	cacheTTL    time.Duration

	mu       sync.RWMutex
	snapshot *models.BondSnapshot

	listenerMu sync.Mutex
	listeners  []func(*models.BondSnapshot)
}

func NewScreener(
	source drepo.BondSource,
	calc *analytics.Calculator,
	processor *CurveProcessor,
	cacheSvc cache.Service,
	metrics drepo.Metrics,
	log *logger.Logger,
	historyDays int,
	cacheTTL time.Duration,
) *Screener {
	if historyDays <= 0 {
		historyDays = 365
	}
	return &Screener{
		source:      source,
		calc:        calc,
		processor:   processor,
		cache:       cacheSvc,
		metrics:     metrics,
		log:         log,
		historyDays: historyDays,
		cacheTTL:    cacheTTL,
	}
}

// OnRefresh registers a callback invoked after every successful refresh.
func (s *Screener) OnRefresh(fn func(*models.BondSnapshot)) {
	s.listenerMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.listenerMu.Unlock()
}

// Refresh pulls fresh data upstream and rebuilds the snapshot.
func (s *Screener) Refresh(ctx context.Context) error {
	start := time.Now()

	bonds, err := s.source.FetchBonds(ctx)
	if err != nil {
		s.metrics.RecordRefresh("moex", "error")
		s.metrics.RecordError("fetch_bonds")
		return fmt.Errorf("refresh bonds: %w", err)
	}

	now := time.Now()
	records, err := s.source.FetchCurveHistory(ctx, now.AddDate(0, 0, -s.historyDays), now)
	if err != nil {
		s.metrics.RecordRefresh("moex", "error")
		s.metrics.RecordError("fetch_curve")
		return fmt.Errorf("refresh curve: %w", err)
	}

	curve := analytics.BuildCurve(analytics.SelectLatestRecord(records))
	if curve == nil {
		s.log.Warn("no usable curve record, spreads will be unavailable",
			logger.Int("records", len(records)))
	} else {
		s.metrics.RecordCurveDate(curve.TradeDate.Unix())
	}

	screened := make([]models.ScreenedBond, 0, len(bonds))
	for i := range bonds {
		screened = append(screened, models.ScreenedBond{
			Bond:    bonds[i],
			Metrics: s.calc.ComputeAll(&bonds[i], curve, now),
		})
	}

	snap := &models.BondSnapshot{
		Bonds:     screened,
		Curve:     curve,
		FetchedAt: now,
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Set(ctx, snapshotCacheKey, snap, s.cacheTTL); err != nil {
			s.log.Warn("snapshot cache write failed", logger.Error(err))
		}
	}

	if s.processor != nil && curve != nil {
		if err := s.processor.ProcessBatch(ctx, curvePoints(records)); err != nil {
			s.log.Error("curve history ship failed", logger.Error(err))
			s.metrics.RecordError("curve_ship")
		}
	}

	s.metrics.RecordRefresh("moex", "success")
	s.metrics.RecordBondsLoaded(len(screened))
	s.metrics.RecordLatency("refresh", time.Since(start).Seconds())
	s.log.Info("snapshot refreshed",
		logger.Int("bonds", len(screened)),
		logger.Int("curve_records", len(records)),
		logger.Int64("elapsed_ms", time.Since(start).Milliseconds()))

	s.notify(snap)
	return nil
}

func (s *Screener) notify(snap *models.BondSnapshot) {
	s.listenerMu.Lock()
	listeners := make([]func(*models.BondSnapshot), len(s.listeners))
	copy(listeners, s.listeners)
	s.listenerMu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

// Snapshot returns the current snapshot, falling back to the cache when the
// process has not refreshed yet.
func (s *Screener) Snapshot(ctx context.Context) (*models.BondSnapshot, error) {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}

	if s.cache != nil {
		var cached models.BondSnapshot
		if err := s.cache.Get(ctx, snapshotCacheKey, &cached); err == nil {
			s.mu.Lock()
			if s.snapshot == nil {
				s.snapshot = &cached
			}
			snap = s.snapshot
			s.mu.Unlock()
			return snap, nil
		}
	}
	return nil, ErrNoSnapshot
}

// Query filters, sorts and paginates the snapshot. The returned total is the
// match count before pagination.
func (s *Screener) Query(ctx context.Context, req *models.BondsRequest) ([]models.ScreenedBond, int, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, 0, err
	}

	matched := make([]models.ScreenedBond, 0, len(snap.Bonds))
	for _, b := range snap.Bonds {
		if matchBond(&b, req) {
			matched = append(matched, b)
		}
	}

	sortBonds(matched, req.SortBy, req.Order)

	total := len(matched)
	if req.Offset >= total {
		return []models.ScreenedBond{}, total, nil
	}
	end := req.Offset + req.Limit
	if end > total {
		end = total
	}
	return matched[req.Offset:end], total, nil
}

// GetBond looks up a single bond by SECID.
func (s *Screener) GetBond(ctx context.Context, secid string) (*models.ScreenedBond, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for i := range snap.Bonds {
		if snap.Bonds[i].SecID == secid {
			return &snap.Bonds[i], nil
		}
	}
	return nil, ErrBondNotFound
}

// Compare returns the requested bonds in request order. Unknown SECIDs are
// reported back rather than failing the whole comparison.
func (s *Screener) Compare(ctx context.Context, secids []string) ([]models.ScreenedBond, []string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}

	bySecID := make(map[string]*models.ScreenedBond, len(snap.Bonds))
	for i := range snap.Bonds {
		bySecID[snap.Bonds[i].SecID] = &snap.Bonds[i]
	}

	found := make([]models.ScreenedBond, 0, len(secids))
	var missing []string
	for _, id := range secids {
		if b, ok := bySecID[id]; ok {
			found = append(found, *b)
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing, nil
}

// Curve returns the active yield curve.
func (s *Screener) Curve(ctx context.Context) (*models.Curve, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Curve == nil {
		return nil, ErrNoSnapshot
	}
	return snap.Curve, nil
}

// matchBond applies request filters. An active filter drops bonds whose
// underlying field is missing.
func matchBond(b *models.ScreenedBond, req *models.BondsRequest) bool {
	if req.CouponMin != nil {
		if b.CouponPercent == nil || *b.CouponPercent < *req.CouponMin {
			return false
		}
	}
	if req.CouponMax != nil {
		if b.CouponPercent == nil || *b.CouponPercent > *req.CouponMax {
			return false
		}
	}
	if req.MatdateFrom != "" {
		from, ok := util.ParseISSDate(req.MatdateFrom)
		if ok {
			if b.MaturityDate == nil || b.MaturityDate.Before(from) {
				return false
			}
		}
	}
	if req.MatdateTo != "" {
		to, ok := util.ParseISSDate(req.MatdateTo)
		if ok {
			if b.MaturityDate == nil || b.MaturityDate.After(to) {
				return false
			}
		}
	}
	if req.ListLevel != nil {
		if b.ListLevel == nil || *b.ListLevel != *req.ListLevel {
			return false
		}
	}
	if req.FaceUnit != "" {
		if !strings.EqualFold(b.FaceUnit, req.FaceUnit) {
			return false
		}
	}
	return true
}

// sortBonds orders bonds by the requested column. Bonds missing the sort key
// always sink to the end regardless of direction.
func sortBonds(bonds []models.ScreenedBond, sortBy, order string) {
	desc := order == "desc"

	less := func(i, j int) bool {
		switch sortBy {
		case "shortname":
			return cmpString(bonds[i].ShortName, bonds[j].ShortName, desc)
		case "ytm":
			return cmpFloatPtr(bonds[i].YieldToMaturity, bonds[j].YieldToMaturity, desc)
		case "spread":
			return cmpFloatPtr(bonds[i].Metrics.SpreadToCurve, bonds[j].Metrics.SpreadToCurve, desc)
		case "duration":
			return cmpFloatPtr(bonds[i].Metrics.DurationYears, bonds[j].Metrics.DurationYears, desc)
		case "matdate":
			return cmpTimePtr(bonds[i].MaturityDate, bonds[j].MaturityDate, desc)
		default:
			return cmpString(bonds[i].SecID, bonds[j].SecID, desc)
		}
	}
	sort.SliceStable(bonds, less)
}

func cmpString(a, b string, desc bool) bool {
	if desc {
		return a > b
	}
	return a < b
}

func cmpFloatPtr(a, b *float64, desc bool) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	if desc {
		return *a > *b
	}
	return *a < *b
}

func cmpTimePtr(a, b *time.Time, desc bool) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	if desc {
		return a.After(*b)
	}
	return a.Before(*b)
}

// curvePoints flattens raw curve records into storable points.
func curvePoints(records []models.CurveRecord) []*models.CurvePoint {
	var points []*models.CurvePoint
	for i := range records {
		curve := analytics.BuildCurve(&records[i])
		if curve == nil {
			continue
		}
		for _, h := range curve.Horizons {
			points = append(points, &models.CurvePoint{
				TradeDate: curve.TradeDate,
				Horizon:   h,
				Yield:     curve.Yields[h],
			})
		}
	}
	return points
}
