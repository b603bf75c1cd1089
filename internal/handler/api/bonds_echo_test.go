package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	models "BondPulse/internal/domain/models"
	"BondPulse/internal/repository"
	"BondPulse/internal/services/analytics"
	"BondPulse/internal/usecase"
	xlogger "BondPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

type stubSource struct {
	bonds   []models.Bond
	records []models.CurveRecord
}

func (s *stubSource) FetchBonds(ctx context.Context) ([]models.Bond, error) {
	return s.bonds, nil
}

func (s *stubSource) FetchCurveHistory(ctx context.Context, from, to time.Time) ([]models.CurveRecord, error) {
	return s.records, nil
}

type stubMetrics struct{}

func (stubMetrics) RecordMessageSent(backend, tenor string)  {}
func (stubMetrics) RecordError(kind string)                  {}
func (stubMetrics) RecordRefresh(source, status string)      {}
func (stubMetrics) RecordBondsLoaded(n int)                  {}
func (stubMetrics) RecordCurveDate(unixSeconds int64)        {}
func (stubMetrics) RecordRowsServed(endpoint string, n int)  {}
func (stubMetrics) RecordLatency(op string, seconds float64) {}

func fp(v float64) *float64 { return &v }

func jsonBody(s string) io.Reader { return strings.NewReader(s) }

func newTestHandler(t *testing.T, refreshed bool) (*usecase.Screener, *echo.Echo) {
	t.Helper()
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	mat := time.Now().AddDate(3, 0, 0)
	src := &stubSource{
		bonds: []models.Bond{
			{SecID: "RU000AAA", ShortName: "Alpha", DurationDays: fp(700), YieldToMaturity: fp(9.0), MaturityDate: &mat},
			{SecID: "RU000BBB", ShortName: "Beta"},
		},
		records: []models.CurveRecord{{
			TradeDate:  time.Now().Truncate(24 * time.Hour),
			Tenors:     map[string]float64{"Срок 1 лет": 5.0, "Срок 5 лет": 6.5},
			TenorOrder: []string{"Срок 1 лет", "Срок 5 лет"},
		}},
	}

	screener := usecase.NewScreener(src, analytics.NewCalculator(1), nil, nil, stubMetrics{}, log, 365, time.Minute)
	if refreshed {
		if err := screener.Refresh(context.Background()); err != nil {
			t.Fatalf("refresh: %v", err)
		}
	}

	h := NewBondsEchoHandler(log, screener, nil, stubMetrics{})
	e := echo.New()
	h.RegisterRoutes(e)
	return screener, e
}

func TestBondsListEndpoint(t *testing.T) {
	_, e := newTestHandler(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/bonds?limit=10", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Status int `json:"status"`
		Data   struct {
			Rows  []json.RawMessage `json:"rows"`
			Total int64             `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Total != 2 || len(body.Data.Rows) != 2 {
		t.Fatalf("total = %d, rows = %d", body.Data.Total, len(body.Data.Rows))
	}
}

func TestBondsListBeforeRefresh(t *testing.T) {
	_, e := newTestHandler(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/bonds", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	// The envelope always reports 200 transport-level; the payload carries 503.
	var body struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusServiceUnavailable {
		t.Fatalf("payload status = %d, want 503", body.Status)
	}
}

func TestBondDetailEndpoint(t *testing.T) {
	_, e := newTestHandler(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/bonds/RU000AAA", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Data struct {
			SecID   string `json:"SecID"`
			Metrics struct {
				SpreadToCurve *float64 `json:"SpreadToCurve"`
			} `json:"Metrics"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.SecID != "RU000AAA" {
		t.Fatalf("secid = %q", body.Data.SecID)
	}
	if body.Data.Metrics.SpreadToCurve == nil {
		t.Fatalf("expected derived spread in detail payload")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/bonds/NOPE", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var nf struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &nf); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if nf.Status != http.StatusNotFound {
		t.Fatalf("payload status = %d, want 404", nf.Status)
	}
}

func TestRefreshEndpointInline(t *testing.T) {
	_, e := newTestHandler(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/bonds/refresh", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data struct {
			Status string `json:"status"`
			Bonds  int    `json:"bonds"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Status != "done" || body.Data.Bonds != 2 {
		t.Fatalf("summary = %+v", body.Data)
	}
}

func TestCompareEndpoint(t *testing.T) {
	_, e := newTestHandler(t, true)

	payload := `{"secids":["RU000BBB","RU000AAA","RU000XXX"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/compare", jsonBody(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data struct {
			Bonds   []json.RawMessage `json:"bonds"`
			Missing []string          `json:"missing"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data.Bonds) != 2 || len(body.Data.Missing) != 1 {
		t.Fatalf("bonds = %d, missing = %v", len(body.Data.Bonds), body.Data.Missing)
	}
}

func TestCollectionsRoundTrip(t *testing.T) {
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	screener, e := newTestHandler(t, true)

	store := repository.NewMemoryCollectionStore()
	ch := NewCollectionsEchoHandler(log, store, screener)
	ch.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodPut, "/api/collections/ofz", jsonBody(`{"name":"ofz","secids":["RU000AAA"]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d, body = %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/collections/ofz", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var body struct {
		Data struct {
			Name    string            `json:"name"`
			Bonds   []json.RawMessage `json:"bonds"`
			Missing []string          `json:"missing"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Name != "ofz" || len(body.Data.Bonds) != 1 {
		t.Fatalf("collection payload = %+v", body.Data)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/collections/ofz", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
}
