package api

import (
	"errors"

	models "BondPulse/internal/domain/models"
	domrepo "BondPulse/internal/domain/repository"
	"BondPulse/internal/usecase"
	xhttp "BondPulse/pkg/http"
	xlogger "BondPulse/pkg/logger"
	"BondPulse/pkg/queue"

	"github.com/labstack/echo/v4"
)

// BondsEchoHandler serves the screener's bond endpoints.
type BondsEchoHandler struct {
	logger   *xlogger.Logger
	screener *usecase.Screener
	queue    queue.QueueService
	metrics  domrepo.Metrics
}

func NewBondsEchoHandler(logger *xlogger.Logger, screener *usecase.Screener, q queue.QueueService, metrics domrepo.Metrics) *BondsEchoHandler {
	return &BondsEchoHandler{logger: logger, screener: screener, queue: q, metrics: metrics}
}

func (h *BondsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/bonds", h.List)
	g.GET("/bonds/export", h.Export)
	g.GET("/bonds/:secid", h.Get)
	g.POST("/bonds/refresh", h.Refresh)
	g.POST("/compare", h.Compare)
}

func (h *BondsEchoHandler) List(c echo.Context) error {
	req := &models.BondsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	bonds, total, err := h.screener.Query(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, usecase.ErrNoSnapshot) {
			return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("snapshot not ready, try again after refresh"))
		}
		h.logger.Error("bonds query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	h.metrics.RecordRowsServed("bonds", len(bonds))
	return xhttp.ListResponse(c, bonds, int64(total))
}

func (h *BondsEchoHandler) Get(c echo.Context) error {
	secid := c.Param("secid")
	bond, err := h.screener.GetBond(c.Request().Context(), secid)
	if err != nil {
		if errors.Is(err, usecase.ErrBondNotFound) {
			return xhttp.NotFoundResponse(c, "bond not found: "+secid)
		}
		if errors.Is(err, usecase.ErrNoSnapshot) {
			return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("snapshot not ready, try again after refresh"))
		}
		h.logger.Error("bond get error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.metrics.RecordRowsServed("bond_detail", 1)
	return xhttp.SuccessResponse(c, bond)
}

// Refresh enqueues an on-demand refresh when the job queue is configured,
// otherwise runs it inline.
func (h *BondsEchoHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	if h.queue != nil {
		if err := h.queue.PublishMessage(ctx, usecase.RefreshJobType, nil); err != nil {
			h.logger.Error("refresh enqueue error", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		return xhttp.SuccessResponse(c, map[string]string{"status": "queued"})
	}

	if err := h.screener.Refresh(ctx); err != nil {
		h.logger.Error("refresh error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	snap, err := h.screener.Snapshot(ctx)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	summary := map[string]interface{}{
		"status":     "done",
		"bonds":      len(snap.Bonds),
		"fetched_at": snap.FetchedAt,
	}
	if snap.Curve != nil {
		summary["curve_date"] = snap.Curve.TradeDate.Format("2006-01-02")
	}
	return xhttp.SuccessResponse(c, summary)
}

func (h *BondsEchoHandler) Compare(c echo.Context) error {
	req := &models.CompareRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	found, missing, err := h.screener.Compare(c.Request().Context(), req.SecIDs)
	if err != nil {
		if errors.Is(err, usecase.ErrNoSnapshot) {
			return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("snapshot not ready, try again after refresh"))
		}
		h.logger.Error("compare error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	h.metrics.RecordRowsServed("compare", len(found))
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"bonds":   found,
		"missing": missing,
	})
}

func (h *BondsEchoHandler) Export(c echo.Context) error {
	req := &models.BondsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	doc, err := h.screener.Export(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, usecase.ErrNoSnapshot) {
			return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("snapshot not ready, try again after refresh"))
		}
		h.logger.Error("export error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	h.metrics.RecordRowsServed("export", len(doc.Data))
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="bonds_export.json"`)
	return c.JSON(200, doc)
}
