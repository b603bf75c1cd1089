package api

import (
	"errors"

	models "BondPulse/internal/domain/models"
	"BondPulse/internal/usecase"
	xhttp "BondPulse/pkg/http"
	xlogger "BondPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// CurveEchoHandler serves yield curve endpoints.
type CurveEchoHandler struct {
	logger   *xlogger.Logger
	screener *usecase.Screener
	history  *usecase.CurveHistory
}

func NewCurveEchoHandler(logger *xlogger.Logger, screener *usecase.Screener, history *usecase.CurveHistory) *CurveEchoHandler {
	return &CurveEchoHandler{logger: logger, screener: screener, history: history}
}

func (h *CurveEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/curve", h.History)
	g.GET("/curve/latest", h.Latest)
	g.GET("/curve/export", h.Export)
}

// History returns per-date curves for the requested window, newest first.
func (h *CurveEchoHandler) History(c echo.Context) error {
	req := &models.CurveHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	curves, err := h.history.Curves(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("curve history error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, curves, int64(len(curves)))
}

// Latest returns the parsed curve of the active snapshot.
func (h *CurveEchoHandler) Latest(c echo.Context) error {
	curve, err := h.screener.Curve(c.Request().Context())
	if err != nil {
		if errors.Is(err, usecase.ErrNoSnapshot) {
			return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("curve not ready, try again after refresh"))
		}
		h.logger.Error("curve latest error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, curve)
}

// Export serves the curve history as a downloadable JSON document.
func (h *CurveEchoHandler) Export(c echo.Context) error {
	req := &models.CurveHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	doc, err := h.history.Export(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("curve export error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="zero_curve.json"`)
	return c.JSON(200, doc)
}
