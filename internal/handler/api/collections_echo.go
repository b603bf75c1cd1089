package api

import (
	"errors"

	models "BondPulse/internal/domain/models"
	domrepo "BondPulse/internal/domain/repository"
	"BondPulse/internal/repository"
	"BondPulse/internal/usecase"
	xhttp "BondPulse/pkg/http"
	xlogger "BondPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// CollectionsEchoHandler manages named bond collections.
type CollectionsEchoHandler struct {
	logger   *xlogger.Logger
	store    domrepo.CollectionStore
	screener *usecase.Screener
}

func NewCollectionsEchoHandler(logger *xlogger.Logger, store domrepo.CollectionStore, screener *usecase.Screener) *CollectionsEchoHandler {
	return &CollectionsEchoHandler{logger: logger, store: store, screener: screener}
}

func (h *CollectionsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/collections")
	g.GET("", h.List)
	g.PUT("/:name", h.Put)
	g.GET("/:name", h.Get)
	g.DELETE("/:name", h.Delete)
}

func (h *CollectionsEchoHandler) List(c echo.Context) error {
	names, err := h.store.List(c.Request().Context())
	if err != nil {
		h.logger.Error("collections list error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if names == nil {
		names = []string{}
	}
	return xhttp.SuccessResponse(c, names)
}

func (h *CollectionsEchoHandler) Put(c echo.Context) error {
	req := &models.CollectionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	name := c.Param("name")
	if name == "" {
		name = req.Name
	}

	if err := h.store.Save(c.Request().Context(), name, req.SecIDs); err != nil {
		h.logger.Error("collection save error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, map[string]interface{}{
		"name":  name,
		"count": len(req.SecIDs),
	})
}

// Get resolves the collection's bonds against the current snapshot.
func (h *CollectionsEchoHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	name := c.Param("name")

	secids, err := h.store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrCollectionNotFound) {
			return xhttp.NotFoundResponse(c, "collection not found: "+name)
		}
		h.logger.Error("collection get error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	found, missing, err := h.screener.Compare(ctx, secids)
	if err != nil {
		if errors.Is(err, usecase.ErrNoSnapshot) {
			return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("snapshot not ready, try again after refresh"))
		}
		h.logger.Error("collection resolve error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	return xhttp.SuccessResponse(c, map[string]interface{}{
		"name":    name,
		"bonds":   found,
		"missing": missing,
	})
}

func (h *CollectionsEchoHandler) Delete(c echo.Context) error {
	name := c.Param("name")
	if err := h.store.Delete(c.Request().Context(), name); err != nil {
		if errors.Is(err, repository.ErrCollectionNotFound) {
			return xhttp.NotFoundResponse(c, "collection not found: "+name)
		}
		h.logger.Error("collection delete error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}
