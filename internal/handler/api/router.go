package api

import "github.com/labstack/echo/v4"

// Router bundles every handler group into a single route registration.
type Router struct {
	groups []interface{ RegisterRoutes(e *echo.Echo) }
}

func NewRouter(bonds *BondsEchoHandler, curve *CurveEchoHandler, collections *CollectionsEchoHandler, hub *UpdatesHub) *Router {
	return &Router{groups: []interface{ RegisterRoutes(e *echo.Echo) }{
		bonds, curve, collections, hub,
	}}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	for _, g := range r.groups {
		g.RegisterRoutes(e)
	}
}
