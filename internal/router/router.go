// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/realestate-classifieds/internal/config"
	"github.com/iliyamo/realestate-classifieds/internal/handler"
	"github.com/iliyamo/realestate-classifieds/internal/metrics"
)

// RegisterRoutes registers the operational endpoints: health check,
// Prometheus metrics, payment-proof instructions and the JSON 404 fallback.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, m *metrics.Metrics, pay config.PaymentProofConfig) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	e.GET("/v1/payment-proof", handler.PaymentProof(pay))
	e.RouteNotFound("/*", handler.NotFound)
}

// RegisterUploads serves images written by the local store.  Only used when
// STORAGE_TYPE=local.
func RegisterUploads(e *echo.Echo, basePath string) {
	e.Static("/uploads", basePath)
}

// RegisterAuth registers the token endpoints.  None of them require an
// existing session; logout accepts either a refresh token or a bearer token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// rotates the refresh token
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)
}

// RegisterCatalog registers the reference data endpoints behind the response
// cache.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/catalog")
	g.GET("/regions", h.Regions, cache)
	g.GET("/regions/:id/subregions", h.SubRegions, cache)
	g.GET("/categories", h.Categories, cache)
}

// RegisterPublic registers browsing endpoints for guests.  Only approved
// listings are visible here.
func RegisterPublic(e *echo.Echo, h *handler.ListingHandler) {
	e.GET("/v1/listings", h.List)
	e.GET("/v1/listings/:id", h.Get)
	e.GET("/v1/featured", h.FeaturedList)
	e.GET("/v1/home", h.Home)
}
