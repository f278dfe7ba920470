package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/realestate-classifieds/internal/handler"
	"github.com/iliyamo/realestate-classifieds/internal/middleware"
	"github.com/iliyamo/realestate-classifieds/internal/model"
	"github.com/iliyamo/realestate-classifieds/internal/session"
)

// RegisterAdmin registers moderation and user management endpoints under
// /v1/admin.  The role is resolved from the roles table on every request,
// so a revoked admin loses access without signing out.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string, resolver *session.Resolver) {
	admin := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.ResolveUser(resolver),
		middleware.RequireRole(model.RoleAdmin),
	}
	g := e.Group("/v1/admin")
	g.GET("/listings", h.ListListings, admin...)
	g.PATCH("/listings/:id/approval", h.SetApproval, admin...)
	g.PATCH("/listings/:id/featured", h.SetFeatured, admin...)

	g.GET("/users", h.Users, admin...)
	g.PUT("/users/:id/quota", h.SetQuota, admin...)
	g.PUT("/users/:id/role", h.SetRole, admin...)
}
