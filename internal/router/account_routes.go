package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/realestate-classifieds/internal/handler"
	"github.com/iliyamo/realestate-classifieds/internal/middleware"
	"github.com/iliyamo/realestate-classifieds/internal/session"
)

// RegisterAccount registers endpoints for signed-in users.  JWTAuth
// verifies the token and ResolveUser attaches the user with their current
// role.  The event stream also accepts the token as ?access_token= since
// EventSource cannot set headers.
func RegisterAccount(e *echo.Echo, s *handler.SessionHandler, l *handler.ListingHandler, jwtSecret string, resolver *session.Resolver) {
	// per-route middleware keeps unknown /v1 paths on the JSON 404
	auth := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.ResolveUser(resolver),
	}
	g := e.Group("/v1")
	g.GET("/me", s.Me, auth...)
	g.GET("/me/quota", s.Quota, auth...)
	g.GET("/me/listings", s.MyListings, auth...)

	g.POST("/listings", l.Create, auth...)
	g.PATCH("/listings/:id", l.Update, auth...)
	g.DELETE("/listings/:id", l.Delete, auth...)

	g.GET("/session/events", s.Events,
		middleware.JWTAuthQuery(jwtSecret, "access_token"),
		middleware.ResolveUser(resolver),
	)
}
