package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/realestate-classifieds/internal/session"
)

// ResolveUser turns the identity left by JWTAuth into a user with its
// effective role, once per request.
func ResolveUser(r *session.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := r.Resolve(c.Request().Context(), IdentityFrom(c))
			if u == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			c.Set(KeyUser, u)
			c.Set(KeyRole, u.Role)
			return next(c)
		}
	}
}
