package middleware // middleware holds the echo middleware shared by every route group

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/realestate-classifieds/internal/session"
	"github.com/iliyamo/realestate-classifieds/internal/utils"
)

// Keys under which request state is stored on the echo context.
const (
	KeyIdentity    = "identity"
	KeyUserID      = "user_id"
	KeyAccessToken = "access_token"
	KeyUser        = "user"
	KeyRole        = "role"
)

// JWTAuth validates the Bearer access token and stores the verified identity
// on the context.  It does not decide the role; ResolveUser does that.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return jwtAuth(secret, func(c echo.Context) string {
		auth := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(auth, "Bearer ") {
			return ""
		}
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	})
}

// JWTAuthQuery is JWTAuth for clients that cannot set headers, such as a
// browser EventSource.  The header still wins when present.
func JWTAuthQuery(secret, param string) echo.MiddlewareFunc {
	return jwtAuth(secret, func(c echo.Context) string {
		auth := c.Request().Header.Get(echo.HeaderAuthorization)
		if strings.HasPrefix(auth, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		}
		return c.QueryParam(param)
	})
}

func jwtAuth(secret string, extract func(echo.Context) string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := extract(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(KeyIdentity, &session.Identity{UserID: claims.UserID, Email: claims.Email, MetaRole: claims.MetaRole})
			c.Set(KeyUserID, claims.UserID)
			c.Set(KeyAccessToken, raw)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity set by JWTAuth, or nil.
func IdentityFrom(c echo.Context) *session.Identity {
	id, _ := c.Get(KeyIdentity).(*session.Identity)
	return id
}

// UserFrom returns the user set by ResolveUser, or nil.
func UserFrom(c echo.Context) *session.User {
	u, _ := c.Get(KeyUser).(*session.User)
	return u
}

// AccessTokenFrom returns the raw token JWTAuth accepted.
func AccessTokenFrom(c echo.Context) string {
	s, _ := c.Get(KeyAccessToken).(string)
	return s
}
