package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/realestate-classifieds/internal/config"
	"github.com/iliyamo/realestate-classifieds/internal/logger"
	"github.com/iliyamo/realestate-classifieds/internal/metrics"
	"github.com/iliyamo/realestate-classifieds/internal/session"
	"github.com/iliyamo/realestate-classifieds/internal/utils"
)

const secret = "test-secret"

type roleTable map[string]string

func (r roleTable) GetRole(_ context.Context, id string) (string, error) {
	if v, ok := r[id]; ok {
		return v, nil
	}
	return "", errors.New("no row")
}

func token(t *testing.T, c utils.Claims) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, c, 5)
	require.NoError(t, err)
	return tok.Token
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func serve(e *echo.Echo, method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/p", func(c echo.Context) error {
		return c.String(http.StatusOK, IdentityFrom(c).UserID)
	}, JWTAuth(secret))

	rec := serve(e, http.MethodGet, "/p", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/p", map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")

	rec = serve(e, http.MethodGet, "/p", map[string]string{"Authorization": "Bearer " + token(t, utils.Claims{UserID: "u1"})})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())
}

func TestJWTAuthQuery(t *testing.T) {
	e := echo.New()
	e.GET("/events", func(c echo.Context) error {
		return c.String(http.StatusOK, AccessTokenFrom(c))
	}, JWTAuthQuery(secret, "access_token"))

	tok := token(t, utils.Claims{UserID: "u1"})
	rec := serve(e, http.MethodGet, "/events?access_token="+tok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tok, rec.Body.String())
}

func TestRequireRole_UsesResolvedRole(t *testing.T) {
	resolver := session.NewResolver(roleTable{"boss": "admin"}, logger.Discard())
	e := echo.New()
	e.GET("/admin", func(c echo.Context) error {
		return c.String(http.StatusOK, UserFrom(c).Role)
	}, JWTAuth(secret), ResolveUser(resolver), RequireRole("admin"))

	tests := []struct {
		name   string
		claims utils.Claims
		want   int
	}{
		{"role row grants admin", utils.Claims{UserID: "boss"}, http.StatusOK},
		{"signup metadata grants admin", utils.Claims{UserID: "bootstrap", MetaRole: "admin"}, http.StatusOK},
		{"regular user forbidden", utils.Claims{UserID: "someone"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + token(t, tt.claims)})
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRedisCache_HitAfterMiss(t *testing.T) {
	_, rdb := newRedis(t)
	var calls int32

	e := echo.New()
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "catalog", MaxBodyBytes: 1 << 20}
	e.GET("/regions/:id/subregions", func(c echo.Context) error {
		atomic.AddInt32(&calls, 1)
		return c.JSON(http.StatusOK, echo.Map{"region": c.Param("id")})
	}, NewRedisCache(cfg, rdb))

	first := serve(e, http.MethodGet, "/regions/1/subregions", nil)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := serve(e, http.MethodGet, "/regions/1/subregions", nil)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, second.Header().Get(echo.HeaderContentType))

	other := serve(e, http.MethodGet, "/regions/2/subregions", nil)
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
	assert.Contains(t, other.Body.String(), `"2"`)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestRedisCache_SkipsErrors(t *testing.T) {
	_, rdb := newRedis(t)
	e := echo.New()
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "catalog"}
	e.GET("/x", func(c echo.Context) error {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "boom"})
	}, NewRedisCache(cfg, rdb))

	serve(e, http.MethodGet, "/x", nil)
	rec := serve(e, http.MethodGet, "/x", nil)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
}

func rateCfg() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
		TTL: time.Hour, KeyStrategy: "ip", Prefix: "rl", LocalRPS: 0.001, LocalBurst: 2,
	}
}

func TestTokenBucket_Redis(t *testing.T) {
	_, rdb := newRedis(t)
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(rateCfg(), rdb))

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/", nil).Code)
	rec := serve(e, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = serve(e, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestTokenBucket_FallsBackWhenRedisDown(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()

	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(rateCfg(), rdb))

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(e, http.MethodGet, "/", nil).Code)
}

func TestLocalLimiter_KeysAreIndependent(t *testing.T) {
	l := NewLocalLimiter(rateCfg())
	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
}

func TestMetrics_CountsByRoute(t *testing.T) {
	m := metrics.New()
	e := echo.New()
	e.Use(Metrics(m))
	e.GET("/v1/listings/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	})

	rec := serve(e, http.MethodGet, "/v1/listings/abc", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/v1/listings/:id", "404")))
}

func TestRequestLogger_InjectsLogger(t *testing.T) {
	var buf strings.Builder
	log := logger.NewWithWriter("test", &buf)

	e := echo.New()
	e.Use(RequestLogger(log))
	e.GET("/", func(c echo.Context) error {
		logger.FromContext(c.Request().Context()).Info("inside")
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	rec.Header().Set(echo.HeaderXRequestID, "rid-1")
	e.ServeHTTP(rec, req)

	out := buf.String()
	assert.Contains(t, out, "msg=inside")
	assert.Contains(t, out, "request_id=rid-1")
	assert.Contains(t, out, "status=204")
}
