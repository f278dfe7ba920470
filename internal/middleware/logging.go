package middleware

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/realestate-classifieds/internal/logger"
)

// RequestLogger puts a request-scoped slog logger (tagged with the request
// id) into the request context and logs one line per finished request.
// It expects echo's RequestID middleware to run first.
func RequestLogger(log *slog.Logger) echo.MiddlewareFunc {
	inject := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			l := log.With(slog.String("request_id", rid))
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithContext(req.Context(), l)))
			return next(c)
		}
	}

	done := echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("request_id", v.RequestID),
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			}
			if uid, ok := c.Get(KeyUserID).(string); ok {
				attrs = append(attrs, slog.String("user_id", uid))
			}
			level := slog.LevelInfo
			if v.Error != nil {
				attrs = append(attrs, logger.Err(v.Error))
				level = slog.LevelError
			} else if v.Status >= 500 {
				level = slog.LevelError
			}
			log.LogAttrs(context.Background(), level, "request", attrs...)
			return nil
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return done(inject(next))
	}
}
