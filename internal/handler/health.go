package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/realestate-classifieds/internal/config"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health reports "ok" when the database answers within two seconds.
func Health(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				return c.String(http.StatusServiceUnavailable, "database unavailable")
			}
		}
		return c.String(http.StatusOK, "ok")
	}
}

// PaymentProof returns the manual upgrade instructions: where to pay and
// where to send the receipt.
func PaymentProof(cfg config.PaymentProofConfig) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"payment_url":   cfg.PaymentURL,
			"contact_phone": cfg.ContactPhone,
			"message":       "Send your payment receipt to the contact phone. An administrator will raise your publication limit once the payment is verified.",
		})
	}
}

// NotFound is the fallback for unknown routes.
func NotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
}
