package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/realestate-classifieds/internal/middleware"
	"github.com/iliyamo/realestate-classifieds/internal/session"
)

// SessionHandler serves the signed-in user's own views.
type SessionHandler struct {
	Sessions  *session.Manager
	Quotas    QuotaEvaluator
	Listings  Listings
	Heartbeat time.Duration
}

func NewSessionHandler(sessions *session.Manager, quotas QuotaEvaluator, listings Listings) *SessionHandler {
	return &SessionHandler{Sessions: sessions, Quotas: quotas, Listings: listings, Heartbeat: 25 * time.Second}
}

// Me returns the resolved user.
func (h *SessionHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"user": middleware.UserFrom(c)})
}

// Quota returns the caller's quota status.  A backend failure still answers
// 200 with the fail-safe defaults.
func (h *SessionHandler) Quota(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, h.Quotas.Report(c.Request().Context(), uid))
}

// MyListings returns every listing of the caller, newest first.
func (h *SessionHandler) MyListings(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Listings.ListOwned(c.Request().Context(), uid)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Events streams session state as server-sent events until the client goes
// away or the session ends.  The first event arrives once the initial check
// has resolved.
func (h *SessionHandler) Events(c echo.Context) error {
	ctx := c.Request().Context()
	tr, err := h.Sessions.Track(ctx, middleware.AccessTokenFrom(c))
	if err != nil {
		if err == session.ErrClosed {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "shutting down"})
		}
		return fail(c, err)
	}
	defer tr.Close()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	beat := time.NewTicker(h.Heartbeat)
	defer beat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-beat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case st, ok := <-tr.Updates():
			if !ok {
				return nil
			}
			b, err := json.Marshal(st)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "event: session\ndata: %s\n\n", b); err != nil {
				return nil
			}
			w.Flush()
			if st.User == nil && !st.Loading {
				// signed out: nothing more will happen on this stream
				return nil
			}
		}
	}
}
