// Package handler exposes the HTTP handlers.  Handlers translate requests
// into service calls and map service errors to JSON responses.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/realestate-classifieds/internal/filter"
	"github.com/iliyamo/realestate-classifieds/internal/logger"
	"github.com/iliyamo/realestate-classifieds/internal/model"
	"github.com/iliyamo/realestate-classifieds/internal/quota"
	"github.com/iliyamo/realestate-classifieds/internal/repository"
	"github.com/iliyamo/realestate-classifieds/internal/service"
	"github.com/iliyamo/realestate-classifieds/internal/validate"
)

// Listings is implemented by service.ListingService.
type Listings interface {
	Create(ctx context.Context, userID string, in service.NewListing, images []service.Image) (model.Listing, error)
	Update(ctx context.Context, userID, id string, in service.ListingUpdate) error
	Delete(ctx context.Context, userID, id string) error
	Get(ctx context.Context, id string) (model.Listing, error)
	ListApproved(ctx context.Context, q repository.ListingSearchQuery) ([]model.Listing, int64, error)
	ListOwned(ctx context.Context, userID string) ([]model.Listing, error)
	ListAll(ctx context.Context) ([]model.Listing, error)
	SetApproved(ctx context.Context, actorID, id string, approved bool) error
	SetFeatured(ctx context.Context, actorID, id string, featured bool) error
}

// Featured is implemented by service.FeaturedService.
type Featured interface {
	Featured(ctx context.Context, f filter.Filter) ([]model.Listing, error)
	Home(ctx context.Context, f filter.Filter) (service.Home, error)
}

// Catalog is implemented by repository.CatalogRepo.
type Catalog interface {
	Regions(ctx context.Context) ([]model.Region, error)
	SubRegions(ctx context.Context, regionID uint64) ([]model.SubRegion, error)
	Categories(ctx context.Context) ([]model.Category, error)
}

// Admin is implemented by service.AdminService.
type Admin interface {
	Users(ctx context.Context) ([]model.UserOverview, error)
	SetQuota(ctx context.Context, actorID, userID string, limit int, validUntil *time.Time) (model.Quota, error)
	SetRole(ctx context.Context, userID, role string) error
}

// QuotaEvaluator is implemented by quota.Evaluator.
type QuotaEvaluator interface {
	Report(ctx context.Context, userID string) quota.Status
}

// getUserID returns the authenticated user's id set by JWTAuth.
func getUserID(c echo.Context) (string, error) {
	if s, ok := c.Get("user_id").(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("invalid user_id in context")
}

// pageParams reads page and page_size, clamping page_size to [1,100] with a
// default of 20.
func pageParams(c echo.Context) (page, size int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	size, _ = strconv.Atoi(c.QueryParam("page_size"))
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}

// fail maps an error from the service layer to a response.
func fail(c echo.Context, err error) error {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, service.ErrQuotaExceeded):
		return c.JSON(http.StatusForbidden, echo.Map{
			"error":   "quota_exceeded",
			"message": "publication limit reached, contact an administrator to request more",
		})
	case errors.Is(err, service.ErrQuotaExpired):
		return c.JSON(http.StatusForbidden, echo.Map{
			"error":   "quota_inactive",
			"message": "an active quota is required to edit or delete listings",
		})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, service.ErrUpload):
		logger.FromContext(c.Request().Context()).Error("upload failed", logger.Err(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "image upload failed"})
	}
	logger.FromContext(c.Request().Context()).Error("request failed",
		slog.String("path", c.Path()), logger.Err(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// bindValid binds the body and runs the echo validator on it.  When ok is
// false the response has been written and err is what the handler returns.
func bindValid(c echo.Context, dst any) (ok bool, err error) {
	if err := c.Bind(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(dst); err != nil {
		return false, fail(c, err)
	}
	return true, nil
}
