package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/realestate-classifieds/internal/filter"
	"github.com/iliyamo/realestate-classifieds/internal/repository"
	"github.com/iliyamo/realestate-classifieds/internal/service"
)

// ListingHandler serves public browsing and the owner's listing actions.
type ListingHandler struct {
	Listings Listings
	Featured Featured
}

func NewListingHandler(l Listings, f Featured) *ListingHandler {
	return &ListingHandler{Listings: l, Featured: f}
}

// List returns one page of approved listings matching the filter query
// parameters (q, id, operation_type, category_id, region_id, subregion_id,
// condition).
func (h *ListingHandler) List(c echo.Context) error {
	page, size := pageParams(c)
	q := repository.ListingSearchQuery{
		Filter:   filter.FromValues(c.QueryParams()),
		Page:     page,
		PageSize: size,
	}
	items, total, err := h.Listings.ListApproved(c.Request().Context(), q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":      items,
		"total":     total,
		"page":      page,
		"page_size": size,
	})
}

// Get returns one approved listing.
func (h *ListingHandler) Get(c echo.Context) error {
	l, err := h.Listings.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

// FeaturedList returns the featured set narrowed by the filter parameters.
func (h *ListingHandler) FeaturedList(c echo.Context) error {
	items, err := h.Featured.Featured(c.Request().Context(), filter.FromValues(c.QueryParams()))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Home returns the landing page: up to six featured listings narrowed by q
// or id, and the total number of featured listings.
func (h *ListingHandler) Home(c echo.Context) error {
	f := filter.Filter{}.
		WithQuery(c.QueryParam(filter.ParamQuery)).
		WithIDSearch(c.QueryParam(filter.ParamID))
	home, err := h.Featured.Home(c.Request().Context(), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, home)
}

// createForm mirrors the multipart publish form.
type createForm struct {
	Title            string  `form:"title"`
	Description      string  `form:"description"`
	Price            float64 `form:"price"`
	OperationType    string  `form:"operation_type"`
	RegionID         uint64  `form:"region_id"`
	SubRegionID      uint64  `form:"subregion_id"`
	CategoryID       uint64  `form:"category_id"`
	Phone            string  `form:"phone"`
	PaymentFrequency string  `form:"payment_frequency"`
	Condition        string  `form:"condition"`
}

// Create publishes a listing from a multipart form.  Files go in the
// "images" field, in display order.
func (h *ListingHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var form createForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form"})
	}

	var images []service.Image
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		mf, err := c.MultipartForm()
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form"})
		}
		for _, fh := range mf.File["images"] {
			images = append(images, fileImage(fh))
		}
	}

	l, err := h.Listings.Create(c.Request().Context(), uid, service.NewListing(form), images)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, l)
}

func fileImage(fh *multipart.FileHeader) service.Image {
	return service.Image{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Open:        func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// Update edits title, description or price of the caller's listing.
func (h *ListingHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req service.ListingUpdate
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Listings.Update(c.Request().Context(), uid, c.Param("id"), req); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes the caller's listing and its images.
func (h *ListingHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Listings.Delete(c.Request().Context(), uid, c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
