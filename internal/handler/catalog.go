package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// CatalogHandler serves the reference data behind the filter and publish
// forms.
type CatalogHandler struct {
	Catalog Catalog
}

func NewCatalogHandler(c Catalog) *CatalogHandler { return &CatalogHandler{Catalog: c} }

func (h *CatalogHandler) Regions(c echo.Context) error {
	items, err := h.Catalog.Regions(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// SubRegions lists the sub-regions of the region in the path.
func (h *CatalogHandler) SubRegions(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid region id"})
	}
	items, err := h.Catalog.SubRegions(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *CatalogHandler) Categories(c echo.Context) error {
	items, err := h.Catalog.Categories(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
