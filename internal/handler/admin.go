package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// AdminHandler serves moderation and user management.  Every route sits
// behind RequireRole("admin").
type AdminHandler struct {
	Listings Listings
	Admin    Admin
}

func NewAdminHandler(l Listings, a Admin) *AdminHandler {
	return &AdminHandler{Listings: l, Admin: a}
}

type approvalReq struct {
	Approved *bool `json:"approved" validate:"required"`
}

type featuredReq struct {
	Featured *bool `json:"featured" validate:"required"`
}

type quotaReq struct {
	Limit      int        `json:"limit" validate:"min=1"`
	ValidUntil *time.Time `json:"valid_until"`
}

type roleReq struct {
	Role string `json:"role" validate:"required,oneof=admin regular"`
}

// ListListings returns every listing, newest first, with its featured flag.
func (h *AdminHandler) ListListings(c echo.Context) error {
	items, err := h.Listings.ListAll(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AdminHandler) SetApproval(c echo.Context) error {
	var req approvalReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	actor, _ := getUserID(c)
	if err := h.Listings.SetApproved(c.Request().Context(), actor, c.Param("id"), *req.Approved); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id"), "approved": *req.Approved})
}

func (h *AdminHandler) SetFeatured(c echo.Context) error {
	var req featuredReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	actor, _ := getUserID(c)
	if err := h.Listings.SetFeatured(c.Request().Context(), actor, c.Param("id"), *req.Featured); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id"), "featured": *req.Featured})
}

// Users returns every user with role, quota and listing count.
func (h *AdminHandler) Users(c echo.Context) error {
	items, err := h.Admin.Users(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// SetQuota replaces the quota of the user in the path.  valid_until
// defaults to one month from now.
func (h *AdminHandler) SetQuota(c echo.Context) error {
	var req quotaReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	actor, _ := getUserID(c)
	q, err := h.Admin.SetQuota(c.Request().Context(), actor, c.Param("id"), req.Limit, req.ValidUntil)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": q.UserID, "limit": q.Limit, "valid_until": q.ValidUntil})
}

func (h *AdminHandler) SetRole(c echo.Context) error {
	var req roleReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	if err := h.Admin.SetRole(c.Request().Context(), c.Param("id"), req.Role); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": c.Param("id"), "role": req.Role})
}
