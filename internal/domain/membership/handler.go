package membership

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/domain/identity"
	"github.com/carelink/carelink/internal/platform/apperr"
	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/pkg/pagination"
	"github.com/carelink/carelink/pkg/respond"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/users/me/memberships", h.ListMine)

	admin := api.Group("", auth.RequireRole("tenant_admin"))
	admin.GET("/tenants/:id/members", h.ListByTenant)
	admin.POST("/tenants/:id/members", h.Add)
	admin.DELETE("/tenants/:id/members/:user_id", h.Deactivate)
}

func (h *Handler) ListMine(c echo.Context) error {
	userID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return respond.Error(c, apperr.Forbidden("not authenticated"))
	}
	members, err := h.svc.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, members)
}

func (h *Handler) ListByTenant(c echo.Context) error {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid id"))
	}
	pg := pagination.FromContext(c)
	members, total, err := h.svc.ListByTenant(c.Request().Context(), tenantID, pg.Limit, pg.Offset)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, pagination.NewResponse(members, total, pg.Limit, pg.Offset))
}

func (h *Handler) Add(c echo.Context) error {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid id"))
	}
	var in struct {
		UserID uuid.UUID `json:"user_id"`
		Role   string    `json:"role"`
	}
	if err := c.Bind(&in); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}
	role, err := identity.ParseRole(in.Role)
	if err != nil {
		return respond.Error(c, apperr.Validation(err.Error()))
	}
	m, err := h.svc.Add(c.Request().Context(), tenantID, in.UserID, role)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.Created(c, m)
}

func (h *Handler) Deactivate(c echo.Context) error {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid id"))
	}
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid user_id"))
	}
	if err := h.svc.Deactivate(c.Request().Context(), tenantID, userID); err != nil {
		return respond.Error(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
