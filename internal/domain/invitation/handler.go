package invitation

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

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

// RegisterRoutes mounts the invitation endpoints. The token-bearing
// endpoints live on the invite group, which carries optional
// authentication: anonymous calls pass through, bad tokens do not.
func (h *Handler) RegisterRoutes(api, invite *echo.Group) {
	admin := api.Group("", auth.RequireRole("tenant_admin"))
	admin.POST("/tenants/:id/invitations", h.Issue)
	admin.GET("/tenants/:id/invitations", h.List)

	invite.GET("/invitations/:token", h.Validate)
	invite.POST("/invitations/:token/accept", h.Accept)
	invite.POST("/invitations/:token/reject", h.Reject)
}

func (h *Handler) Issue(c echo.Context) error {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid id"))
	}
	var in struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.Bind(&in); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}
	inv, err := h.svc.Issue(c.Request().Context(), tenantID, in.Email, in.Role)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.Created(c, inv)
}

func (h *Handler) List(c echo.Context) error {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid id"))
	}
	pg := pagination.FromContext(c)
	invs, total, err := h.svc.ListByTenant(c.Request().Context(), tenantID, pg.Limit, pg.Offset)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, pagination.NewResponse(invs, total, pg.Limit, pg.Offset))
}

func (h *Handler) Validate(c echo.Context) error {
	v, err := h.svc.Validate(c.Request().Context(), c.Param("token"))
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, v)
}

func (h *Handler) Accept(c echo.Context) error {
	var in AcceptInput
	if err := c.Bind(&in); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}
	callerUserID := auth.UserIDFromContext(c.Request().Context())
	result, err := h.svc.Accept(c.Request().Context(), c.Param("token"), in, callerUserID)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, result)
}

func (h *Handler) Reject(c echo.Context) error {
	inv, err := h.svc.Reject(c.Request().Context(), c.Param("token"))
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, inv)
}
