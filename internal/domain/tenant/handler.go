package tenant

import (
	"context"

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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/tenants", h.Register)
	api.GET("/tenants/:id", h.Get)
	api.GET("/tenants/:id/branches", h.ListBranches)

	owner := api.Group("", auth.RequireRole("tenant_admin"))
	owner.POST("/tenants/:id/branches", h.AddBranch)
	owner.PUT("/tenants/:id/branches/:branch_id", h.UpdateBranch)

	admin := api.Group("", auth.RequireRole("platform_admin"))
	admin.GET("/tenants", h.List)
	admin.POST("/tenants/:id/approve", h.Approve)
	admin.POST("/tenants/:id/reject", h.Reject)
	admin.POST("/tenants/:id/suspend", h.Suspend)
}

func (h *Handler) Register(c echo.Context) error {
	ownerID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return respond.Error(c, apperr.Forbidden("not authenticated"))
	}
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}
	t, err := h.svc.Register(c.Request().Context(), ownerID, in)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.Created(c, t)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid id"))
	}
	t, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, t)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	approval := ApprovalStatus(c.QueryParam("approval"))
	tenants, total, err := h.svc.List(c.Request().Context(), approval, pg.Limit, pg.Offset)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, pagination.NewResponse(tenants, total, pg.Limit, pg.Offset))
}

func (h *Handler) Approve(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid id"))
	}
	t, err := h.svc.Approve(c.Request().Context(), id)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, t)
}

func (h *Handler) Reject(c echo.Context) error {
	return h.moderate(c, h.svc.Reject)
}

func (h *Handler) Suspend(c echo.Context) error {
	return h.moderate(c, h.svc.Suspend)
}

func (h *Handler) moderate(c echo.Context, op func(ctx context.Context, id uuid.UUID, note string) (*Tenant, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid id"))
	}
	var in struct {
		Note string `json:"note"`
	}
	if err := c.Bind(&in); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}
	t, err := op(c.Request().Context(), id, in.Note)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, t)
}

func (h *Handler) AddBranch(c echo.Context) error {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid id"))
	}
	var b Branch
	if err := c.Bind(&b); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}
	b.TenantID = tenantID
	if err := h.svc.AddBranch(c.Request().Context(), &b); err != nil {
		return respond.Error(c, err)
	}
	return respond.Created(c, b)
}

func (h *Handler) ListBranches(c echo.Context) error {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid id"))
	}
	branches, err := h.svc.ListBranches(c.Request().Context(), tenantID)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, branches)
}

func (h *Handler) UpdateBranch(c echo.Context) error {
	branchID, err := uuid.Parse(c.Param("branch_id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid branch_id"))
	}
	var b Branch
	if err := c.Bind(&b); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}
	b.ID = branchID
	if err := h.svc.UpdateBranch(c.Request().Context(), &b); err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, b)
}
