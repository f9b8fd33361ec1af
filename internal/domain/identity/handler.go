package identity

import (
	"net/http"

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

// RegisterRoutes mounts the identity endpoints. public carries no auth
// middleware; api requires a valid session.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.POST("/auth/register", h.Register)
	public.POST("/auth/login", h.Login)

	api.GET("/users/me", h.Me)
	api.GET("/users/me/profile", h.GetProfile)
	api.PUT("/users/me/profile", h.UpdateProfile)
	api.PUT("/users/me/password", h.ChangePassword)

	admin := api.Group("", auth.RequireRole("platform_admin"))
	admin.GET("/users", h.ListUsers)
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}
	u, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.Created(c, u)
}

func (h *Handler) Login(c echo.Context) error {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&in); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}
	u, token, err := h.svc.Authenticate(c.Request().Context(), in.Email, in.Password)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, echo.Map{"token": token, "user": u})
}

func (h *Handler) Me(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return respond.Error(c, err)
	}
	u, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, u)
}

func (h *Handler) GetProfile(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return respond.Error(c, err)
	}
	p, err := h.svc.GetProfile(c.Request().Context(), id)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, p)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return respond.Error(c, err)
	}
	var p Profile
	if err := c.Bind(&p); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}
	p.UserID = id
	if err := h.svc.UpdateProfile(c.Request().Context(), &p); err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, p)
}

func (h *Handler) ChangePassword(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return respond.Error(c, err)
	}
	var in struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&in); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}
	if err := h.svc.ChangePassword(c.Request().Context(), id, in.CurrentPassword, in.NewPassword); err != nil {
		return respond.Error(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListUsers(c echo.Context) error {
	pg := pagination.FromContext(c)
	users, total, err := h.svc.ListUsers(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, pagination.NewResponse(users, total, pg.Limit, pg.Offset))
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, apperr.Forbidden("not authenticated")
	}
	return id, nil
}
