package booking

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/platform/apperr"
	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/pkg/pagination"
	"github.com/carelink/carelink/pkg/respond"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the booking endpoints. The webhook goes on the
// public group: the gateway does not authenticate, the store-id check and
// correlation id lookup gate it instead.
func (h *Handler) RegisterRoutes(api, public *echo.Group) {
	api.POST("/bookings", h.Create)
	api.GET("/bookings/:id", h.Get)
	api.GET("/bookings/:id/payments", h.ListPayments)
	api.POST("/bookings/:id/cancel", h.Cancel)
	api.POST("/bookings/:id/payment-link", h.RequestPaymentLink)
	api.GET("/users/me/bookings", h.ListMine)

	staff := api.Group("", auth.RequireRole("tenant_admin"))
	staff.GET("/tenants/:id/bookings", h.ListByTenant)

	public.POST("/webhooks/payments", h.PaymentWebhook)
}

func (h *Handler) Create(c echo.Context) error {
	patientID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return respond.Error(c, apperr.Forbidden("not authenticated"))
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}
	b, err := h.svc.Create(c.Request().Context(), patientID, in)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.Created(c, b)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid id"))
	}
	b, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, b)
}

func (h *Handler) ListMine(c echo.Context) error {
	patientID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return respond.Error(c, apperr.Forbidden("not authenticated"))
	}
	pg := pagination.FromContext(c)
	bookings, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, pagination.NewResponse(bookings, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListByTenant(c echo.Context) error {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid id"))
	}
	pg := pagination.FromContext(c)
	bookings, total, err := h.svc.ListByTenant(c.Request().Context(), tenantID, pg.Limit, pg.Offset)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, pagination.NewResponse(bookings, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListPayments(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid id"))
	}
	payments, err := h.svc.ListPayments(c.Request().Context(), id)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, payments)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid id"))
	}
	if err := h.svc.Cancel(c.Request().Context(), id); err != nil {
		return respond.Error(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RequestPaymentLink(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation("invalid id"))
	}
	p, err := h.svc.RequestPaymentLink(c.Request().Context(), id)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.Created(c, p)
}

// Ack is the gateway's acknowledgment contract. Field names and shape are
// fixed by the provider's integration guide and reproduced exactly,
// including on validation failures.
type Ack struct {
	Response  bool   `json:"Response"`
	ErrorCode string `json:"ErrorCode"`
}

// PaymentWebhook consumes the gateway callback. Failures are answered with
// the gateway's own error vocabulary and never escalate: delivery is
// at-least-once and the gateway's retry policy decides what to do with a
// non-success acknowledgment.
func (h *Handler) PaymentWebhook(c echo.Context) error {
	var cb Callback
	if err := c.Bind(&cb); err != nil {
		return c.JSON(http.StatusBadRequest, Ack{Response: false, ErrorCode: "MALFORMED_PAYLOAD"})
	}

	err := h.svc.Reconcile(c.Request().Context(), cb)
	if err == nil {
		return c.JSON(http.StatusOK, Ack{Response: true, ErrorCode: ""})
	}

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return c.JSON(http.StatusBadRequest, Ack{Response: false, ErrorCode: "MISSING_FIELDS"})
	case apperr.KindForbidden:
		return c.JSON(http.StatusForbidden, Ack{Response: false, ErrorCode: "STORE_MISMATCH"})
	case apperr.KindNotFound:
		return c.JSON(http.StatusNotFound, Ack{Response: false, ErrorCode: "UNKNOWN_REFERENCE"})
	default:
		h.logger.Error().Err(err).Str("correlation_id", cb.CorrelationID).Msg("webhook reconciliation failed")
		return c.JSON(http.StatusInternalServerError, Ack{Response: false, ErrorCode: "INTERNAL_ERROR"})
	}
}
