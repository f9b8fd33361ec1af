package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/platform/auth"
)

// AuditEntry captures who accessed what, when, and from where. Bookings and
// payment records are patient data, so access to them is always logged.
type AuditEntry struct {
	UserID    string
	Email     string
	Roles     []string
	Action    string // read, create, update, delete
	Path      string
	Method    string
	IPAddress string
	RequestID string
	Status    int
	Timestamp time.Time
}

// AuditRecorder persists audit entries. Tests provide a mock; by default
// entries go to structured logs.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

func actionForMethod(method string) string {
	switch method {
	case "POST":
		return "create"
	case "PUT", "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	default:
		return "read"
	}
}

// Audit returns middleware that records access to /api/v1 routes. If no
// AuditRecorder is provided, it falls back to structured zerolog logging.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !strings.HasPrefix(req.URL.Path, "/api/v1") {
				return next(c)
			}

			err := next(c)

			ctx := req.Context()
			rid, _ := c.Get("request_id").(string)
			entry := AuditEntry{
				UserID:    auth.UserIDFromContext(ctx),
				Email:     auth.EmailFromContext(ctx),
				Roles:     auth.RolesFromContext(ctx),
				Action:    actionForMethod(req.Method),
				Path:      req.URL.Path,
				Method:    req.Method,
				IPAddress: c.RealIP(),
				RequestID: rid,
				Status:    c.Response().Status,
				Timestamp: time.Now(),
			}

			if len(recorders) > 0 {
				for _, r := range recorders {
					if recErr := r.RecordAccess(entry); recErr != nil {
						logger.Error().Err(recErr).Msg("audit recorder failed")
					}
				}
			} else {
				logger.Info().
					Str("user_id", entry.UserID).
					Str("action", entry.Action).
					Str("method", entry.Method).
					Str("path", entry.Path).
					Int("status", entry.Status).
					Str("request_id", entry.RequestID).
					Str("remote_ip", entry.IPAddress).
					Msg("audit")
			}

			return err
		}
	}
}
