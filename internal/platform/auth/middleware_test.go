package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

const testSecret = "unit-test-secret"

func mintTestToken(t *testing.T, email string, roles []string) string {
	t.Helper()
	iss := NewIssuer([]byte(testSecret), "carelink", time.Hour)
	token, err := iss.Mint("user-1", email, "clinic-1", roles)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return token
}

func testMiddlewareConfig() JWTConfig {
	return JWTConfig{
		Issuer:     "carelink",
		Audience:   "carelink",
		SigningKey: []byte(testSecret),
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	h := JWTMiddleware(testMiddlewareConfig())(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_InvalidToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	c := e.NewContext(req, httptest.NewRecorder())

	h := JWTMiddleware(testMiddlewareConfig())(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, "dr.x@example.com", []string{"doctor"}))
	c := e.NewContext(req, httptest.NewRecorder())

	h := JWTMiddleware(testMiddlewareConfig())(func(c echo.Context) error {
		ctx := c.Request().Context()
		if UserIDFromContext(ctx) != "user-1" {
			t.Errorf("unexpected user id: %s", UserIDFromContext(ctx))
		}
		if EmailFromContext(ctx) != "dr.x@example.com" {
			t.Errorf("unexpected email: %s", EmailFromContext(ctx))
		}
		if got := RolesFromContext(ctx); len(got) != 1 || got[0] != "doctor" {
			t.Errorf("unexpected roles: %v", got)
		}
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tid, _ := c.Get("jwt_tenant_id").(string); tid != "clinic-1" {
		t.Errorf("expected jwt_tenant_id clinic-1, got %q", tid)
	}
}

func TestOptionalJWTMiddleware_AnonymousPasses(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	called := false
	h := OptionalJWTMiddleware(testMiddlewareConfig())(func(c echo.Context) error {
		called = true
		if EmailFromContext(c.Request().Context()) != "" {
			t.Error("expected no identity for anonymous request")
		}
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected handler to be called")
	}
}

func TestOptionalJWTMiddleware_BadTokenRejected(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	c := e.NewContext(req, httptest.NewRecorder())

	h := OptionalJWTMiddleware(testMiddlewareConfig())(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for present-but-invalid token, got %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, "a@example.com", []string{"clinic_admin"}))
	c := e.NewContext(req, httptest.NewRecorder())

	auth := JWTMiddleware(testMiddlewareConfig())
	allowed := auth(RequireRole("clinic_admin")(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}))
	if err := allowed(c); err != nil {
		t.Errorf("expected clinic_admin to pass, got %v", err)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.Header.Set("Authorization", "Bearer "+mintTestToken(t, "a@example.com", []string{"doctor"}))
	c2 := e.NewContext(req2, httptest.NewRecorder())
	denied := auth(RequireRole("clinic_admin")(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}))
	err := denied(c2)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403 for doctor, got %v", err)
	}
}

func TestRequireRole_PlatformAdminBypass(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, "root@example.com", []string{"platform_admin"}))
	c := e.NewContext(req, httptest.NewRecorder())

	h := JWTMiddleware(testMiddlewareConfig())(RequireRole("clinic_admin")(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}))
	if err := h(c); err != nil {
		t.Errorf("expected platform_admin to bypass role check, got %v", err)
	}
}
