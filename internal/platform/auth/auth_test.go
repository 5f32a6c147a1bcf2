package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

var testCfg = JWTConfig{
	Secret: []byte("0123456789abcdef0123456789abcdef"),
	Issuer: "clinic-api",
}

func execute(mw echo.MiddlewareFunc, authz string) (int, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var final echo.Context
	err := mw(func(c echo.Context) error {
		final = c
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return he.Code, final
		}
		return http.StatusInternalServerError, final
	}
	return rec.Code, final
}

func TestJWTMiddleware(t *testing.T) {
	mw := JWTMiddleware(testCfg)

	t.Run("valid token passes and populates context", func(t *testing.T) {
		token, err := IssueToken(testCfg, "user-42", "Dr. Osei", []string{"physician"}, time.Hour)
		if err != nil {
			t.Fatalf("IssueToken: %v", err)
		}

		code, c := execute(mw, "Bearer "+token)
		if code != http.StatusOK {
			t.Fatalf("status = %d, want 200", code)
		}
		ctx := c.Request().Context()
		if got := UserIDFromContext(ctx); got != "user-42" {
			t.Errorf("user id = %s", got)
		}
		if got := UserNameFromContext(ctx); got != "Dr. Osei" {
			t.Errorf("user name = %s", got)
		}
		roles := RolesFromContext(ctx)
		if len(roles) != 1 || roles[0] != "physician" {
			t.Errorf("roles = %v", roles)
		}
	})

	t.Run("missing header rejected", func(t *testing.T) {
		code, _ := execute(mw, "")
		if code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", code)
		}
	})

	t.Run("malformed header rejected", func(t *testing.T) {
		code, _ := execute(mw, "Token abc")
		if code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", code)
		}
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		other := JWTConfig{Secret: []byte("ffffffffffffffffffffffffffffffff"), Issuer: "clinic-api"}
		token, _ := IssueToken(other, "user-42", "", nil, time.Hour)
		code, _ := execute(mw, "Bearer "+token)
		if code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", code)
		}
	})

	t.Run("expired token rejected", func(t *testing.T) {
		token, _ := IssueToken(testCfg, "user-42", "", nil, -time.Minute)
		code, _ := execute(mw, "Bearer "+token)
		if code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", code)
		}
	})

	t.Run("wrong issuer rejected", func(t *testing.T) {
		other := JWTConfig{Secret: testCfg.Secret, Issuer: "someone-else"}
		token, _ := IssueToken(other, "user-42", "", nil, time.Hour)
		code, _ := execute(mw, "Bearer "+token)
		if code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", code)
		}
	})
}

func TestRequireRole(t *testing.T) {
	serve := func(userRoles []string, required ...string) int {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if userRoles != nil {
			ctx := context.WithValue(c.Request().Context(), UserRolesKey, userRoles)
			c.SetRequest(c.Request().WithContext(ctx))
		}

		err := RequireRole(required...)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})(c)
		if err != nil {
			if he, ok := err.(*echo.HTTPError); ok {
				return he.Code
			}
			return http.StatusInternalServerError
		}
		return rec.Code
	}

	t.Run("matching role passes", func(t *testing.T) {
		if code := serve([]string{"physician"}, "physician"); code != http.StatusOK {
			t.Errorf("status = %d, want 200", code)
		}
	})

	t.Run("admin passes any check", func(t *testing.T) {
		if code := serve([]string{"admin"}, "pharmacist"); code != http.StatusOK {
			t.Errorf("status = %d, want 200", code)
		}
	})

	t.Run("any of several roles passes", func(t *testing.T) {
		if code := serve([]string{"nurse"}, "registrar", "nurse"); code != http.StatusOK {
			t.Errorf("status = %d, want 200", code)
		}
	})

	t.Run("missing role forbidden", func(t *testing.T) {
		if code := serve([]string{"registrar"}, "physician"); code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", code)
		}
	})

	t.Run("no roles forbidden", func(t *testing.T) {
		if code := serve(nil, "physician"); code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", code)
		}
	})
}

func TestDevAuthMiddleware(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := DevAuthMiddleware()(func(c echo.Context) error {
		roles := RolesFromContext(c.Request().Context())
		if len(roles) != 1 || roles[0] != "admin" {
			t.Errorf("dev roles = %v, want [admin]", roles)
		}
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		t.Fatalf("DevAuthMiddleware: %v", err)
	}
}
