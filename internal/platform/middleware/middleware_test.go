package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicware/clinic-api/internal/platform/auth"
)

func TestRateLimit(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})
	e := echo.New()

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderXRealIP, ip)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		err := mw(func(c echo.Context) error {
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

	t.Run("burst allowed then limited", func(t *testing.T) {
		if code := do("10.0.0.1"); code != http.StatusOK {
			t.Errorf("first request: %d", code)
		}
		if code := do("10.0.0.1"); code != http.StatusOK {
			t.Errorf("second request: %d", code)
		}
		if code := do("10.0.0.1"); code != http.StatusTooManyRequests {
			t.Errorf("third request: %d, want 429", code)
		}
	})

	t.Run("clients are limited independently", func(t *testing.T) {
		if code := do("10.0.0.2"); code != http.StatusOK {
			t.Errorf("fresh client limited: %d", code)
		}
	})

	t.Run("users behind one address get their own bucket", func(t *testing.T) {
		doAs := func(ip, userID string) int {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(echo.HeaderXRealIP, ip)
			req = req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, userID))
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			err := mw(func(c echo.Context) error {
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

		// Exhaust the first user's burst.
		doAs("10.0.0.3", "reg-1")
		doAs("10.0.0.3", "reg-1")
		if code := doAs("10.0.0.3", "reg-1"); code != http.StatusTooManyRequests {
			t.Errorf("exhausted user: %d, want 429", code)
		}
		if code := doAs("10.0.0.3", "reg-2"); code != http.StatusOK {
			t.Errorf("second user sharing the address limited: %d", code)
		}
	})
}

func TestRequestID(t *testing.T) {
	e := echo.New()

	t.Run("generates an id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		err := RequestID()(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})(c)
		if err != nil {
			t.Fatalf("RequestID: %v", err)
		}
		if rec.Header().Get(echo.HeaderXRequestID) == "" {
			t.Error("no request id echoed")
		}
	})

	t.Run("honors caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderXRequestID, "caller-id-1")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		err := RequestID()(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})(c)
		if err != nil {
			t.Fatalf("RequestID: %v", err)
		}
		if got := rec.Header().Get(echo.HeaderXRequestID); got != "caller-id-1" {
			t.Errorf("request id = %s, want caller-id-1", got)
		}
	})
}

func TestSecurityHeaders(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := SecurityHeaders()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		t.Fatalf("SecurityHeaders: %v", err)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing X-Content-Type-Options header")
	}
	if rec.Header().Get("X-Frame-Options") == "" {
		t.Error("missing X-Frame-Options header")
	}
}

func TestRecovery(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := Recovery(zerolog.Nop())(func(c echo.Context) error {
		panic("boom")
	})(c)
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 HTTPError, got %v", err)
	}
}
