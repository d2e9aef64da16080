package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type stubPinger struct{ err error }

func (p *stubPinger) HealthCheck(context.Context) error { return p.err }

func TestHealthEndpoint(t *testing.T) {
	start := time.Now().Add(-90 * time.Second)

	t.Run("healthy", func(t *testing.T) {
		h := NewHealthHandler(&stubPinger{}, "local", "groq/whisper-large-v3-turbo", "anthropic/claude-sonnet-4-20250514", true, "v1.2.3", start)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp HealthResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Status != "healthy" {
			t.Errorf("status = %q", resp.Status)
		}
		if resp.Version != "v1.2.3" {
			t.Errorf("version = %q", resp.Version)
		}
		if resp.UptimeSeconds < 89 {
			t.Errorf("uptime = %d, want >= 89", resp.UptimeSeconds)
		}
		if resp.Checks["database"] != "ok" {
			t.Errorf("database check = %q", resp.Checks["database"])
		}
		if resp.Checks["storage"] != "local" {
			t.Errorf("storage check = %q", resp.Checks["storage"])
		}
	})

	t.Run("database_down", func(t *testing.T) {
		h := NewHealthHandler(&stubPinger{err: errors.New("conn refused")}, "local", "mock/mock", "mock/mock", true, "dev", start)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
		var resp HealthResponse
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Status != "unhealthy" {
			t.Errorf("status = %q", resp.Status)
		}
	})

	t.Run("no_auth_gate_degraded", func(t *testing.T) {
		h := NewHealthHandler(&stubPinger{}, "s3", "mock/mock", "mock/mock", false, "dev", start)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

		var resp HealthResponse
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Status != "degraded" {
			t.Errorf("status = %q, want degraded", resp.Status)
		}
		if resp.Checks["auth"] != "not_configured" {
			t.Errorf("auth check = %q", resp.Checks["auth"])
		}
	})
}

type stubRevoker struct {
	called bool
	err    error
}

func (s *stubRevoker) SignOut(context.Context, string) error {
	s.called = true
	return s.err
}

func TestSignOut(t *testing.T) {
	t.Run("revokes_upstream", func(t *testing.T) {
		revoker := &stubRevoker{}
		rec := httptest.NewRecorder()
		SignOutHandler(revoker)(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/signout", nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
		if !revoker.called {
			t.Error("revoker not called")
		}
	})

	t.Run("upstream_error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		SignOutHandler(&stubRevoker{err: errors.New("boom")})(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/signout", nil))
		if rec.Code != http.StatusBadGateway {
			t.Errorf("status = %d, want 502", rec.Code)
		}
	})

	t.Run("nil_revoker_noop", func(t *testing.T) {
		rec := httptest.NewRecorder()
		SignOutHandler(nil)(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/signout", nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
	})
}
