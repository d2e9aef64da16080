package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testUserID = "6b1e5c2e-0000-4000-8000-000000000001"

func TestCurrentSession(t *testing.T) {
	t.Run("valid_token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/auth/v1/user" {
				t.Errorf("path = %q", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer tok-123" {
				t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
			}
			if r.Header.Get("apikey") != "anon-key" {
				t.Errorf("apikey = %q", r.Header.Get("apikey"))
			}
			w.Write([]byte(`{"id":"` + testUserID + `","email":"amy@example.com"}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "anon-key", time.Second)
		sess, err := c.CurrentSession(context.Background(), "tok-123")
		if err != nil {
			t.Fatalf("CurrentSession: %v", err)
		}
		if sess.UserID.String() != testUserID {
			t.Errorf("UserID = %s", sess.UserID)
		}
		if sess.Email != "amy@example.com" {
			t.Errorf("Email = %q", sess.Email)
		}
	})

	t.Run("empty_token_is_no_session", func(t *testing.T) {
		c := NewClient("http://unused", "", time.Second)
		_, err := c.CurrentSession(context.Background(), "")
		if !errors.Is(err, ErrNoSession) {
			t.Errorf("err = %v, want ErrNoSession", err)
		}
	})

	t.Run("rejected_token_is_no_session", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "", time.Second)
		_, err := c.CurrentSession(context.Background(), "expired")
		if !errors.Is(err, ErrNoSession) {
			t.Errorf("err = %v, want ErrNoSession", err)
		}
	})

	t.Run("backend_5xx_is_a_real_error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "", time.Second)
		_, err := c.CurrentSession(context.Background(), "tok")
		if err == nil || errors.Is(err, ErrNoSession) {
			t.Errorf("err = %v, want non-ErrNoSession error", err)
		}
	})
}

func TestSignOut(t *testing.T) {
	t.Run("posts_logout", func(t *testing.T) {
		var called bool
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			if r.Method != http.MethodPost || r.URL.Path != "/auth/v1/logout" {
				t.Errorf("%s %s", r.Method, r.URL.Path)
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "", time.Second)
		if err := c.SignOut(context.Background(), "tok"); err != nil {
			t.Fatalf("SignOut: %v", err)
		}
		if !called {
			t.Error("logout endpoint not called")
		}
	})

	t.Run("already_invalid_session_is_success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "", time.Second)
		if err := c.SignOut(context.Background(), "tok"); err != nil {
			t.Errorf("SignOut: %v", err)
		}
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"bearer", "Bearer abc", "abc"},
		{"missing", "", ""},
		{"basic_scheme", "Basic dXNlcg==", ""},
		{"bare_token", "abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if got := BearerToken(r); got != tt.want {
				t.Errorf("BearerToken = %q, want %q", got, tt.want)
			}
		})
	}
}
