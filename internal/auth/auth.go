// Package auth resolves bearer tokens against an external auth backend
// (a GoTrue-style API). The backend owns signup, login, and token
// lifetimes; this package only asks "whose session is this" and forwards
// sign-outs.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNoSession is returned when the token is missing, expired, or
// rejected by the auth backend. Handlers translate it to a 401, not an
// error toast.
var ErrNoSession = errors.New("no valid session")

// Session is the authenticated user context for a request.
type Session struct {
	UserID uuid.UUID
	Email  string
}

// Client talks to the auth backend over HTTP.
type Client struct {
	baseURL string
	anonKey string
	client  *http.Client
}

// NewClient creates an auth client. baseURL is the backend root, e.g.
// "https://xyz.supabase.co".
func NewClient(baseURL, anonKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// userResponse is the backend's user object. Only the fields we use.
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// CurrentSession resolves a bearer token to a Session.
// Returns ErrNoSession for any 4xx from the backend.
func (c *Client) CurrentSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, ErrNoSession
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("auth backend error (status %d): %s", resp.StatusCode, string(body))
	}

	var user userResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}

	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", user.ID, err)
	}

	return &Session{UserID: userID, Email: user.Email}, nil
}

// SignOut invalidates the session upstream. A 401 from the backend means
// the session was already gone, which callers treat as success.
func (c *Client) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("signout request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 || resp.StatusCode == http.StatusUnauthorized {
		return nil
	}
	return fmt.Errorf("auth backend error (status %d)", resp.StatusCode)
}

func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}
}

// BearerToken extracts the bearer token from an Authorization header.
// Returns "" when the header is missing or not a bearer scheme.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return h[7:]
	}
	return ""
}
