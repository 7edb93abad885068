// ABOUTME: Typed client for the upstream identity endpoints
// ABOUTME: Login, who-am-I, token refresh, and logout with boundary validation

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/communityforum/bff/metrics"
	"github.com/communityforum/bff/models"
)

// Upstream identity endpoints
const (
	loginPath   = "/api/auth/login/"
	mePath      = "/api/auth/me/"
	refreshPath = "/api/auth/refresh/"
	logoutPath  = "/api/auth/logout/"
)

// maxAuthResponseBytes bounds identity/token payloads read into memory
const maxAuthResponseBytes = 1 << 20

// AuthAPI is the upstream surface the session manager depends on
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*models.TokenPair, error)
	Me(ctx context.Context, accessToken string) (*models.Identity, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
}

// AuthClient talks to the upstream identity API
type AuthClient struct {
	baseURL string
	client  *http.Client
	metrics *metrics.Metrics
}

// NewAuthClient creates an identity client. An empty baseURL is allowed;
// every call then fails with ErrNotConfigured.
func NewAuthClient(baseURL string, client *http.Client, m *metrics.Metrics) *AuthClient {
	if client == nil {
		client = NewUpstreamClient(nil)
	}
	return &AuthClient{baseURL: baseURL, client: client, metrics: m}
}

// Login exchanges credentials for a token pair
func (c *AuthClient) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	var pair models.TokenPair
	err := c.do(ctx, "auth.login", http.MethodPost, loginPath, "", models.LoginRequest{Email: email, Password: password}, &pair)
	if err != nil {
		return nil, err
	}
	if err := pair.Validate(); err != nil {
		return nil, unexpected("auth.login", err)
	}
	return &pair, nil
}

// Me resolves the identity behind an access token
func (c *AuthClient) Me(ctx context.Context, accessToken string) (*models.Identity, error) {
	var identity models.Identity
	if err := c.do(ctx, "auth.me", http.MethodGet, mePath, accessToken, nil, &identity); err != nil {
		return nil, err
	}
	if err := identity.Validate(); err != nil {
		return nil, unexpected("auth.me", err)
	}
	return &identity, nil
}

// Refresh obtains a new access token. The refresh token itself is not rotated here.
func (c *AuthClient) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var token models.AccessToken
	if err := c.do(ctx, "auth.refresh", http.MethodPost, refreshPath, "", models.RefreshRequest{Refresh: refreshToken}, &token); err != nil {
		return "", err
	}
	if token.Access == "" {
		return "", unexpected("auth.refresh", fmt.Errorf("refresh response has no access token"))
	}
	return token.Access, nil
}

// Logout tells the upstream to invalidate the refresh token
func (c *AuthClient) Logout(ctx context.Context, accessToken, refreshToken string) error {
	return c.do(ctx, "auth.logout", http.MethodPost, logoutPath, accessToken, models.RefreshRequest{Refresh: refreshToken}, nil)
}

// do performs one JSON round trip. out may be nil when the body is ignored.
func (c *AuthClient) do(ctx context.Context, op, method, path, bearer string, in, out interface{}) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.TransportFailure(op)
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	c.metrics.ObserveUpstream(op, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAuthResponseBytes))
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{
			Op:          op,
			StatusCode:  resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
			Body:        data,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return unexpected(op, err)
	}
	return nil
}
