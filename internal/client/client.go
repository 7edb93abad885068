// ABOUTME: HTTP client for the forum BFF's operational endpoints
// ABOUTME: Used by CLI commands; maps connection and status failures to readable errors

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Client calls a running BFF instance
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new client with the given base URL
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// HealthResponse represents the /api/health endpoint response
type HealthResponse struct {
	Status   string `json:"status"`
	Upstream string `json:"upstream"`
}

// ErrorResponse is the BFF error body
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Health calls the /api/health endpoint
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, fmt.Errorf("request canceled")
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("request timed out")
		}
		return nil, fmt.Errorf("cannot connect to BFF at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Detail == "" {
			return nil, fmt.Errorf("BFF returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("BFF error: %s", errResp.Detail)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("invalid response from BFF: %w", err)
	}

	return &health, nil
}
