// Package client talks to a running tilbot server.
package client

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"tilbot/types"
)

// ErrBusy is returned by TriggerRun when the server already has a run in flight
var ErrBusy = errors.New("server is busy with another run")

// Client represents the client for the tilbot server API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new client. An empty baseURL falls back to TILBOT_API_URL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = getEnvOrDefault("TILBOT_API_URL", "http://localhost:8080")
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Status fetches the current run state
func (c *Client) Status(ctx context.Context) (types.StatusResponse, error) {
	var status types.StatusResponse
	err := c.doJSONRequest(ctx, http.MethodGet, "/api/status", nil, &status)
	return status, err
}

// TriggerRun asks the server to start a run
func (c *Client) TriggerRun(ctx context.Context) error {
	err := c.doJSONRequest(ctx, http.MethodPost, "/api/run", nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
		return ErrBusy
	}
	return err
}

// getEnvOrDefault returns the value of an environment variable or a default value
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
