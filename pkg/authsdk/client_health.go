package authsdk

import (
	"context"
	"net/http"
	"time"
)

// GetLiveness reports whether the gatekeep process is up.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/livez")
}

// GetReadiness reports whether gatekeep can reach its store and session
// backend.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/readyz")
}

// Health is GetReadiness.
func (c *SDKClient) Health(ctx context.Context) (*HealthResponse, error) {
	return c.GetReadiness(ctx)
}

// WaitReady polls /readyz every interval until it succeeds or ctx ends.
// The last readiness error is returned on timeout.
func (c *SDKClient) WaitReady(ctx context.Context, interval time.Duration) (*HealthResponse, error) {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		h, err := c.GetReadiness(ctx)
		if err == nil {
			return h, nil
		}
		select {
		case <-ctx.Done():
			return nil, err
		case <-ticker.C:
		}
	}
}

func (c *SDKClient) health(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}
