package authsdk

import (
	"context"
	"net/http"
)

// Readiness states reported by /readyz. A degraded service still answers
// requests; it has lost the shared Redis limiter and falls back to
// per-instance limits.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// GetLiveness reports whether the process is up. It never touches a backend.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.getHealth(ctx, "/livez")
}

// GetReadiness reports database and Redis reachability.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.getHealth(ctx, "/readyz")
}

// Degraded is true when the service is serving without one of its optional
// backends.
func (h *HealthResponse) Degraded() bool {
	return h != nil && h.Status == HealthDegraded
}

func (c *SDKClient) getHealth(ctx context.Context, path string) (*HealthResponse, error) {
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
