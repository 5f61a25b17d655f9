package apiclient

import "time"

// HealthStatus is the health endpoint response envelope.
type HealthStatus struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Healthy reports whether the server answered healthy.
func (s *HealthStatus) Healthy() bool {
	return s.Status == "healthy"
}

// Health checks the liveness endpoint.
func (c *Client) Health() (*HealthStatus, error) {
	var status HealthStatus
	if err := c.get("/health", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Ready checks the readiness endpoint, including database connectivity.
func (c *Client) Ready() (*HealthStatus, error) {
	var status HealthStatus
	if err := c.get("/health/ready", &status); err != nil {
		return nil, err
	}
	return &status, nil
}
