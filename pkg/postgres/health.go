package postgres

import (
	"context"
	"fmt"
	"time"
)

// HealthStatus describes the history database as seen from the agent
type HealthStatus struct {
	Connected       bool          `json:"connected"`
	ServerVersion   string        `json:"server_version,omitempty"`
	Database        string        `json:"database"`
	PingLatency     time.Duration `json:"ping_latency_ns"`
	OpenConnections int           `json:"open_connections"`
	InUse           int           `json:"in_use"`
	Error           string        `json:"error,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
}

// HealthCheck pings the pool and reports its usage. Connection problems are
// reported in the status, not as an error.
func (c *PostgresClient) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{
		Database:  c.config.PostgresDB,
		Timestamp: time.Now(),
	}

	if c.db == nil {
		status.Error = "not connected"
		return status, nil
	}

	start := time.Now()
	if err := c.db.PingContext(ctx); err != nil {
		status.Error = fmt.Sprintf("ping failed: %v", err)
		return status, nil
	}
	status.PingLatency = time.Since(start)
	status.Connected = true

	stats := c.db.Stats()
	status.OpenConnections = stats.OpenConnections
	status.InUse = stats.InUse

	if err := c.db.QueryRowContext(ctx, "SHOW server_version").Scan(&status.ServerVersion); err != nil {
		status.Error = fmt.Sprintf("failed to get version: %v", err)
	}

	return status, nil
}
