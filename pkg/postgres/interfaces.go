package postgres

import (
	"context"
	"database/sql"
)

// Client is the history database as used by the agent. Only writes and a
// health probe are needed; reads go through Redis.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect() error

	// Exec runs a statement that returns no rows
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

	HealthCheck(ctx context.Context) (*HealthStatus, error)
}
