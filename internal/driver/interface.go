package driver

import (
	"context"
	"database/sql"
)

// Opener opens a single-connection session for a connection target.
// Every operation opens its own session; nothing is pooled or reused across calls.
type Opener func(ctx context.Context, target string) (*Session, error)

// Querier is the subset of database/sql used by the browser operations.
type Querier interface {
	// QueryContext executes a query that returns rows.
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var _ Querier = (*Session)(nil)
