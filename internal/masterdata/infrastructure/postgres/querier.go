package postgres

import (
	"context"
	"database/sql"
)

// Querier is the subset of database/sql used by hierarchy upserts. Both
// *sql.DB and *sql.Tx satisfy it, so the resolver can run inside the
// ingestion transaction or standalone.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
