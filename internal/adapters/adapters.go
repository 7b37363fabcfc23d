// Package adapters abstracts the database client libraries behind one small
// interface so the listing engine and the order store work identically on top of
// pgxpool.Pool, database/sql, and sqlx.DB connections.
package adapters

import "context"

// DBAdapter is the interface both storefront engines execute their SQL through.
type DBAdapter interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
}

// DBRows is the row iterator of a query result.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult is the outcome of a statement execution.
type DBResult interface {
	RowsAffected() (int64, error)
}
