// Package postgres implements indexer persistence on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE
//go:generate mockgen -destination=row_mock_test.go -package=$GOPACKAGE github.com/jackc/pgx/v5 Row,Rows

type (
	// DB is the subset of *pgxpool.Pool used by the repository.
	DB interface {
		Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
		QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
		Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	}
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}
)

// Repository persists blocks, transactions, inputs, outputs and jobs.
// All methods are safe for concurrent use; the pool is the only shared state.
type Repository struct {
	db      DB
	metrics Metrics
}

// NewRepository wraps a pooled connection handle owned by the caller.
func NewRepository(db DB, metrics Metrics) (*Repository, error) {
	if db == nil {
		return nil, errors.New("postgres db is required")
	}
	if metrics == nil {
		return nil, errors.New("postgres repository metrics is required")
	}
	return &Repository{db: db, metrics: metrics}, nil
}
