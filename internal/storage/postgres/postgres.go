package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"crosschain-swap-indexer/internal/domain"
	"crosschain-swap-indexer/internal/storage"
)

const applicationName = "crosschain-swap-indexer"

// Pool is the shared pgx pool behind Store. Migrations and tests use it
// directly.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects and pings. The DSN may override application_name.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	inner, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := inner.Ping(ctx); err != nil {
		inner.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Pool{Pool: inner}, nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// translateError maps driver errors onto storage sentinels.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return storage.ErrDuplicateKey
		case codeForeignKeyViolation:
			return fmt.Errorf("%s: %w: %s", op, storage.ErrInvalidInput, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Amounts are stored as NUMERIC(78,0) and travel as decimal text.
func amountArg(v *uint256.Int) any {
	if v == nil {
		return nil
	}
	return v.Dec()
}

func scanAmount(s *string) (*uint256.Int, error) {
	if s == nil {
		return nil, nil
	}
	return domain.ParseAmount(*s)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
