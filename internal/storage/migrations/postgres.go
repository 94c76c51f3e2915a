package migrations

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"crosschain-swap-indexer/internal/storage/postgres"
)

var errAlreadyApplied = errors.New("migration already applied")

const createVersionTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// advisoryLockID serializes concurrent migrators (indexer and server start together).
const advisoryLockID = 7_305_113_001

// RunPostgresMigrations applies every embedded migration that is not yet
// recorded in schema_migrations. Each file runs in its own transaction
// together with its version row.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	migrations, err := load("postgres")
	if err != nil {
		return err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		return fmt.Errorf("lock migrations: %w", err)
	}
	defer func() {
		_, _ = conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", advisoryLockID)
	}()

	if _, err := conn.Exec(ctx, createVersionTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		err := pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
			tag, err := tx.Exec(ctx,
				"INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT (version) DO NOTHING", m.Version)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return errAlreadyApplied
			}
			_, err = tx.Exec(ctx, m.SQL)
			return err
		})
		switch {
		case errors.Is(err, errAlreadyApplied):
			continue
		case err != nil:
			return fmt.Errorf("apply migration %s: %w", m.Version, err)
		}
		logger.Info("applied postgres migration", zap.String("version", m.Version))
	}
	return nil
}
