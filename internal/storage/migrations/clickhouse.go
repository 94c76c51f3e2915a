package migrations

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	chstore "crosschain-swap-indexer/internal/storage/clickhouse"
)

// RunClickhouseMigrations creates the database named in dsn if needed and
// applies the embedded migrations. ClickHouse has no transactional DDL, so
// every statement must be idempotent. The returned connection points at the
// target database.
func RunClickhouseMigrations(ctx context.Context, dsn string, logger *zap.Logger) (*chstore.Conn, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dbName, err := databaseFromDSN(dsn)
	if err != nil {
		return nil, err
	}

	admin, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse admin: %w", err)
	}
	err = admin.Exec(ctx, "CREATE DATABASE IF NOT EXISTS "+quoteIdent(dbName))
	_ = admin.Close()
	if err != nil {
		return nil, fmt.Errorf("create database %s: %w", dbName, err)
	}

	conn, err := chstore.NewConnWithDatabase(ctx, dsn, dbName)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse db: %w", err)
	}

	migrations, err := load("clickhouse")
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	for _, m := range migrations {
		for _, stmt := range splitStatements(m.SQL) {
			if err := conn.Exec(ctx, stmt); err != nil {
				_ = conn.Close()
				return nil, fmt.Errorf("apply migration %s: %w", m.Version, err)
			}
		}
		logger.Info("applied clickhouse migration", zap.String("version", m.Version))
	}
	return conn, nil
}

// splitStatements splits a script on semicolons outside of quoted strings
// and comments. The native protocol rejects multi-statement queries.
func splitStatements(script string) []string {
	var (
		stmts   []string
		current strings.Builder
		quote   byte // active quote character, 0 outside strings
	)

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			stmts = append(stmts, stmt)
		}
		current.Reset()
	}

	for i := 0; i < len(script); i++ {
		ch := script[i]

		if quote != 0 {
			current.WriteByte(ch)
			switch {
			case ch == '\\' && i+1 < len(script):
				i++
				current.WriteByte(script[i])
			case ch == quote:
				quote = 0
			}
			continue
		}

		switch {
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
			current.WriteByte(ch)
		case ch == '-' && i+1 < len(script) && script[i+1] == '-':
			for i < len(script) && script[i] != '\n' {
				i++
			}
			current.WriteByte('\n')
		case ch == '/' && i+1 < len(script) && script[i+1] == '*':
			end := strings.Index(script[i+2:], "*/")
			if end < 0 {
				i = len(script)
			} else {
				i += end + 3
			}
			current.WriteByte(' ')
		case ch == ';':
			flush()
		default:
			current.WriteByte(ch)
		}
	}
	flush()
	return stmts
}

func databaseFromDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	db := strings.Trim(u.Path, "/")
	if db == "" {
		return "", errors.New("clickhouse dsn missing database")
	}
	return db, nil
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
