// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// testSchemaName is empty when DATABASE_URL is unset; Postgres tests skip.
var testSchemaName string

func TestMain(m *testing.M) {
	code := run(m)
	os.Exit(code)
}

func run(m *testing.M) int {
	ctx := context.Background()

	baseDatabaseURL := os.Getenv("DATABASE_URL")
	if baseDatabaseURL == "" {
		return m.Run()
	}

	if err := ensureDatabaseExists(ctx, baseDatabaseURL); err != nil {
		fmt.Fprintln(os.Stderr, "failed to ensure database exists:", err)
		return 1
	}

	schema := fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), os.Getpid())

	if err := execAdmin(ctx, baseDatabaseURL, "CREATE SCHEMA "+pgx.Identifier{schema}.Sanitize()); err != nil {
		fmt.Fprintln(os.Stderr, "failed to create test schema:", err)
		return 1
	}

	defer func() {
		if err := execAdmin(ctx, baseDatabaseURL, "DROP SCHEMA "+pgx.Identifier{schema}.Sanitize()+" CASCADE"); err != nil {
			fmt.Fprintln(os.Stderr, "failed to drop test schema:", err)
		}
	}()

	if err := initTestPool(ctx, baseDatabaseURL, schema); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init test pool:", err)
		return 1
	}

	defer Close()

	searchPathURL, err := withSearchPath(baseDatabaseURL, schema)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build search_path url:", err)
		return 1
	}

	if err := SyncSchema(ctx, searchPathURL); err != nil {
		fmt.Fprintln(os.Stderr, "failed to sync schema:", err)
		return 1
	}

	testSchemaName = schema

	return m.Run()
}

func requirePostgres(t *testing.T) {
	t.Helper()

	if testSchemaName == "" {
		t.Skip("DATABASE_URL not set")
	}
}

func initTestPool(ctx context.Context, databaseURL string, schemaName string) error {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database url: %w", err)
	}

	if config.ConnConfig.RuntimeParams == nil {
		config.ConnConfig.RuntimeParams = map[string]string{}
	}

	config.ConnConfig.RuntimeParams["search_path"] = schemaName + ",public"

	config.MaxConns = 5
	config.MinConns = 1

	pool, err = pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create test pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func withSearchPath(databaseURL string, schemaName string) (string, error) {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse database url: %w", err)
	}

	query := parsed.Query()
	query.Set("options", fmt.Sprintf("-c search_path=%s,public", schemaName))
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

func execAdmin(ctx context.Context, databaseURL, query string) error {
	config, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database url: %w", err)
	}

	conn, err := pgx.ConnectConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	defer func() {
		if err := conn.Close(ctx); err != nil {
			logger.Warn("Failed to close schema connection", "error", err)
		}
	}()

	if _, err := conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to run %q: %w", strings.Fields(query)[0], err)
	}

	return nil
}

// truncateSchema empties every table except the migration and catalog tables.
func truncateSchema(ctx context.Context) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	_, err := pool.Exec(ctx, "TRUNCATE parse_candidates, genetic_variants, measurements, uploads, profiles")
	if err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}

	return nil
}
