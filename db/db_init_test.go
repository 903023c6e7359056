// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitRequiresDatabaseURL(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Init(testContext(), "", 0), ErrDatabaseURLNotSet)
}

func TestInitRequiresDatabaseName(t *testing.T) {
	t.Setenv("PGDATABASE", "")

	require.ErrorIs(t, Init(testContext(), "postgres://localhost:1", 0), ErrDatabaseNameNotSpecified)
}

func TestSyncSchemaRequiresPool(t *testing.T) {
	if testSchemaName != "" {
		t.Skip("pool is initialized for the Postgres suite")
	}

	require.ErrorIs(t, SyncSchema(testContext(), "postgres://localhost/labwave"), ErrDatabaseConnectionNotInitialized)
}

func TestGetPoolAndClose(t *testing.T) {
	requirePostgres(t)

	require.NotNil(t, GetPool())

	Close()
	require.Nil(t, GetPool())

	require.NoError(t, initTestPool(testContext(), os.Getenv("DATABASE_URL"), testSchemaName))
	require.NotNil(t, GetPool())
}

func TestSyncSchemaIsRepeatable(t *testing.T) {
	requirePostgres(t)

	searchPathURL, err := withSearchPath(os.Getenv("DATABASE_URL"), testSchemaName)
	require.NoError(t, err)

	require.NoError(t, SyncSchema(testContext(), searchPathURL))
}
