// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humaidq/labwave/catalog"
)

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()

	entries, err := fs.ReadDir(GetEmbeddedMigrations(), "migrations")
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestReferenceRangesSynced(t *testing.T) {
	requirePostgres(t)

	ctx := testContext()

	// Syncing again is an upsert.
	require.NoError(t, SyncReferenceRanges(ctx))

	b, err := catalog.Default().MustLookup("HDL")
	require.NoError(t, err)

	ranges, err := GetReferenceRanges(ctx, "HDL")
	require.NoError(t, err)
	assert.Len(t, ranges, len(b.Ranges))

	none, err := GetReferenceRanges(ctx, "NOPE")
	require.NoError(t, err)
	assert.Empty(t, none)
}
