/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/humaidq/labwave/catalog"
)

// ReferenceRange is one stored reference-range row
type ReferenceRange struct {
	BiomarkerCode string
	AgeRange      string
	Gender        string
	Low           *float64
	High          *float64
}

// SyncReferenceRanges upserts the built-in catalog into the biomarkers and
// reference_ranges tables so measurement rows reference a known code.
func SyncReferenceRanges(ctx context.Context) error {
	return SyncCatalog(ctx, catalog.Default())
}

// SyncCatalog upserts every biomarker and range rule of c.
func SyncCatalog(ctx context.Context, c *catalog.Catalog) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	biomarkers := c.All()
	logger.Infof("Syncing %d biomarker definitions to database...", len(biomarkers))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start catalog sync transaction: %w", err)
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Warn("Failed to rollback catalog sync", "error", err)
		}
	}()

	batch := &pgx.Batch{}
	rangeCount := 0

	for _, b := range biomarkers {
		batch.Queue(`
			INSERT INTO biomarkers (code, name, category, unit)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (code)
			DO UPDATE SET
				name = EXCLUDED.name,
				category = EXCLUDED.category,
				unit = EXCLUDED.unit,
				updated_at = now()
		`, b.Code, b.Name(), string(b.Category), b.Unit)

		for _, r := range b.Ranges {
			batch.Queue(`
				INSERT INTO reference_ranges (biomarker_code, age_range, gender, range_low, range_high)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (biomarker_code, age_range, gender)
				DO UPDATE SET
					range_low = EXCLUDED.range_low,
					range_high = EXCLUDED.range_high,
					updated_at = now()
			`, b.Code, string(r.AgeRange), string(r.Gender), r.Low, r.High)

			rangeCount++
		}
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to sync catalog: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit catalog sync: %w", err)
	}

	logger.Infof("Successfully synced %d biomarkers and %d reference ranges", len(biomarkers), rangeCount)

	return nil
}

// GetReferenceRanges returns the stored range rows for one biomarker.
func GetReferenceRanges(ctx context.Context, code string) ([]ReferenceRange, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT biomarker_code, age_range, gender, range_low, range_high
		FROM reference_ranges
		WHERE biomarker_code = $1
		ORDER BY age_range, gender
	`, code)
	if err != nil {
		return nil, fmt.Errorf("failed to query reference ranges: %w", err)
	}
	defer rows.Close()

	var out []ReferenceRange

	for rows.Next() {
		var r ReferenceRange
		if err := rows.Scan(&r.BiomarkerCode, &r.AgeRange, &r.Gender, &r.Low, &r.High); err != nil {
			return nil, fmt.Errorf("failed to scan reference range: %w", err)
		}

		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reference ranges: %w", err)
	}

	return out, nil
}
