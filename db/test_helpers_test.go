// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/humaidq/labwave/models"
)

func testContext() context.Context {
	return context.Background()
}

func newSQLite(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sub", "labwave.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close() })

	return s
}

func testUpload(userID string) models.Upload {
	return models.Upload{
		ID:         uuid.New(),
		UserID:     userID,
		Filename:   "labs.csv",
		Format:     "tabular-lab",
		Variant:    "csv",
		SizeBytes:  128,
		ReceivedAt: time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC),
		Status:     models.UploadProcessed,
	}
}

func testMeasurement(userID string, upload uuid.UUID, code string, v float64, day time.Time) models.NormalizedMeasurement {
	high := 99.0

	return models.NormalizedMeasurement{
		ID:            uuid.New(),
		UserID:        userID,
		BiomarkerCode: code,
		Value:         v,
		Unit:          "mg/dL",
		Day:           day,
		Source:        models.SourceLabFile,
		Status:        models.StatusOptimal,
		RefHigh:       &high,
		UploadID:      upload,
		OriginalName:  "Glucose",
		IngestedAt:    time.Date(2024, 2, 1, 9, 30, 0, 123000, time.UTC),
	}
}

func testVariant(userID string, upload uuid.UUID) models.GeneticVariant {
	return models.GeneticVariant{
		UserID:   userID,
		RSID:     "rs671",
		Gene:     "ALDH2",
		Genotype: "AG",
		Vendor:   "23andMe",
		Rule: &models.GenotypeRule{
			RiskScore:      0.5,
			Significance:   models.SignificanceUncertain,
			Interpretation: "One copy",
		},
		UploadID: upload,
	}
}

// exerciseStore runs the same behavioural checks against any Store.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	ctx := testContext()
	day1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	upload := testUpload("u1")
	glu1 := testMeasurement("u1", upload.ID, "GLU", 95, day1)
	glu2 := testMeasurement("u1", upload.ID, "GLU", 97, day2)
	other := testMeasurement("u2", uuid.Nil, "GLU", 80, day1)
	otherUpload := testUpload("u2")
	other.UploadID = otherUpload.ID

	require.NoError(t, s.Update(ctx, "u1", func(tx Tx) error {
		if err := tx.SaveUpload(ctx, upload); err != nil {
			return err
		}

		if err := tx.InsertMeasurements(ctx, []models.NormalizedMeasurement{glu1, glu2}); err != nil {
			return err
		}

		return tx.UpsertVariants(ctx, []models.GeneticVariant{testVariant("u1", upload.ID)})
	}))

	require.NoError(t, s.Update(ctx, "u2", func(tx Tx) error {
		if err := tx.SaveUpload(ctx, otherUpload); err != nil {
			return err
		}

		return tx.InsertMeasurements(ctx, []models.NormalizedMeasurement{other})
	}))

	ms, err := s.Measurements(ctx, "u1", Filter{})
	require.NoError(t, err)
	require.Len(t, ms, 2)
	require.Equal(t, glu1.ID, ms[0].ID)
	require.Equal(t, day1, ms[0].Day)
	require.Equal(t, models.SourceLabFile, ms[0].Source)
	require.Nil(t, ms[0].RefLow)
	require.NotNil(t, ms[0].RefHigh)
	require.InDelta(t, 99.0, *ms[0].RefHigh, 1e-9)
	require.True(t, glu1.IngestedAt.Equal(ms[0].IngestedAt))

	ms, err = s.Measurements(ctx, "u1", Filter{BiomarkerCode: "GLU", From: day2})
	require.NoError(t, err)
	require.Len(t, ms, 1)
	require.InDelta(t, 97.0, ms[0].Value, 1e-9)

	// Rolling back leaves the rows untouched.
	errBoom := errors.New("boom")
	err = s.Update(ctx, "u1", func(tx Tx) error {
		if err := tx.DeleteMeasurements(ctx, []uuid.UUID{glu1.ID}); err != nil {
			return err
		}

		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	require.NoError(t, s.Update(ctx, "u1", func(tx Tx) error {
		rows, err := tx.MeasurementsBetween(ctx, "u1", day1, day1)
		require.NoError(t, err)
		require.Len(t, rows, 1)

		return tx.DeleteMeasurements(ctx, []uuid.UUID{rows[0].ID})
	}))

	ms, err = s.Measurements(ctx, "u1", Filter{})
	require.NoError(t, err)
	require.Len(t, ms, 1)

	vs, err := s.Variants(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, vs, 1)
	require.NotNil(t, vs[0].Rule)
	require.Equal(t, models.SignificanceUncertain, vs[0].Rule.Significance)

	// Reclassification rewrites status and bounds in place.
	low := 100.0
	glu2.Status = models.StatusOutOfRange
	glu2.RefLow, glu2.RefHigh = &low, nil
	require.NoError(t, s.Update(ctx, "u1", func(tx Tx) error {
		return tx.UpdateClassification(ctx, []models.NormalizedMeasurement{glu2})
	}))

	ms, err = s.Measurements(ctx, "u1", Filter{})
	require.NoError(t, err)
	require.Len(t, ms, 1)
	require.Equal(t, models.StatusOutOfRange, ms[0].Status)
	require.NotNil(t, ms[0].RefLow)
	require.InDelta(t, 100.0, *ms[0].RefLow, 1e-9)
	require.Nil(t, ms[0].RefHigh)

	// Unresolved readings are kept per upload, in parse order.
	mystery := models.Unresolved{
		ID: uuid.New(), UploadID: upload.ID, Name: "Mystery", Value: "5.1", Unit: "mmol/L",
		Timestamp: "2024-01-01", Source: models.SourceLabFile, Record: "row 3", Reason: models.ReasonNoMatch,
		Suggestions: []models.Suggestion{{Code: "GLU", Name: "Glucose", Score: 0.6}},
	}
	odd := models.Unresolved{
		ID: uuid.New(), UploadID: upload.ID, Name: "HDL", Value: "55", Unit: "furlongs",
		Source: models.SourceLabFile, Reason: models.ReasonUnitMismatch,
	}
	require.NoError(t, s.Update(ctx, "u1", func(tx Tx) error {
		return tx.SaveCandidates(ctx, "u1", []models.Unresolved{mystery, odd})
	}))

	cs, err := s.Candidates(ctx, "u1", upload.ID)
	require.NoError(t, err)
	require.Equal(t, []models.Unresolved{mystery, odd}, cs)

	_, err = s.Candidates(ctx, "u2", upload.ID)
	require.ErrorIs(t, err, ErrUploadNotFound)

	require.NoError(t, s.Update(ctx, "u1", func(tx Tx) error {
		got, err := tx.Candidate(ctx, "u1", upload.ID, mystery.ID)
		require.NoError(t, err)
		require.Equal(t, mystery, got)

		_, err = tx.Candidate(ctx, "u2", upload.ID, mystery.ID)
		require.ErrorIs(t, err, ErrCandidateNotFound)

		_, err = tx.Candidate(ctx, "u1", otherUpload.ID, mystery.ID)
		require.ErrorIs(t, err, ErrCandidateNotFound)

		_, err = tx.Upload(ctx, "u2", upload.ID)
		require.ErrorIs(t, err, ErrUploadNotFound)

		got2, err := tx.Upload(ctx, "u1", upload.ID)
		require.NoError(t, err)
		require.Equal(t, upload.Filename, got2.Filename)

		return nil
	}))

	ups, err := s.Uploads(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, ups, 1)
	require.Equal(t, upload.ID, ups[0].ID)
	require.True(t, upload.ReceivedAt.Equal(ups[0].ReceivedAt))

	deleted, err := s.DeleteUpload(ctx, "u1", upload.ID)
	require.NoError(t, err)
	require.Equal(t, Deleted{Measurements: 1, Variants: 1, Candidates: 2}, deleted)

	_, err = s.DeleteUpload(ctx, "u1", upload.ID)
	require.ErrorIs(t, err, ErrUploadNotFound)

	// Another user's upload is not reachable.
	_, err = s.DeleteUpload(ctx, "u1", otherUpload.ID)
	require.ErrorIs(t, err, ErrUploadNotFound)

	ms, err = s.Measurements(ctx, "u2", Filter{})
	require.NoError(t, err)
	require.Len(t, ms, 1)

	// Profiles.
	p, err := s.Profile(ctx, "u1")
	require.NoError(t, err)
	require.Nil(t, p.DateOfBirth)
	require.Nil(t, p.Gender)

	dob := time.Date(1985, 3, 4, 0, 0, 0, 0, time.UTC)
	female := models.GenderFemale
	require.NoError(t, s.SaveProfile(ctx, models.Profile{UserID: "u1", DateOfBirth: &dob, Gender: &female}))

	p, err = s.Profile(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, p.DateOfBirth)
	require.True(t, dob.Equal(*p.DateOfBirth))
	require.NotNil(t, p.Gender)
	require.Equal(t, models.GenderFemale, *p.Gender)
}
