/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/labwave/models"
)

// Store is the canonical measurement store. Writes for one user happen
// inside Update, which holds that user's write lock for the transaction.
type Store interface {
	// Update runs fn in one transaction with exclusive access to the
	// user's rows. The transaction is committed when fn returns nil.
	Update(ctx context.Context, userID string, fn func(Tx) error) error

	// Profile returns the stored profile. A user without one gets an
	// empty profile, not an error.
	Profile(ctx context.Context, userID string) (*models.Profile, error)
	SaveProfile(ctx context.Context, p models.Profile) error

	Measurements(ctx context.Context, userID string, f Filter) ([]models.NormalizedMeasurement, error)
	Variants(ctx context.Context, userID string) ([]models.GeneticVariant, error)
	Uploads(ctx context.Context, userID string) ([]models.Upload, error)

	// Candidates lists the readings an upload left unresolved, in parse
	// order. ErrUploadNotFound is returned when the user does not own it.
	Candidates(ctx context.Context, userID string, uploadID uuid.UUID) ([]models.Unresolved, error)

	// DeleteUpload removes an upload together with every measurement,
	// variant and candidate it wrote.
	DeleteUpload(ctx context.Context, userID string, uploadID uuid.UUID) (Deleted, error)

	Close() error
}

// Tx is the write side of one Update call.
type Tx interface {
	// MeasurementsBetween returns the user's rows dated within [from, to].
	MeasurementsBetween(ctx context.Context, userID string, from, to time.Time) ([]models.NormalizedMeasurement, error)
	InsertMeasurements(ctx context.Context, ms []models.NormalizedMeasurement) error
	DeleteMeasurements(ctx context.Context, ids []uuid.UUID) error
	UpsertVariants(ctx context.Context, vs []models.GeneticVariant) error
	SaveUpload(ctx context.Context, u models.Upload) error

	// Upload returns one of the user's uploads or ErrUploadNotFound.
	Upload(ctx context.Context, userID string, id uuid.UUID) (models.Upload, error)
	// UpdateClassification rewrites the status and range bounds of rows.
	UpdateClassification(ctx context.Context, ms []models.NormalizedMeasurement) error

	SaveCandidates(ctx context.Context, userID string, cs []models.Unresolved) error
	// Candidate returns one unresolved reading or ErrCandidateNotFound.
	Candidate(ctx context.Context, userID string, uploadID, id uuid.UUID) (models.Unresolved, error)
}

// Filter narrows a measurement listing. Zero fields match everything.
type Filter struct {
	BiomarkerCode string
	From          time.Time
	To            time.Time
}

// Deleted counts the rows removed with an upload.
type Deleted struct {
	Measurements int64 `json:"measurements"`
	Variants     int64 `json:"variants"`
	Candidates   int64 `json:"candidates"`
}

// Open returns the store for a driver name.
func Open(ctx context.Context, driver, databaseURL, sqlitePath string, maxConns int32) (Store, error) {
	switch driver {
	case "postgres", "":
		if err := Init(ctx, databaseURL, maxConns); err != nil {
			return nil, err
		}

		if err := SyncSchema(ctx, databaseURL); err != nil {
			Close()
			return nil, err
		}

		return NewPostgresStore(GetPool()), nil
	case "sqlite":
		return NewSQLiteStore(sqlitePath)
	default:
		return nil, ErrUnknownDriver
	}
}

func scanDay(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}
