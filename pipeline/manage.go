/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/labwave/db"
	"github.com/humaidq/labwave/models"
)

const (
	manualFilename = "manual entry"
	manualFormat   = "manual"
)

// Bounds that cover every stored day.
var (
	firstDay = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	lastDay  = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
)

// Confirmation is the user's answer to one unresolved reading of an upload.
type Confirmation struct {
	UserID      string
	UploadID    uuid.UUID
	CandidateID uuid.UUID
	// Code is the biomarker the user picked.
	Code string
	// Timestamp replaces the reading's date when set.
	Timestamp string
}

// Confirm stores a kept unresolved reading as the biomarker the user
// picked. The upload and the reading must belong to the user, and the
// reading's unit must be valid for that biomarker. The boolean result is
// false when the merge kept an existing measurement instead.
func (p *Pipeline) Confirm(ctx context.Context, c Confirmation) (models.NormalizedMeasurement, bool, error) {
	var confirmed models.NormalizedMeasurement

	plan, err := p.commit(ctx, c.UserID, write{
		prepare: func(tx db.Tx) ([]models.NormalizedMeasurement, error) {
			upload, err := tx.Upload(ctx, c.UserID, c.UploadID)
			if err != nil {
				return nil, err
			}

			reading, err := tx.Candidate(ctx, c.UserID, c.UploadID, c.CandidateID)
			if err != nil {
				return nil, err
			}

			if c.Timestamp != "" {
				reading.Timestamp = c.Timestamp
			}

			// The confirmation time orders it against other values.
			upload.ReceivedAt = p.now().UTC()

			m, err := p.normalizeCandidate(reading, upload, c.Code)
			if err != nil {
				return nil, err
			}

			confirmed = m

			return []models.NormalizedMeasurement{m}, nil
		},
	})
	if err != nil {
		return models.NormalizedMeasurement{}, false, err
	}

	if len(plan.Insert) == 0 {
		return confirmed, false, nil
	}

	logger.Info("Confirmed reading", "user", c.UserID, "upload", c.UploadID, "candidate", c.CandidateID,
		"biomarker", confirmed.BiomarkerCode)

	return plan.Insert[0], true, nil
}

func (p *Pipeline) normalizeCandidate(u models.Unresolved, upload models.Upload, code string) (models.NormalizedMeasurement, error) {
	raw := models.RawReading{
		Name:     u.Name,
		Value:    u.Value,
		Unit:     u.Unit,
		Source:   u.Source,
		UploadID: upload.ID,
		Record:   u.Record,
	}

	if u.Timestamp != "" {
		ts, dateOnly, err := models.ParseTimestamp(u.Timestamp)
		if err != nil {
			return models.NormalizedMeasurement{}, fmt.Errorf("failed to parse reading date: %w", err)
		}

		raw.Timestamp, raw.DateOnly = ts, dateOnly
	} else {
		raw.Timestamp, raw.DateOnly = upload.ReceivedAt, true
	}

	return p.normalize(raw, upload, code)
}

// Candidates lists the readings an upload left for confirmation. Each
// carries its suggestions from the time of parsing.
func (p *Pipeline) Candidates(ctx context.Context, userID string, uploadID uuid.UUID) ([]models.Unresolved, error) {
	cs, err := p.store.Candidates(ctx, userID, uploadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	if cs == nil {
		cs = []models.Unresolved{}
	}

	return cs, nil
}

// Suggestions is Candidates with every suggestion list recomputed against
// the current catalog.
func (p *Pipeline) Suggestions(ctx context.Context, userID string, uploadID uuid.UUID) ([]models.Unresolved, error) {
	cs, err := p.Candidates(ctx, userID, uploadID)
	if err != nil {
		return nil, err
	}

	for i := range cs {
		cs[i].Suggestions = p.resolver.Suggest(cs[i].Name)
	}

	return cs, nil
}

// ManualEntry is one value typed in by the user.
type ManualEntry struct {
	UserID string
	Code   string
	Value  float64
	Unit   string
	// Day defaults to today.
	Day time.Time
}

// AddManual stores a hand-entered value under its own upload. It ranks
// below lab and wearable values for the same day. The boolean result is
// false when the merge kept an existing measurement instead.
func (p *Pipeline) AddManual(ctx context.Context, e ManualEntry) (models.NormalizedMeasurement, bool, error) {
	upload := models.Upload{
		ID:         uuid.New(),
		UserID:     e.UserID,
		Filename:   manualFilename,
		Format:     manualFormat,
		Variant:    manualFormat,
		ReceivedAt: p.now().UTC(),
		Status:     models.UploadProcessed,
	}

	day := e.Day
	if day.IsZero() {
		day = upload.ReceivedAt
	}

	raw := models.RawReading{
		Name:      e.Code,
		Value:     strconv.FormatFloat(e.Value, 'f', -1, 64),
		Unit:      e.Unit,
		Timestamp: day,
		DateOnly:  true,
		Source:    models.SourceManual,
		UploadID:  upload.ID,
	}

	m, err := p.normalize(raw, upload, e.Code)
	if err != nil {
		return models.NormalizedMeasurement{}, false, err
	}

	plan, err := p.commit(ctx, e.UserID, write{upload: &upload, incoming: []models.NormalizedMeasurement{m}})
	if err != nil {
		return models.NormalizedMeasurement{}, false, err
	}

	if len(plan.Insert) == 0 {
		logger.Info("Kept stored value over manual entry", "user", e.UserID, "biomarker", m.BiomarkerCode,
			"day", m.Day.Format(time.DateOnly))

		return m, false, nil
	}

	logger.Info("Added manual value", "user", e.UserID, "biomarker", m.BiomarkerCode, "day", m.Day.Format(time.DateOnly))

	return plan.Insert[0], true, nil
}

// Reclassified counts the rows a Reclassify call looked at and changed.
type Reclassified struct {
	Checked int `json:"checked"`
	Changed int `json:"changed"`
}

// Reclassify classifies every stored measurement again against the
// current profile and catalog ranges.
func (p *Pipeline) Reclassify(ctx context.Context, userID string) (Reclassified, error) {
	profile, err := p.store.Profile(ctx, userID)
	if err != nil {
		return Reclassified{}, fmt.Errorf("failed to load profile: %w", err)
	}

	unlock := p.locks.lock(userID)
	defer unlock()

	var out Reclassified

	err = p.store.Update(ctx, userID, func(tx db.Tx) error {
		rows, err := tx.MeasurementsBetween(ctx, userID, firstDay, lastDay)
		if err != nil {
			return err
		}

		var changed []models.NormalizedMeasurement

		for _, m := range rows {
			before := m
			p.classifier.Apply(&m, profile)

			if !sameClassification(before, m) {
				changed = append(changed, m)
			}
		}

		out = Reclassified{Checked: len(rows), Changed: len(changed)}

		return tx.UpdateClassification(ctx, changed)
	})
	if err != nil {
		return Reclassified{}, fmt.Errorf("failed to reclassify measurements: %w", err)
	}

	logger.Info("Reclassified measurements", "user", userID, "checked", out.Checked, "changed", out.Changed)

	return out, nil
}

func sameClassification(a, b models.NormalizedMeasurement) bool {
	return a.Status == b.Status && sameBound(a.RefLow, b.RefLow) && sameBound(a.RefHigh, b.RefHigh)
}

func sameBound(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}

// DeleteUpload hard-deletes an upload with every measurement and variant
// it wrote.
func (p *Pipeline) DeleteUpload(ctx context.Context, userID string, uploadID uuid.UUID) (db.Deleted, error) {
	unlock := p.locks.lock(userID)
	defer unlock()

	deleted, err := p.store.DeleteUpload(ctx, userID, uploadID)
	if err != nil {
		return db.Deleted{}, fmt.Errorf("failed to delete upload: %w", err)
	}

	logger.Info("Deleted upload", "user", userID, "upload", uploadID,
		"measurements", deleted.Measurements, "variants", deleted.Variants)

	return deleted, nil
}

// SetProfile stores the owner attributes used by the classifier and the
// calculators. Existing measurements keep the status they were given
// until Reclassify runs.
func (p *Pipeline) SetProfile(ctx context.Context, profile models.Profile) error {
	if err := p.store.SaveProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}

// Profile returns the stored owner attributes. A user without a profile
// gets an empty one.
func (p *Pipeline) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := p.store.Profile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	return profile, nil
}
