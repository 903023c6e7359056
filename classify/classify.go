/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package classify assigns a status to a normalized measurement against its
// biomarker's reference range.
package classify

import (
	"math"
	"time"

	"github.com/humaidq/labwave/catalog"
	"github.com/humaidq/labwave/models"
)

// Classifier evaluates reference ranges from one catalog
type Classifier struct {
	catalog   *catalog.Catalog
	tolerance float64
}

// New returns a classifier using the catalog's tolerance.
func New(c *catalog.Catalog) *Classifier {
	return &Classifier{catalog: c, tolerance: c.Tuning().Tolerance}
}

// Classify returns the status of m for the profile and the range it was
// judged against. An unknown biomarker, a biomarker without a range, or a
// rule needing an age or sex the profile lacks yields StatusUnknown.
func (c *Classifier) Classify(m models.NormalizedMeasurement, profile *models.Profile) (models.Status, catalog.Range) {
	b, ok := c.catalog.Lookup(m.BiomarkerCode)
	if !ok {
		return models.StatusUnknown, catalog.Range{}
	}

	at := m.Day
	if at.IsZero() {
		at = time.Now()
	}

	r, ok := b.RangeFor(profile, at)
	if !ok {
		return models.StatusUnknown, catalog.Range{}
	}

	return Status(m.Value, r, c.tolerance), r
}

// Apply classifies m in place and records the bounds used.
func (c *Classifier) Apply(m *models.NormalizedMeasurement, profile *models.Profile) {
	status, r := c.Classify(*m, profile)

	m.Status = status
	m.RefLow = copyBound(r.Low)
	m.RefHigh = copyBound(r.High)
}

// Status classifies a value against a range. Edges are inclusive. The
// borderline band is tolerance × width for two-sided ranges and
// tolerance × |bound| for one-sided ones.
func Status(value float64, r catalog.Range, tolerance float64) models.Status {
	if r.Low == nil && r.High == nil {
		return models.StatusUnknown
	}

	if (r.Low == nil || value >= *r.Low) && (r.High == nil || value <= *r.High) {
		return models.StatusOptimal
	}

	var band float64

	switch {
	case r.Low != nil && r.High != nil:
		band = tolerance * (*r.High - *r.Low)
	case r.Low != nil:
		band = tolerance * math.Abs(*r.Low)
	default:
		band = tolerance * math.Abs(*r.High)
	}

	if r.Low != nil && value < *r.Low && value >= *r.Low-band {
		return models.StatusBorderline
	}

	if r.High != nil && value > *r.High && value <= *r.High+band {
		return models.StatusBorderline
	}

	return models.StatusOutOfRange
}

func copyBound(f *float64) *float64 {
	if f == nil {
		return nil
	}

	v := *f

	return &v
}
