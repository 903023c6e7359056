/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package pipeline

import (
	"context"
	"fmt"

	"github.com/humaidq/labwave/db"
	"github.com/humaidq/labwave/metrics"
	"github.com/humaidq/labwave/models"
)

// Snapshot builds calculator input from the user's latest stored values.
func (p *Pipeline) Snapshot(ctx context.Context, userID string) (metrics.Input, error) {
	ms, err := p.store.Measurements(ctx, userID, db.Filter{})
	if err != nil {
		return metrics.Input{}, fmt.Errorf("failed to load measurements: %w", err)
	}

	profile, err := p.store.Profile(ctx, userID)
	if err != nil {
		return metrics.Input{}, fmt.Errorf("failed to load profile: %w", err)
	}

	return metrics.Input{Snapshot: metrics.NewSnapshot(ms), Profile: profile, At: p.now()}, nil
}

// Metric runs one calculator for a user. Missing inputs come back as a
// *models.InsufficientDataError.
func (p *Pipeline) Metric(ctx context.Context, userID, name string) (models.MetricResult, error) {
	if _, err := metrics.Lookup(name); err != nil {
		return models.MetricResult{}, err
	}

	in, err := p.Snapshot(ctx, userID)
	if err != nil {
		return models.MetricResult{}, err
	}

	return metrics.Compute(name, in)
}

// BioAge runs every biological-age calculator for a user.
func (p *Pipeline) BioAge(ctx context.Context, userID string) (metrics.Summary, error) {
	in, err := p.Snapshot(ctx, userID)
	if err != nil {
		return metrics.Summary{}, err
	}

	return metrics.ComputeAll(in), nil
}

// Genetics summarizes the user's stored variants by risk.
func (p *Pipeline) Genetics(ctx context.Context, userID string) (metrics.GeneticSummary, error) {
	vs, err := p.store.Variants(ctx, userID)
	if err != nil {
		return metrics.GeneticSummary{}, fmt.Errorf("failed to load variants: %w", err)
	}

	return metrics.Summarize(vs), nil
}

// Measurements lists stored measurements for a user.
func (p *Pipeline) Measurements(ctx context.Context, userID string, f db.Filter) ([]models.NormalizedMeasurement, error) {
	ms, err := p.store.Measurements(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to load measurements: %w", err)
	}

	return ms, nil
}

// Uploads lists a user's uploads, newest first.
func (p *Pipeline) Uploads(ctx context.Context, userID string) ([]models.Upload, error) {
	ups, err := p.store.Uploads(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load uploads: %w", err)
	}

	return ups, nil
}
