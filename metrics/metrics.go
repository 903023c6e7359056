/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package metrics holds the derived-metric calculators. Each calculator
// declares the biomarkers it requires and returns an
// *models.InsufficientDataError rather than a partial result when any of
// them is missing. Coefficients live in embedded JSON tables.
package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/humaidq/labwave/models"
)

// Reading is the latest value of one biomarker
type Reading struct {
	Value float64
	Day   time.Time
}

// Snapshot holds the most recent value per biomarker code
type Snapshot map[string]Reading

// NewSnapshot keeps the latest measurement per biomarker. Ties on the same
// day go to the later ingestion.
func NewSnapshot(ms []models.NormalizedMeasurement) Snapshot {
	s := make(Snapshot)
	ingested := make(map[string]time.Time)

	for _, m := range ms {
		cur, ok := s[m.BiomarkerCode]
		if ok && (m.Day.Before(cur.Day) || (m.Day.Equal(cur.Day) && m.IngestedAt.Before(ingested[m.BiomarkerCode]))) {
			continue
		}

		s[m.BiomarkerCode] = Reading{Value: m.Value, Day: m.Day}
		ingested[m.BiomarkerCode] = m.IngestedAt
	}

	return s
}

// Input is everything a calculator may read
type Input struct {
	Snapshot Snapshot
	Profile  *models.Profile
	// At is the reference instant for the chronological age.
	At time.Time
}

func (in Input) age() (float64, bool) {
	return in.Profile.FractionalAge(in.At)
}

// gather returns the values of every code, or the codes that are absent.
func (in Input) gather(codes []string) (map[string]float64, []string) {
	values := make(map[string]float64, len(codes))

	var missing []string

	for _, code := range codes {
		r, ok := in.Snapshot[code]
		if !ok {
			missing = append(missing, code)
			continue
		}

		values[code] = r.Value
	}

	return values, missing
}

// Calculator is one derived metric
type Calculator interface {
	Name() string
	// Requires lists the biomarker codes the calculator reads.
	Requires() []string
	Compute(in Input) (models.MetricResult, error)
}

var registry = map[string]Calculator{}

func register(c Calculator) {
	registry[c.Name()] = c
}

func init() {
	register(phenoAge{})
	register(simpleBioAge{})
	register(nonHDL{})
	register(ratio{name: "tg_hdl", numerator: "TG", denominator: "HDL"})
	register(atherogenic{})
	register(egfr{})
	register(bmi{})
}

// Names lists the registered calculators in name order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Lookup returns a calculator by name.
func Lookup(name string) (Calculator, error) {
	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}

	return c, nil
}

// Compute runs one calculator by name.
func Compute(name string, in Input) (models.MetricResult, error) {
	c, err := Lookup(name)
	if err != nil {
		return models.MetricResult{}, err
	}

	return c.Compute(in)
}

// Summary is the combined biological-age report
type Summary struct {
	Results map[string]models.MetricResult `json:"results"`
	// Unavailable carries the reason each algorithm produced no result.
	Unavailable    map[string]string `json:"unavailable,omitempty"`
	AverageDelta   *float64          `json:"average_delta,omitempty"`
	Interpretation string            `json:"interpretation,omitempty"`
}

// ComputeAll runs both biological-age algorithms and averages their deltas
// when both succeed.
func ComputeAll(in Input) Summary {
	s := Summary{
		Results:     make(map[string]models.MetricResult),
		Unavailable: make(map[string]string),
	}

	var deltas []float64

	for _, c := range []Calculator{phenoAge{}, simpleBioAge{}} {
		res, err := c.Compute(in)
		if err != nil {
			s.Unavailable[c.Name()] = err.Error()
			continue
		}

		s.Results[c.Name()] = res
		if res.Delta != nil {
			deltas = append(deltas, *res.Delta)
		}
	}

	if len(deltas) > 1 {
		sum := 0.0
		for _, d := range deltas {
			sum += d
		}

		avg := sum / float64(len(deltas))
		s.AverageDelta = &avg
		s.Interpretation = interpret(tables.simple.Bands, avg)
	}

	return s
}

func result(name string, value float64, unit string, contributing []string, at time.Time) models.MetricResult {
	sorted := append([]string(nil), contributing...)
	sort.Strings(sorted)

	return models.MetricResult{
		Algorithm:    name,
		Value:        value,
		Unit:         unit,
		Contributing: sorted,
		ComputedAt:   at,
	}
}
