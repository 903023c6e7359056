/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package models

import (
	"time"

	"github.com/google/uuid"
)

// SourceKind identifies where a reading came from
type SourceKind string

// SourceKind values in descending order of authority.
const (
	SourceLabFile  SourceKind = "lab_file"
	SourceWearable SourceKind = "wearable"
	SourceManual   SourceKind = "manual"
	SourceGenetic  SourceKind = "genetic"
)

// Rank returns the merge precedence of a source kind. Higher wins.
func (s SourceKind) Rank() int {
	switch s {
	case SourceLabFile:
		return 3
	case SourceWearable:
		return 2
	case SourceManual:
		return 1
	default:
		return 0
	}
}

// ParseSourceKind maps free text from a source column to a SourceKind.
func ParseSourceKind(s string) (SourceKind, bool) {
	switch normalizeKey(s) {
	case "lab", "labfile", "lab_file", "laboratory", "clinic", "clinical":
		return SourceLabFile, true
	case "wearable", "device", "watch", "ring", "tracker":
		return SourceWearable, true
	case "manual", "self", "user", "entry":
		return SourceManual, true
	}

	return "", false
}

// Status is the classifier verdict for a measurement
type Status string

// Status values.
const (
	StatusOptimal    Status = "optimal"
	StatusBorderline Status = "borderline"
	StatusOutOfRange Status = "out_of_range"
	StatusUnknown    Status = "unknown"
)

// RawReading is an unvalidated tuple extracted by a parser. It never leaves the pipeline.
type RawReading struct {
	Name      string
	Value     string
	Unit      string
	Timestamp time.Time
	DateOnly  bool
	Source    SourceKind
	UploadID  uuid.UUID
	// Record locates the reading inside its source document for diagnostics.
	Record string
}

// HasTimestamp reports whether the parser found a sample date.
func (r RawReading) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// GenotypeCall is one raw-data line from a consumer genetic test
type GenotypeCall struct {
	RSID       string
	Chromosome string
	Position   int64
	Genotype   string
	Gene       string
	Vendor     string
	Record     string
}

// NormalizedMeasurement is a resolved reading in its biomarker's canonical unit
type NormalizedMeasurement struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	UserID        string     `db:"user_id" json:"user_id"`
	BiomarkerCode string     `db:"biomarker_code" json:"biomarker"`
	Value         float64    `db:"value" json:"value"`
	Unit          string     `db:"unit" json:"unit"`
	Day           time.Time  `db:"day" json:"day"`
	Source        SourceKind `db:"source_kind" json:"source"`
	Status        Status     `db:"status" json:"status"`
	RefLow        *float64   `db:"ref_low" json:"ref_low,omitempty"`
	RefHigh       *float64   `db:"ref_high" json:"ref_high,omitempty"`
	UploadID      uuid.UUID  `db:"upload_id" json:"upload_id"`
	OriginalName  string     `db:"original_name" json:"original_name"`
	IngestedAt    time.Time  `db:"ingested_at" json:"ingested_at"`
}

// MergeKey returns the (biomarker, day) part of the merge key. The user is
// implied by the caller's scope.
func (m NormalizedMeasurement) MergeKey() string {
	return m.BiomarkerCode + "|" + m.Day.Format(time.DateOnly)
}

// Day returns the calendar day of a timestamp, in the timestamp's own
// location, as midnight UTC.
func Day(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

// SignificanceLevel is the clinical significance attached to a genotype rule
type SignificanceLevel string

// SignificanceLevel values.
const (
	SignificanceBenign           SignificanceLevel = "benign"
	SignificanceUncertain        SignificanceLevel = "uncertain"
	SignificanceLikelyPathogenic SignificanceLevel = "likely_pathogenic"
)

// GenotypeRule is one row of the fixed SNP interpretation table
type GenotypeRule struct {
	RiskScore      float64           `json:"risk_score"`
	Significance   SignificanceLevel `json:"significance"`
	Interpretation string            `json:"interpretation"`
}

// GeneticVariant is a persisted genotype call for a known SNP
type GeneticVariant struct {
	UserID     string        `db:"user_id" json:"-"`
	RSID       string        `db:"rsid" json:"rsid"`
	Gene       string        `db:"gene" json:"gene"`
	Genotype   string        `db:"genotype" json:"genotype"`
	Chromosome string        `db:"chromosome" json:"chromosome,omitempty"`
	Position   int64         `db:"position" json:"position,omitempty"`
	Condition  string        `db:"condition" json:"condition,omitempty"`
	Rule       *GenotypeRule `json:"rule,omitempty"`
	Vendor     string        `db:"vendor" json:"vendor,omitempty"`
	UploadID   uuid.UUID     `db:"upload_id" json:"upload_id"`
}

// MetricResult is the outcome of a derived-metric calculator
type MetricResult struct {
	Algorithm        string    `json:"algorithm"`
	Value            float64   `json:"value"`
	Unit             string    `json:"unit,omitempty"`
	ChronologicalAge float64   `json:"chronological_age,omitempty"`
	Delta            *float64  `json:"delta,omitempty"`
	Interpretation   string    `json:"interpretation,omitempty"`
	Contributing     []string  `json:"contributing"`
	InputsAvailable  int       `json:"inputs_available,omitempty"`
	InputsTotal      int       `json:"inputs_total,omitempty"`
	ComputedAt       time.Time `json:"computed_at"`
}
