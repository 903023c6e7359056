/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrUnrecognizedFormat is returned when no detector claims an upload.
	ErrUnrecognizedFormat = errors.New("unrecognized upload format")
	// ErrInsufficientData is returned when a calculator is missing required inputs.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrUploadTooLarge is returned when an upload exceeds the configured size limit.
	ErrUploadTooLarge = errors.New("upload exceeds size limit")
	// ErrEmptyUpload is returned for zero-byte uploads.
	ErrEmptyUpload = errors.New("upload is empty")
	// ErrUnknownBiomarker is returned when a code is not present in the catalog.
	ErrUnknownBiomarker = errors.New("unknown biomarker")
	// ErrParserPanic is returned when a parser panicked on malformed input.
	ErrParserPanic = errors.New("parser failed")
)

// UnrecognizedFormatError reports a detector failure for one upload.
type UnrecognizedFormatError struct {
	Filename string
	Reason   string
}

func (e *UnrecognizedFormatError) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("%s: %s", ErrUnrecognizedFormat, e.Reason)
	}

	return fmt.Sprintf("%s: %s (%s)", ErrUnrecognizedFormat, e.Filename, e.Reason)
}

func (e *UnrecognizedFormatError) Unwrap() error {
	return ErrUnrecognizedFormat
}

// InsufficientDataError names the biomarkers a calculator could not find.
type InsufficientDataError struct {
	Algorithm string
	Missing   []string
	// NeedsAge is set when the chronological age was unavailable.
	NeedsAge bool
	// NeedsSex is set when the calculator required a known sex.
	NeedsSex bool
}

func (e *InsufficientDataError) Error() string {
	parts := make([]string, 0, 3)
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}

	if e.NeedsAge {
		parts = append(parts, "chronological age unknown")
	}

	if e.NeedsSex {
		parts = append(parts, "sex unknown")
	}

	return fmt.Sprintf("%s for %s: %s", ErrInsufficientData, e.Algorithm, strings.Join(parts, "; "))
}

func (e *InsufficientDataError) Unwrap() error {
	return ErrInsufficientData
}

// DiagnosticKind classifies a per-record parse or resolve note
type DiagnosticKind string

// DiagnosticKind values.
const (
	RecordParseWarning DiagnosticKind = "record_parse_warning"
	MissingTimestamp   DiagnosticKind = "missing_timestamp"
	SkippedRecord      DiagnosticKind = "skipped_record"
)

// Diagnostic is a line or record level note emitted while processing an upload
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Record  string         `json:"record,omitempty"`
	Message string         `json:"message"`
}

// Warnf builds a RecordParseWarning diagnostic.
func Warnf(record, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: RecordParseWarning, Record: record, Message: fmt.Sprintf(format, args...)}
}

// UnresolvedReason explains why a reading did not reach the store
type UnresolvedReason string

// UnresolvedReason values.
const (
	ReasonNoMatch      UnresolvedReason = "no_match"
	ReasonAmbiguous    UnresolvedReason = "ambiguous"
	ReasonUnitMismatch UnresolvedReason = "unit_mismatch"
	ReasonInvalidValue UnresolvedReason = "invalid_value"
)

// Suggestion is a candidate biomarker offered for manual confirmation
type Suggestion struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Unresolved is a parsed reading that needs manual confirmation. Readings
// kept from an upload carry their candidate id and upload id.
type Unresolved struct {
	ID          uuid.UUID        `json:"id"`
	UploadID    uuid.UUID        `json:"upload_id"`
	Name        string           `json:"name"`
	Value       string           `json:"value"`
	Unit        string           `json:"unit,omitempty"`
	Timestamp   string           `json:"timestamp,omitempty"`
	Source      SourceKind       `json:"source"`
	Record      string           `json:"record,omitempty"`
	Reason      UnresolvedReason `json:"reason"`
	Suggestions []Suggestion     `json:"suggestions,omitempty"`
}

func (u Unresolved) Error() string {
	return fmt.Sprintf("unresolved reading %q: %s", u.Name, u.Reason)
}
