/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"encoding/json"
	"fmt"

	"github.com/humaidq/labwave/models"
)

const candidateColumns = `id, upload_id, name, value_raw, unit_raw, sample_time_raw, source_kind,
	record, reason, suggestions`

func encodeSuggestions(s []models.Suggestion) (string, error) {
	if s == nil {
		s = []models.Suggestion{}
	}

	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode suggestions: %w", err)
	}

	return string(b), nil
}

func decodeSuggestions(raw []byte) ([]models.Suggestion, error) {
	var out []models.Suggestion
	if len(raw) == 0 {
		return out, nil
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode suggestions: %w", err)
	}

	if len(out) == 0 {
		return nil, nil
	}

	return out, nil
}

// candidateRow is the scan target shared by both stores.
type candidateRow struct {
	u              models.Unresolved
	source, reason string
	suggestions    []byte
}

func (r *candidateRow) dest() []any {
	return []any{&r.u.ID, &r.u.UploadID, &r.u.Name, &r.u.Value, &r.u.Unit, &r.u.Timestamp,
		&r.source, &r.u.Record, &r.reason, &r.suggestions}
}

func (r *candidateRow) unresolved() (models.Unresolved, error) {
	s, err := decodeSuggestions(r.suggestions)
	if err != nil {
		return models.Unresolved{}, err
	}

	u := r.u
	u.Source = models.SourceKind(r.source)
	u.Reason = models.UnresolvedReason(r.reason)
	u.Suggestions = s

	return u, nil
}
