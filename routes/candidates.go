/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/flamego/flamego"
	"github.com/google/uuid"

	"github.com/humaidq/labwave/models"
	"github.com/humaidq/labwave/pipeline"
)

// Candidates lists the readings an upload left for manual confirmation.
func Candidates(c flamego.Context, p *pipeline.Pipeline) {
	listCandidates(c, p.Candidates)
}

// Suggestions is Candidates with suggestions recomputed against the
// current catalog.
func Suggestions(c flamego.Context, p *pipeline.Pipeline) {
	listCandidates(c, p.Suggestions)
}

func listCandidates(c flamego.Context, list func(context.Context, string, uuid.UUID) ([]models.Unresolved, error)) {
	userID, err := userParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	uploadID, err := idParam(c, "id", errInvalidUploadID)
	if err != nil {
		writeError(c, err)
		return
	}

	cs, err := list(c.Request().Context(), userID, uploadID)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, cs)
}

type confirmRequest struct {
	Code string `json:"code"`
	// Timestamp overrides the reading's date, as YYYY-MM-DD or RFC 3339.
	Timestamp string `json:"timestamp,omitempty"`
}

type confirmResponse struct {
	Written     bool                         `json:"written"`
	Measurement models.NormalizedMeasurement `json:"measurement"`
}

// Confirm stores an unresolved reading under the biomarker the user picked.
func Confirm(c flamego.Context, p *pipeline.Pipeline) {
	userID, err := userParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	uploadID, err := idParam(c, "id", errInvalidUploadID)
	if err != nil {
		writeError(c, err)
		return
	}

	candidateID, err := idParam(c, "candidate", errInvalidCandidate)
	if err != nil {
		writeError(c, err)
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(c.Request().Body().ReadCloser()).Decode(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %w", errInvalidBody, err))
		return
	}

	code := normalizeCode(req.Code)
	if code == "" {
		writeError(c, errMissingCode)
		return
	}

	ts := strings.TrimSpace(req.Timestamp)
	if ts != "" {
		if _, _, err := models.ParseTimestamp(ts); err != nil {
			writeError(c, fmt.Errorf("%w: %q", errInvalidDate, ts))
			return
		}
	}

	m, written, err := p.Confirm(c.Request().Context(), pipeline.Confirmation{
		UserID:      userID,
		UploadID:    uploadID,
		CandidateID: candidateID,
		Code:        code,
		Timestamp:   ts,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	writeMeasurement(c, m, written)
}

type manualRequest struct {
	Code  string   `json:"code"`
	Value *float64 `json:"value"`
	Unit  string   `json:"unit"`
	// Day is YYYY-MM-DD; today when empty.
	Day string `json:"day"`
}

// AddManual stores a value typed in by the user.
func AddManual(c flamego.Context, p *pipeline.Pipeline) {
	userID, err := userParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	var req manualRequest
	if err := json.NewDecoder(c.Request().Body().ReadCloser()).Decode(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %w", errInvalidBody, err))
		return
	}

	entry := pipeline.ManualEntry{UserID: userID, Code: normalizeCode(req.Code), Unit: strings.TrimSpace(req.Unit)}

	switch {
	case entry.Code == "":
		writeError(c, errMissingCode)
		return
	case req.Value == nil:
		writeError(c, errMissingValue)
		return
	}

	entry.Value = *req.Value

	if day := strings.TrimSpace(req.Day); day != "" {
		if entry.Day, err = time.Parse(time.DateOnly, day); err != nil {
			writeError(c, fmt.Errorf("%w: %q", errInvalidDate, day))
			return
		}
	}

	m, written, err := p.AddManual(c.Request().Context(), entry)
	if err != nil {
		writeError(c, err)
		return
	}

	writeMeasurement(c, m, written)
}

// Reclassify reevaluates every stored measurement against the current
// profile.
func Reclassify(c flamego.Context, p *pipeline.Pipeline) {
	userID, err := userParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := p.Reclassify(c.Request().Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, res)
}

func writeMeasurement(c flamego.Context, m models.NormalizedMeasurement, written bool) {
	status := http.StatusOK
	if written {
		status = http.StatusCreated
	}

	writeJSON(c, status, confirmResponse{Written: written, Measurement: m})
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
