/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flamego/flamego"

	"github.com/humaidq/labwave/db"
	"github.com/humaidq/labwave/logging"
	"github.com/humaidq/labwave/metrics"
	"github.com/humaidq/labwave/models"
)

var logger = logging.Logger(logging.SourceWeb)

type errorBody struct {
	Error string `json:"error"`
	// Missing lists absent calculator inputs.
	Missing    []string           `json:"missing,omitempty"`
	NeedsAge   bool               `json:"needs_age,omitempty"`
	NeedsSex   bool               `json:"needs_sex,omitempty"`
	Unresolved *models.Unresolved `json:"unresolved,omitempty"`
}

func writeJSON(c flamego.Context, status int, v any) {
	c.ResponseWriter().Header().Set("Content-Type", "application/json")
	c.ResponseWriter().WriteHeader(status)

	if err := json.NewEncoder(c.ResponseWriter()).Encode(v); err != nil {
		logger.Warn("Failed to write response", "path", c.Request().URL.Path, "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses. Anything unexpected is
// logged and reported without detail.
func writeError(c flamego.Context, err error) {
	status, body := errorResponse(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "method", c.Request().Method, "path", c.Request().URL.Path, "error", err)
	}

	writeJSON(c, status, body)
}

func errorResponse(err error) (int, errorBody) {
	var (
		insufficient *models.InsufficientDataError
		unresolved   models.Unresolved
		tooLarge     *http.MaxBytesError
	)

	switch {
	case errors.As(err, &insufficient):
		return http.StatusUnprocessableEntity, errorBody{
			Error:    err.Error(),
			Missing:  insufficient.Missing,
			NeedsAge: insufficient.NeedsAge,
			NeedsSex: insufficient.NeedsSex,
		}
	case errors.As(err, &unresolved):
		return http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Unresolved: &unresolved}
	case errors.Is(err, models.ErrUploadTooLarge), errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, errorBody{Error: models.ErrUploadTooLarge.Error()}
	case errors.Is(err, models.ErrUnrecognizedFormat), errors.Is(err, models.ErrParserPanic):
		return http.StatusUnprocessableEntity, errorBody{Error: err.Error()}
	case errors.Is(err, models.ErrEmptyUpload), errors.Is(err, models.ErrUnknownBiomarker),
		errors.Is(err, errMissingFile), errors.Is(err, errMissingUserID),
		errors.Is(err, errInvalidUploadID), errors.Is(err, errInvalidCandidate),
		errors.Is(err, errMissingValue), errors.Is(err, errInvalidDate),
		errors.Is(err, errInvalidBody), errors.Is(err, errMissingCode),
		errors.Is(err, errInvalidGender), errors.Is(err, errTooManyFiles):
		return http.StatusBadRequest, errorBody{Error: err.Error()}
	case errors.Is(err, errUnsupportedMedia):
		return http.StatusUnsupportedMediaType, errorBody{Error: err.Error()}
	case errors.Is(err, db.ErrUploadNotFound), errors.Is(err, db.ErrCandidateNotFound),
		errors.Is(err, metrics.ErrUnknownAlgorithm):
		return http.StatusNotFound, errorBody{Error: err.Error()}
	}

	return http.StatusInternalServerError, errorBody{Error: "internal error"}
}
