/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import "errors"

var (
	errMissingFile      = errors.New("no file uploaded")
	errMissingUserID    = errors.New("missing user id")
	errInvalidUploadID  = errors.New("invalid upload id")
	errInvalidCandidate = errors.New("invalid candidate id")
	errMissingValue     = errors.New("missing value")
	errInvalidDate      = errors.New("invalid date, expected YYYY-MM-DD")
	errInvalidBody      = errors.New("invalid request body")
	errMissingCode      = errors.New("missing biomarker code")
	errInvalidGender    = errors.New("invalid gender")
	errTooManyFiles     = errors.New("too many files in batch")
	errUnsupportedMedia = errors.New("unsupported content type")
)
