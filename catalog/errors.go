/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package catalog

import "errors"

var (
	ErrInvalidTuning     = errors.New("invalid tuning constants")
	ErrDuplicateCode     = errors.New("duplicate biomarker code")
	ErrDuplicateSynonym  = errors.New("synonym claimed by more than one biomarker")
	ErrMissingUnit       = errors.New("biomarker has no canonical unit")
	ErrInvalidConversion = errors.New("unit conversion factor must be non-zero")
	ErrInvalidRange      = errors.New("reference range low exceeds high")
)
