/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package metrics

import "errors"

var (
	// ErrInvalidTable is returned when an embedded coefficient table cannot be decoded.
	ErrInvalidTable = errors.New("invalid coefficient table")
	// ErrOutOfDomain is returned when inputs drive a formula outside its numeric domain.
	ErrOutOfDomain = errors.New("inputs outside formula domain")
	// ErrUnknownAlgorithm is returned for an unregistered calculator name.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
)
