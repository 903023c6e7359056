/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package config

import "errors"

var (
	// ErrInvalidConfig is returned by Validate for out-of-range values.
	ErrInvalidConfig = errors.New("invalid configuration")
)
