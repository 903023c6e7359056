/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import "errors"

var (
	errDatabaseURLRequired   = errors.New("database-url is required (set via --database-url or DATABASE_URL env var)")
	errMigrationNameRequired = errors.New("migration name is required")
	errUserRequired          = errors.New("user is required (set via --user or LABWAVE_USER env var)")
	errNoFiles               = errors.New("at least one file is required")
	errIngestFailed          = errors.New("one or more files failed to ingest")
	errInvalidDOB            = errors.New("invalid --dob")
	errInvalidGender         = errors.New("invalid --gender")
	errInvalidDay            = errors.New("invalid --day")
)
