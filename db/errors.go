/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import "errors"

var (
	// ErrDatabaseURLNotSet is returned when no Postgres connection string was configured.
	ErrDatabaseURLNotSet = errors.New("database URL is not set")
	// ErrDatabaseNameNotSpecified is returned when the connection string names no database.
	ErrDatabaseNameNotSpecified = errors.New("database name not specified in connection string")
	// ErrDatabaseConnectionNotInitialized is returned when Init has not been called.
	ErrDatabaseConnectionNotInitialized = errors.New("database connection not initialized")
	// ErrUploadNotFound is returned when an upload does not exist for the user.
	ErrUploadNotFound = errors.New("upload not found")
	// ErrCandidateNotFound is returned when an unresolved reading does not exist for the upload.
	ErrCandidateNotFound = errors.New("candidate not found")
	// ErrUnknownDriver is returned for an unsupported database driver name.
	ErrUnknownDriver = errors.New("unknown database driver")
)
