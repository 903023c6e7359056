/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package models

import (
	"time"

	"github.com/google/uuid"
)

// UploadStatus is the terminal state of one pipeline run
type UploadStatus string

// UploadStatus values.
const (
	UploadProcessed UploadStatus = "processed"
	UploadFailed    UploadStatus = "failed"
)

// Upload records one ingested document or payload.
type Upload struct {
	ID         uuid.UUID    `db:"id" json:"id"`
	UserID     string       `db:"user_id" json:"user_id"`
	Filename   string       `db:"filename" json:"filename,omitempty"`
	Format     string       `db:"format" json:"format,omitempty"`
	Variant    string       `db:"variant" json:"variant,omitempty"`
	SizeBytes  int64        `db:"size_bytes" json:"size_bytes"`
	ReceivedAt time.Time    `db:"received_at" json:"received_at"`
	Status     UploadStatus `db:"status" json:"status"`
	Error      string       `db:"error" json:"error,omitempty"`
}
