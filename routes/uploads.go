/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/flamego/flamego"
	"github.com/google/uuid"

	"github.com/humaidq/labwave/pipeline"
)

const (
	// multipartOverhead covers form boundaries and part headers.
	multipartOverhead = 1 << 20
	// maxBatchFiles bounds one batch request.
	maxBatchFiles = 32
	// multipartMemory is kept in memory before parts spill to disk.
	multipartMemory = 8 << 20
)

// Upload ingests one file. The body is either a multipart form with a "file"
// part or the raw document, named by the "filename" query parameter.
func Upload(c flamego.Context, p *pipeline.Pipeline) {
	userID, err := userParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	in, err := readUpload(c, p.MaxUploadBytes())
	if err != nil {
		writeError(c, err)
		return
	}

	in.UserID = userID

	res, err := p.Process(c.Request().Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusCreated, res)
}

type batchEntry struct {
	Filename string           `json:"filename"`
	Status   int              `json:"status"`
	Result   *pipeline.Result `json:"result,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// UploadBatch ingests every "file" part of a multipart form. Each file gets
// its own status; the request itself succeeds when the form was readable.
func UploadBatch(c flamego.Context, p *pipeline.Pipeline) {
	userID, err := userParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	r := c.Request().Request
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(c, fmt.Errorf("%w: %w", errInvalidBody, err))
		return
	}

	headers := r.MultipartForm.File["file"]

	switch {
	case len(headers) == 0:
		writeError(c, errMissingFile)
		return
	case len(headers) > maxBatchFiles:
		writeError(c, fmt.Errorf("%w: %d, limit %d", errTooManyFiles, len(headers), maxBatchFiles))
		return
	}

	inputs := make([]pipeline.Input, 0, len(headers))

	for _, h := range headers {
		data, err := readPart(h, p.MaxUploadBytes())
		if err != nil {
			writeError(c, err)
			return
		}

		inputs = append(inputs, pipeline.Input{UserID: userID, Filename: cleanFilename(h.Filename), Data: data})
	}

	items := p.ProcessBatch(r.Context(), inputs)
	out := make([]batchEntry, len(items))

	for i, item := range items {
		out[i] = batchEntry{Filename: item.Filename, Status: http.StatusCreated}

		if item.Err != nil {
			status, body := errorResponse(item.Err)
			out[i].Status = status
			out[i].Error = body.Error

			continue
		}

		res := item.Result
		out[i].Result = &res
	}

	writeJSON(c, http.StatusOK, out)
}

// ListUploads returns the user's uploads, newest first.
func ListUploads(c flamego.Context, p *pipeline.Pipeline) {
	userID, err := userParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	ups, err := p.Uploads(c.Request().Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, ups)
}

// DeleteUpload removes an upload and everything it wrote.
func DeleteUpload(c flamego.Context, p *pipeline.Pipeline) {
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

	deleted, err := p.DeleteUpload(c.Request().Context(), userID, uploadID)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, deleted)
}

func idParam(c flamego.Context, name string, invalid error) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, invalid
	}

	return id, nil
}

func readUpload(c flamego.Context, limit int64) (pipeline.Input, error) {
	r := c.Request().Request

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return pipeline.Input{}, fmt.Errorf("%w: %w", errInvalidBody, err)
		}

		headers := r.MultipartForm.File["file"]
		if len(headers) == 0 {
			return pipeline.Input{}, errMissingFile
		}

		data, err := readPart(headers[0], limit)
		if err != nil {
			return pipeline.Input{}, err
		}

		return pipeline.Input{Filename: cleanFilename(headers[0].Filename), Data: data}, nil
	}

	data, err := readLimited(r.Body, limit)
	if err != nil {
		return pipeline.Input{}, err
	}

	return pipeline.Input{Filename: cleanFilename(c.Query("filename")), Data: data}, nil
}

func readPart(h *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := h.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload part: %w", err)
	}

	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Failed to close upload part", "filename", h.Filename, "error", err)
		}
	}()

	return readLimited(f, limit)
}

// readLimited reads at most limit+1 bytes so the pipeline can tell an
// oversized upload from one that fits exactly.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	return data, nil
}

func cleanFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))

	if name == "." || name == "/" {
		return ""
	}

	return name
}

func userParam(c flamego.Context) (string, error) {
	userID := strings.TrimSpace(c.Param("user"))
	if userID == "" {
		return "", errMissingUserID
	}

	return userID, nil
}
