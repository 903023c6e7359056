/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package pipeline runs one upload from raw bytes to stored, classified
// measurements: detect, parse, resolve, then merge, classify and persist
// under the owner's write lock.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/humaidq/labwave/catalog"
	"github.com/humaidq/labwave/classify"
	"github.com/humaidq/labwave/db"
	"github.com/humaidq/labwave/detect"
	"github.com/humaidq/labwave/logging"
	"github.com/humaidq/labwave/merge"
	"github.com/humaidq/labwave/metrics"
	"github.com/humaidq/labwave/models"
	"github.com/humaidq/labwave/parsers"
	"github.com/humaidq/labwave/resolver"
)

var logger = logging.Logger(logging.SourcePipeline)

// Defaults used when Options leaves a field zero.
const (
	DefaultMaxUploadBytes = 50 << 20
	DefaultWorkers        = 4
)

// Options tunes a Pipeline.
type Options struct {
	MaxUploadBytes int64
	Workers        int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Pipeline is safe for concurrent use. Parsing runs without locks; only the
// merge step is serialized per user.
type Pipeline struct {
	store      db.Store
	resolver   *resolver.Resolver
	classifier *classify.Classifier
	maxBytes   int64
	workers    int
	now        func() time.Time
	locks      *userLocks
}

// New builds a pipeline over a store and a resolver. The classifier uses
// the resolver's catalog.
func New(store db.Store, r *resolver.Resolver, opts Options) *Pipeline {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}

	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Pipeline{
		store:      store,
		resolver:   r,
		classifier: classify.New(r.Catalog()),
		maxBytes:   opts.MaxUploadBytes,
		workers:    opts.Workers,
		now:        opts.Now,
		locks:      newUserLocks(),
	}
}

// MaxUploadBytes is the largest upload Process accepts.
func (p *Pipeline) MaxUploadBytes() int64 {
	return p.maxBytes
}

// Catalog returns the biomarker catalog used for resolving and classifying.
func (p *Pipeline) Catalog() *catalog.Catalog {
	return p.resolver.Catalog()
}

// Input is one upload: a file or an already-fetched vendor payload.
type Input struct {
	UserID   string
	Filename string
	Data     []byte
}

// Result is the outcome of one upload.
type Result struct {
	Upload models.Upload `json:"upload"`
	// Written holds the measurements inserted by this upload.
	Written     []models.NormalizedMeasurement `json:"written"`
	Unchanged   int                            `json:"unchanged"`
	Superseded  int                            `json:"superseded"`
	Discarded   int                            `json:"discarded"`
	Variants    []models.GeneticVariant        `json:"variants"`
	Unresolved  []models.Unresolved            `json:"unresolved"`
	Diagnostics []models.Diagnostic            `json:"diagnostics"`
}

// Process runs one upload. Size and format failures reject the whole
// upload; anything else degrades to diagnostics and unresolved readings.
func (p *Pipeline) Process(ctx context.Context, in Input) (Result, error) {
	if err := p.checkSize(in); err != nil {
		return Result{}, err
	}

	upload := models.Upload{
		ID:         uuid.New(),
		UserID:     in.UserID,
		Filename:   in.Filename,
		SizeBytes:  int64(len(in.Data)),
		ReceivedAt: p.now().UTC(),
		Status:     models.UploadProcessed,
	}

	d, err := detect.Detect(in.Data, in.Filename)
	if err != nil {
		return Result{}, p.fail(ctx, upload, err)
	}

	upload.Format = string(d.Format)
	upload.Variant = string(d.Variant)

	parsed, err := p.parse(d, in.Data, upload.ID)
	if err != nil {
		return Result{}, p.fail(ctx, upload, err)
	}

	res := Result{
		Upload:      upload,
		Unresolved:  []models.Unresolved{},
		Diagnostics: parsed.Diagnostics,
	}

	incoming := p.resolve(parsed.Readings, upload, &res)
	res.Variants = interpretAll(in.UserID, upload.ID, parsed.Genotypes)

	plan, err := p.commit(ctx, in.UserID, write{
		upload:     &upload,
		incoming:   incoming,
		variants:   res.Variants,
		candidates: res.Unresolved,
	})
	if err != nil {
		return Result{}, err
	}

	res.Written = plan.Insert
	res.Unchanged = len(plan.Unchanged)
	res.Superseded = len(plan.Supersede)
	res.Discarded = len(plan.Discarded)

	if res.Written == nil {
		res.Written = []models.NormalizedMeasurement{}
	}

	logger.Info("Processed upload", "user", in.UserID, "upload", upload.ID, "format", d.Format,
		"variant", d.Variant, "written", len(res.Written), "unchanged", res.Unchanged,
		"discarded", res.Discarded, "unresolved", len(res.Unresolved),
		"variants", len(res.Variants), "diagnostics", len(res.Diagnostics))

	return res, nil
}

// BatchItem pairs one batch input with its outcome.
type BatchItem struct {
	Filename string
	Result   Result
	Err      error
}

// ProcessBatch runs several uploads concurrently. A failing upload does not
// stop the others; results keep the input order.
func (p *Pipeline) ProcessBatch(ctx context.Context, inputs []Input) []BatchItem {
	out := make([]BatchItem, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, in := range inputs {
		g.Go(func() error {
			res, err := p.Process(gctx, in)
			out[i] = BatchItem{Filename: in.Filename, Result: res, Err: err}

			return nil
		})
	}

	_ = g.Wait()

	return out
}

func (p *Pipeline) checkSize(in Input) error {
	switch {
	case len(in.Data) == 0:
		return models.ErrEmptyUpload
	case int64(len(in.Data)) > p.maxBytes:
		return fmt.Errorf("%w: %d bytes, limit %d", models.ErrUploadTooLarge, len(in.Data), p.maxBytes)
	}

	return nil
}

// parse runs the selected parser, turning a panic on malformed input into
// an error.
func (p *Pipeline) parse(d detect.Detection, data []byte, uploadID uuid.UUID) (res parsers.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Recovered parser panic", "upload", uploadID, "variant", d.Variant, "panic", r)
			err = fmt.Errorf("%w: %s: %v", models.ErrParserPanic, d.Variant, r)
		}
	}()

	return parsers.Parse(d, data, parsers.Options{
		UploadID:  uploadID,
		KeepRSID:  metrics.KnownSNP,
		KnownName: p.knownName,
	})
}

func (p *Pipeline) knownName(name string) bool {
	_, ok := p.resolver.Match(name)
	return ok
}

// resolve maps raw readings onto catalog biomarkers. Undated readings take
// the upload's received day.
func (p *Pipeline) resolve(readings []models.RawReading, upload models.Upload, res *Result) []models.NormalizedMeasurement {
	out := make([]models.NormalizedMeasurement, 0, len(readings))
	undated := 0

	for _, raw := range readings {
		if !raw.HasTimestamp() {
			raw.Timestamp = upload.ReceivedAt
			raw.DateOnly = true
			undated++
		}

		m, err := p.normalize(raw, upload, "")
		if err != nil {
			var u models.Unresolved
			if errors.As(err, &u) {
				u.ID, u.UploadID = uuid.New(), upload.ID
				res.Unresolved = append(res.Unresolved, u)

				continue
			}

			res.Diagnostics = append(res.Diagnostics, models.Warnf(raw.Record, "%v", err))

			continue
		}

		out = append(out, m)
	}

	if undated > 0 {
		res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
			Kind: models.MissingTimestamp,
			Message: fmt.Sprintf("%d readings without a date were recorded on %s",
				undated, upload.ReceivedAt.Format(time.DateOnly)),
		})
	}

	return out
}

// normalize resolves one reading, against code when it is set.
func (p *Pipeline) normalize(raw models.RawReading, upload models.Upload, code string) (models.NormalizedMeasurement, error) {
	var (
		r   resolver.Resolved
		err error
	)

	if code == "" {
		r, err = p.resolver.Resolve(raw)
	} else {
		r, err = p.resolver.ResolveAs(raw, code)
	}

	if err != nil {
		return models.NormalizedMeasurement{}, err
	}

	source := raw.Source
	if source == "" {
		source = models.SourceLabFile
	}

	return models.NormalizedMeasurement{
		ID:            uuid.New(),
		UserID:        upload.UserID,
		BiomarkerCode: r.Biomarker.Code,
		Value:         r.Value,
		Unit:          r.Biomarker.Unit,
		Day:           models.Day(raw.Timestamp),
		Source:        source,
		Status:        models.StatusUnknown,
		UploadID:      upload.ID,
		OriginalName:  raw.Name,
		IngestedAt:    upload.ReceivedAt,
	}, nil
}

// write is one transactional change to a user's rows.
type write struct {
	// upload is saved with the rows. Nil means the rows belong to an
	// upload that already exists.
	upload     *models.Upload
	incoming   []models.NormalizedMeasurement
	variants   []models.GeneticVariant
	candidates []models.Unresolved
	// prepare runs first inside the transaction and returns more incoming
	// rows. An error aborts the write unchanged.
	prepare func(tx db.Tx) ([]models.NormalizedMeasurement, error)
}

// commit merges incoming rows with the user's stored rows for the same
// days, classifies the winners and writes the result in one transaction.
func (p *Pipeline) commit(ctx context.Context, userID string, w write) (merge.Plan, error) {
	profile, err := p.store.Profile(ctx, userID)
	if err != nil {
		return merge.Plan{}, fmt.Errorf("failed to load profile: %w", err)
	}

	unlock := p.locks.lock(userID)
	defer unlock()

	var plan merge.Plan

	err = p.store.Update(ctx, userID, func(tx db.Tx) error {
		incoming := w.incoming

		if w.prepare != nil {
			extra, err := w.prepare(tx)
			if err != nil {
				return err
			}

			incoming = append(slices.Clone(incoming), extra...)
		}

		var existing []models.NormalizedMeasurement

		if from, to, ok := dayBounds(incoming); ok {
			rows, err := tx.MeasurementsBetween(ctx, userID, from, to)
			if err != nil {
				return err
			}

			existing = rows
		}

		plan = merge.Merge(existing, incoming)

		for i := range plan.Insert {
			p.classifier.Apply(&plan.Insert[i], profile)
		}

		if w.upload != nil {
			if err := tx.SaveUpload(ctx, *w.upload); err != nil {
				return err
			}
		}

		if err := tx.SaveCandidates(ctx, userID, w.candidates); err != nil {
			return err
		}

		ids := make([]uuid.UUID, len(plan.Supersede))
		for i, m := range plan.Supersede {
			ids[i] = m.ID
		}

		if err := tx.DeleteMeasurements(ctx, ids); err != nil {
			return err
		}

		if err := tx.InsertMeasurements(ctx, plan.Insert); err != nil {
			return err
		}

		return tx.UpsertVariants(ctx, w.variants)
	})
	if err != nil {
		return merge.Plan{}, err
	}

	return plan, nil
}

// fail records a rejected upload and returns the original error.
func (p *Pipeline) fail(ctx context.Context, upload models.Upload, cause error) error {
	upload.Status = models.UploadFailed
	upload.Error = cause.Error()

	if upload.Format == "" {
		upload.Format = string(detect.Unknown)
	}

	err := p.store.Update(ctx, upload.UserID, func(tx db.Tx) error {
		return tx.SaveUpload(ctx, upload)
	})
	if err != nil {
		logger.Warn("Failed to record failed upload", "upload", upload.ID, "error", err)
	}

	logger.Info("Rejected upload", "user", upload.UserID, "upload", upload.ID, "filename", upload.Filename, "error", cause)

	return cause
}

func interpretAll(userID string, uploadID uuid.UUID, calls []models.GenotypeCall) []models.GeneticVariant {
	out := []models.GeneticVariant{}

	for _, call := range calls {
		if v, ok := metrics.Interpret(userID, uploadID, call); ok {
			out = append(out, v)
		}
	}

	return out
}

func dayBounds(ms []models.NormalizedMeasurement) (time.Time, time.Time, bool) {
	if len(ms) == 0 {
		return time.Time{}, time.Time{}, false
	}

	from, to := ms[0].Day, ms[0].Day
	for _, m := range ms[1:] {
		if m.Day.Before(from) {
			from = m.Day
		}

		if m.Day.After(to) {
			to = m.Day
		}
	}

	return from, to, true
}
