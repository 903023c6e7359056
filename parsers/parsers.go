/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package parsers turns a detected upload into raw readings, genotype calls
// and per-record diagnostics. Parsers are pure functions over their input
// bytes and never fail on a single malformed record.
package parsers

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/labwave/detect"
	"github.com/humaidq/labwave/logging"
	"github.com/humaidq/labwave/models"
)

var logger = logging.Logger(logging.SourceParser)

// MaxDiagnostics caps the diagnostics kept for one upload. Further entries
// are counted and reported as a single summary line.
const MaxDiagnostics = 500

// Result is the output of one parse
type Result struct {
	Readings    []models.RawReading
	Genotypes   []models.GenotypeCall
	Diagnostics []models.Diagnostic
}

// Options carries per-upload context into a parser
type Options struct {
	UploadID uuid.UUID
	// KeepRSID filters genotype calls. A nil filter keeps every call.
	KeepRSID func(rsid string) bool
	// KnownName reports whether a wide-table column header names a
	// biomarker. Other columns are skipped with a diagnostic. A nil
	// matcher keeps every column.
	KnownName func(name string) bool
}

// Parse runs the parser selected by the detector. A container that cannot be
// opened at all yields an *models.UnrecognizedFormatError; anything else is
// reported per record in the diagnostics.
func Parse(d detect.Detection, data []byte, opts Options) (Result, error) {
	c := &collector{opts: opts}

	var err error

	switch d.Variant {
	case detect.VariantCSV:
		err = parseCSV(data, c)
	case detect.VariantXLSX:
		err = parseXLSX(data, c)
	case detect.VariantText:
		err = parseText(data, c)
	case detect.VariantPDF:
		err = parsePDF(data, c)
	case detect.VariantAppleZip:
		err = parseAppleZip(data, c)
	case detect.VariantAppleXML:
		err = parseAppleXML(data, c)
	case detect.VariantOura:
		err = parseOura(data, c)
	case detect.VariantWhoop:
		err = parseWhoop(data, c)
	case detect.Variant23andMe, detect.VariantAncestry:
		err = parseGeneticText(data, d.Variant, c)
	case detect.VariantGeneticJSON:
		err = parseGeneticJSON(data, c)
	default:
		err = &models.UnrecognizedFormatError{Reason: fmt.Sprintf("no parser for %s/%s", d.Format, d.Variant)}
	}

	if err != nil {
		return Result{}, err
	}

	res := c.result()

	logger.Debug("Parsed upload", "upload", opts.UploadID, "variant", d.Variant,
		"readings", len(res.Readings), "genotypes", len(res.Genotypes), "diagnostics", len(res.Diagnostics))

	return res, nil
}

type collector struct {
	opts       Options
	res        Result
	suppressed int
}

func (c *collector) reading(r models.RawReading) {
	r.UploadID = c.opts.UploadID
	if r.Source == "" {
		r.Source = models.SourceLabFile
	}

	c.res.Readings = append(c.res.Readings, r)
}

func (c *collector) genotype(g models.GenotypeCall) {
	if c.opts.KeepRSID != nil && !c.opts.KeepRSID(g.RSID) {
		return
	}

	c.res.Genotypes = append(c.res.Genotypes, g)
}

func (c *collector) diag(d models.Diagnostic) {
	if len(c.res.Diagnostics) >= MaxDiagnostics {
		c.suppressed++
		return
	}

	c.res.Diagnostics = append(c.res.Diagnostics, d)
}

func (c *collector) warnf(record, format string, args ...any) {
	c.diag(models.Warnf(record, format, args...))
}

func (c *collector) result() Result {
	if c.suppressed > 0 {
		c.res.Diagnostics = append(c.res.Diagnostics, models.Diagnostic{
			Kind:    models.RecordParseWarning,
			Message: fmt.Sprintf("%d further diagnostics suppressed", c.suppressed),
		})
	}

	return c.res
}

// daily collapses sub-daily samples into one value per (metric, day).
type daily struct {
	code   string
	unit   string
	day    time.Time
	latest time.Time
	value  float64
	sum    float64
	n      int
	record string
}

type dailyTable struct {
	cells map[string]*daily
}

func newDailyTable() *dailyTable {
	return &dailyTable{cells: make(map[string]*daily)}
}

func (t *dailyTable) get(code, unit string, at time.Time, record string) *daily {
	day := models.Day(at)
	key := code + "|" + day.Format(time.DateOnly)

	cell, ok := t.cells[key]
	if !ok {
		cell = &daily{code: code, unit: unit, day: day, record: record}
		t.cells[key] = cell
	}

	return cell
}

// addSum accumulates a cumulative sample such as a step count.
func (t *dailyTable) addSum(code, unit string, at time.Time, v float64, record string) {
	cell := t.get(code, unit, at, record)
	cell.sum += v
	cell.value = cell.sum
	cell.n++
}

// keepLatest keeps the sample with the newest timestamp. Ties go to the later call.
func (t *dailyTable) keepLatest(code, unit string, at time.Time, v float64, record string) {
	cell := t.get(code, unit, at, record)
	if cell.n == 0 || !at.Before(cell.latest) {
		cell.latest = at
		cell.value = v
		cell.unit = unit
		cell.record = record
	}

	cell.n++
}

// addMean averages samples over the day.
func (t *dailyTable) addMean(code, unit string, at time.Time, v float64, record string) {
	cell := t.get(code, unit, at, record)
	cell.sum += v
	cell.n++
	cell.value = cell.sum / float64(cell.n)
}

// emit writes one reading per cell, ordered by day then code.
func (t *dailyTable) emit(c *collector, source models.SourceKind) {
	cells := make([]*daily, 0, len(t.cells))
	for _, cell := range t.cells {
		cells = append(cells, cell)
	}

	sort.Slice(cells, func(i, j int) bool {
		if !cells[i].day.Equal(cells[j].day) {
			return cells[i].day.Before(cells[j].day)
		}

		return cells[i].code < cells[j].code
	})

	for _, cell := range cells {
		c.reading(models.RawReading{
			Name:      cell.code,
			Value:     formatFloat(cell.value),
			Unit:      cell.unit,
			Timestamp: cell.day,
			DateOnly:  true,
			Source:    source,
			Record:    cell.record,
		})
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
