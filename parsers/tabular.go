/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package parsers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/humaidq/labwave/detect"
	"github.com/humaidq/labwave/models"
)

// headerScanRows is how many leading rows may precede the header.
const headerScanRows = 10

var (
	utf8BOM = []byte("\xEF\xBB\xBF")

	bracketUnit = regexp.MustCompile(`^(.*?)\s*[(\[]([^)\]]+)[)\]]\s*$`)
	commaUnit   = regexp.MustCompile(`^(.*\S)\s*,\s*(\S+)$`)
)

type table struct {
	label string
	rows  [][]string
	// date parses a date cell. Sheets may carry serial day numbers.
	date func(string) (time.Time, bool, error)
}

func parseCSV(data []byte, c *collector) error {
	data = bytes.TrimPrefix(data, utf8BOM)

	first := string(data)
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}

	delim := detect.SniffDelimiter(first)
	if delim == 0 {
		delim = ','
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var rows [][]string

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				c.warnf(fmt.Sprintf("line %d", pe.Line), "malformed row: %v", pe.Err)
				// Keep row numbering aligned with the file.
				rows = append(rows, nil)

				continue
			}

			return fmt.Errorf("failed to read delimited file: %w", err)
		}

		rows = append(rows, rec)
	}

	parseTable(table{label: "line", rows: rows, date: models.ParseTimestamp}, c)

	return nil
}

func parseXLSX(data []byte, c *collector) error {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return &models.UnrecognizedFormatError{Reason: fmt.Sprintf("unreadable workbook: %v", err)}
	}

	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Failed to close workbook", "error", err)
		}
	}()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			c.warnf(sheet, "failed to read sheet: %v", err)
			continue
		}

		parseTable(table{label: sheet + " row", rows: rows, date: sheetDate}, c)
	}

	return nil
}

// sheetDate accepts text dates and spreadsheet serial day numbers.
func sheetDate(cell string) (time.Time, bool, error) {
	if t, dateOnly, err := models.ParseTimestamp(cell); err == nil {
		return t, dateOnly, nil
	}

	serial, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || serial < 1 || serial > 2958465 {
		return time.Time{}, false, fmt.Errorf("unrecognized date %q", cell)
	}

	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false, err
	}

	return t, serial == float64(int64(serial)), nil
}

func parseTable(tb table, c *collector) {
	headerAt, roles := findHeader(tb.rows)
	if headerAt < 0 {
		if len(tb.rows) > 0 {
			c.warnf(tb.label+" 1", "no recognizable header row")
		}

		return
	}

	if has(roles, detect.RoleName) && has(roles, detect.RoleValue) {
		parseLong(tb, headerAt, roles, c)
		return
	}

	if has(roles, detect.RoleDate) {
		parseWide(tb, headerAt, roles, c)
		return
	}

	c.warnf(fmt.Sprintf("%s %d", tb.label, headerAt+1), "header has neither name and value columns nor a date column")
}

func findHeader(rows [][]string) (int, []detect.ColumnRole) {
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		roles := make([]detect.ColumnRole, len(rows[i]))
		found := false

		for j, cell := range rows[i] {
			roles[j] = detect.Column(cell)
			if roles[j] != detect.RoleNone {
				found = true
			}
		}

		if found {
			return i, roles
		}
	}

	return -1, nil
}

func has(roles []detect.ColumnRole, role detect.ColumnRole) bool {
	return column(roles, role) >= 0
}

func column(roles []detect.ColumnRole, role detect.ColumnRole) int {
	for i, r := range roles {
		if r == role {
			return i
		}
	}

	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[i])
}

// parseLong handles one reading per row with name, value and optional unit,
// date and source columns.
func parseLong(tb table, headerAt int, roles []detect.ColumnRole, c *collector) {
	nameCol := column(roles, detect.RoleName)
	valueCol := column(roles, detect.RoleValue)
	unitCol := column(roles, detect.RoleUnit)
	dateCol := column(roles, detect.RoleDate)
	sourceCol := column(roles, detect.RoleSource)

	for i := headerAt + 1; i < len(tb.rows); i++ {
		row := tb.rows[i]
		record := fmt.Sprintf("%s %d", tb.label, i+1)

		name, value := cell(row, nameCol), cell(row, valueCol)
		if value == "" {
			// Blank cells and blank rows carry no reading.
			continue
		}

		if name == "" {
			c.warnf(record, "value %q has no biomarker name", value)
			continue
		}

		reading := models.RawReading{
			Name:   name,
			Value:  value,
			Unit:   cell(row, unitCol),
			Source: sourceFor(cell(row, sourceCol), record, c),
			Record: record,
		}

		if raw := cell(row, dateCol); raw != "" {
			ts, dateOnly, err := tb.date(raw)
			if err != nil {
				c.warnf(record, "invalid date %q", raw)
				continue
			}

			reading.Timestamp, reading.DateOnly = ts, dateOnly
		}

		c.reading(reading)
	}
}

type wideColumn struct {
	index int
	name  string
	unit  string
}

// parseWide handles one row per sample date with one column per biomarker.
func parseWide(tb table, headerAt int, roles []detect.ColumnRole, c *collector) {
	header := tb.rows[headerAt]
	dateCol := column(roles, detect.RoleDate)
	sourceCol := column(roles, detect.RoleSource)

	var cols []wideColumn

	for i, role := range roles {
		if role != detect.RoleNone {
			continue
		}

		name, unit := splitHeaderUnit(header[i])
		if name == "" {
			continue
		}

		if c.opts.KnownName != nil && !c.opts.KnownName(name) {
			c.warnf(fmt.Sprintf("%s %d", tb.label, headerAt+1), "skipped column %q: not a known biomarker", name)
			continue
		}

		cols = append(cols, wideColumn{index: i, name: name, unit: unit})
	}

	for i := headerAt + 1; i < len(tb.rows); i++ {
		row := tb.rows[i]
		record := fmt.Sprintf("%s %d", tb.label, i+1)

		raw := cell(row, dateCol)
		if raw == "" {
			if !blankRow(row) {
				c.warnf(record, "row has no sample date")
			}

			continue
		}

		ts, dateOnly, err := tb.date(raw)
		if err != nil {
			c.warnf(record, "invalid date %q", raw)
			continue
		}

		source := sourceFor(cell(row, sourceCol), record, c)

		for _, col := range cols {
			value := cell(row, col.index)
			if value == "" {
				continue
			}

			c.reading(models.RawReading{
				Name:      col.name,
				Value:     value,
				Unit:      col.unit,
				Timestamp: ts,
				DateOnly:  dateOnly,
				Source:    source,
				Record:    fmt.Sprintf("%s, column %q", record, col.name),
			})
		}
	}
}

// splitHeaderUnit reads "Name (unit)", "Name [unit]" and "Name, unit".
func splitHeaderUnit(header string) (string, string) {
	header = strings.TrimSpace(header)

	if m := bracketUnit.FindStringSubmatch(header); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}

	if m := commaUnit.FindStringSubmatch(header); m != nil && looksLikeUnit(m[2]) {
		return m[1], m[2]
	}

	return header, ""
}

func looksLikeUnit(s string) bool {
	if len([]rune(s)) <= 4 {
		return true
	}

	return strings.ContainsAny(s, "/%^°µμ×*0123456789")
}

func sourceFor(raw, record string, c *collector) models.SourceKind {
	if raw == "" {
		return models.SourceLabFile
	}

	kind, ok := models.ParseSourceKind(raw)
	if !ok {
		c.warnf(record, "unknown source %q, treating as lab", raw)
		return models.SourceLabFile
	}

	return kind
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}

	return true
}
