// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/humaidq/labwave/detect"
	"github.com/humaidq/labwave/models"
)

func parseVariant(t *testing.T, variant detect.Variant, data string) Result {
	t.Helper()

	res, err := Parse(detect.Detection{Variant: variant}, []byte(data), Options{UploadID: uuid.New()})
	require.NoError(t, err)

	return res
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func countKind(diags []models.Diagnostic, kind models.DiagnosticKind) int {
	n := 0

	for _, d := range diags {
		if d.Kind == kind {
			n++
		}
	}

	return n
}

func TestParseCSVLongLayout(t *testing.T) {
	t.Parallel()

	data := "Date,Name,Value,Unit,Source\n" +
		"2024-01-01,Glucose,95,mg/dL,lab\n" +
		"2024-01-01,Glucose,98,mg/dL,wearable\n" +
		"2024-01-02,Cholesterol,,mmol/L,\n" +
		"not-a-date,HDL,1.2,mmol/L,\n" +
		",,,,\n" +
		"2024-01-03,,4.1,,\n"

	uploadID := uuid.New()
	res, err := Parse(detect.Detection{Variant: detect.VariantCSV}, []byte(data), Options{UploadID: uploadID})
	require.NoError(t, err)

	require.Len(t, res.Readings, 2)

	first := res.Readings[0]
	assert.Equal(t, "Glucose", first.Name)
	assert.Equal(t, "95", first.Value)
	assert.Equal(t, "mg/dL", first.Unit)
	assert.Equal(t, models.SourceLabFile, first.Source)
	assert.True(t, first.Timestamp.Equal(date(2024, 1, 1)))
	assert.True(t, first.DateOnly)
	assert.Equal(t, uploadID, first.UploadID)
	assert.Equal(t, "line 2", first.Record)

	assert.Equal(t, models.SourceWearable, res.Readings[1].Source)

	// Invalid date and nameless value.
	assert.Equal(t, 2, countKind(res.Diagnostics, models.RecordParseWarning))
}

func TestParseCSVWideLayout(t *testing.T) {
	t.Parallel()

	data := "Date;Glucose (mg/dL);Total cholesterol, mmol/L;HbA1c [%]\n" +
		"01.02.2024;95;5,2;5.6\n" +
		"02.02.2024;97;;5.7\n" +
		"garbage;1;2;3\n"

	res := parseVariant(t, detect.VariantCSV, data)

	// Two dated rows times three columns, minus one blank cell.
	require.Len(t, res.Readings, 5)

	byName := map[string]models.RawReading{}
	for _, r := range res.Readings {
		if r.Timestamp.Equal(date(2024, 2, 1)) {
			byName[r.Name] = r
		}
	}

	require.Len(t, byName, 3)
	assert.Equal(t, "mg/dL", byName["Glucose"].Unit)
	assert.Equal(t, "5,2", byName["Total cholesterol"].Value)
	assert.Equal(t, "mmol/L", byName["Total cholesterol"].Unit)
	assert.Equal(t, "%", byName["HbA1c"].Unit)

	assert.Equal(t, 1, countKind(res.Diagnostics, models.RecordParseWarning))
}

func TestParseCSVWideSkipsUnknownColumns(t *testing.T) {
	t.Parallel()

	known := map[string]bool{"Glucose": true, "HDL": true}
	opts := Options{KnownName: func(name string) bool { return known[name] }}

	data := "Date,Glucose (mg/dL),HDL (mg/dL),Lab,Comment\n" +
		"2024-01-01,95,55,Invitro,fasting\n" +
		"2024-02-01,97,58,Helix,\n"

	res, err := Parse(detect.Detection{Variant: detect.VariantCSV}, []byte(data), opts)
	require.NoError(t, err)

	// Two rows times two biomarker columns.
	require.Len(t, res.Readings, 4)

	for _, r := range res.Readings {
		assert.Contains(t, known, r.Name)
		assert.Equal(t, "mg/dL", r.Unit)
	}

	require.Equal(t, 2, countKind(res.Diagnostics, models.RecordParseWarning))
	assert.Contains(t, res.Diagnostics[0].Message, `"Lab"`)
	assert.Contains(t, res.Diagnostics[1].Message, `"Comment"`)
	assert.Equal(t, "line 1", res.Diagnostics[0].Record)

	// Without a matcher every column is kept.
	res = parseVariant(t, detect.VariantCSV, data)
	assert.Len(t, res.Readings, 7)
}

func TestParseCSVWithoutHeader(t *testing.T) {
	t.Parallel()

	res := parseVariant(t, detect.VariantCSV, "1,2,3\n4,5,6\n")
	assert.Empty(t, res.Readings)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Message, "header")
}

func TestParseXLSX(t *testing.T) {
	t.Parallel()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Дата", "Показатель", "Результат", "Единицы"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"2024-03-12", "Глюкоза", 5.4, "ммоль/л"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"2024-03-12", "Гемоглобин", 145, "г/л"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	res, err := Parse(detect.Detection{Variant: detect.VariantXLSX}, buf.Bytes(), Options{})
	require.NoError(t, err)

	require.Len(t, res.Readings, 2)
	assert.Equal(t, "Глюкоза", res.Readings[0].Name)
	assert.Equal(t, "5.4", res.Readings[0].Value)
	assert.Equal(t, "ммоль/л", res.Readings[0].Unit)
	assert.True(t, res.Readings[0].Timestamp.Equal(date(2024, 3, 12)))
	assert.Equal(t, "Sheet1 row 2", res.Readings[0].Record)
}

func TestParseXLSXUnreadable(t *testing.T) {
	t.Parallel()

	_, err := Parse(detect.Detection{Variant: detect.VariantXLSX}, []byte("PK\x03\x04junk"), Options{})
	require.ErrorIs(t, err, models.ErrUnrecognizedFormat)
}

func TestSheetDateSerial(t *testing.T) {
	t.Parallel()

	got, dateOnly, err := sheetDate("45292")
	require.NoError(t, err)
	assert.True(t, dateOnly)
	assert.Equal(t, "2024-01-01", got.Format(time.DateOnly))

	_, _, err = sheetDate("soon")
	require.Error(t, err)
}

func TestSplitHeaderUnit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		name   string
		unit   string
	}{
		{"Glucose (mg/dL)", "Glucose", "mg/dL"},
		{"Ferritin [ng/mL]", "Ferritin", "ng/mL"},
		{"Weight, kg", "Weight", "kg"},
		{"Vitamin D, total", "Vitamin D, total", ""},
		{"Steps", "Steps", ""},
	}

	for _, tt := range tests {
		name, unit := splitHeaderUnit(tt.header)
		assert.Equal(t, tt.name, name, tt.header)
		assert.Equal(t, tt.unit, unit, tt.header)
	}
}

func TestDiagnosticsAreCapped(t *testing.T) {
	t.Parallel()

	var b strings.Builder

	b.WriteString("Name,Value\n")

	for i := 0; i < MaxDiagnostics+20; i++ {
		fmt.Fprintf(&b, ",%d\n", i)
	}

	res := parseVariant(t, detect.VariantCSV, b.String())
	require.Len(t, res.Diagnostics, MaxDiagnostics+1)
	assert.Equal(t, "20 further diagnostics suppressed", res.Diagnostics[MaxDiagnostics].Message)
}

func TestParseUnknownVariant(t *testing.T) {
	t.Parallel()

	_, err := Parse(detect.Detection{Format: detect.Unknown}, []byte("x"), Options{})
	require.ErrorIs(t, err, models.ErrUnrecognizedFormat)
}
