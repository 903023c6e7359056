// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humaidq/labwave/models"
)

func assertFloatClose(t *testing.T, got, want float64) {
	t.Helper()

	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("expected %.6f, got %.6f", want, got)
	}
}

func TestDefaultCatalogIsValid(t *testing.T) {
	t.Parallel()

	c, err := New(Definitions(), DefaultTuning())
	require.NoError(t, err)
	assert.Equal(t, len(Definitions()), c.Len())

	for _, code := range []string{"ALB", "CREAT", "GLU", "CRP", "LYMPH_PCT", "MCV", "RDW", "ALP", "WBC"} {
		_, ok := c.Lookup(code)
		assert.True(t, ok, "missing %s", code)
	}
}

func TestDuplicateSynonymRejected(t *testing.T) {
	t.Parallel()

	defs := []Biomarker{
		{Code: "A", Names: names("Alpha", "Альфа"), Unit: "mg/dL", Synonyms: []string{"Shared name"}},
		{Code: "B", Names: names("Beta", "Бета"), Unit: "mg/dL", Synonyms: []string{"shared-name"}},
	}

	_, err := New(defs, DefaultTuning())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateSynonym))
}

func TestInvalidTuningRejected(t *testing.T) {
	t.Parallel()

	_, err := Default().WithTuning(Tuning{Threshold: 1.5, Margin: 0.05, Tolerance: 0.1})
	require.ErrorIs(t, err, ErrInvalidTuning)
}

func TestConvert(t *testing.T) {
	t.Parallel()

	c := Default()

	glu, _ := c.Lookup("GLU")
	v, ok := glu.Convert(5.5, "ммоль/л")
	require.True(t, ok)
	assertFloatClose(t, v, 5.5*18.016)

	v, ok = glu.Convert(95, "")
	require.True(t, ok)
	assertFloatClose(t, v, 95)

	v, ok = glu.Convert(95, "MG/DL")
	require.True(t, ok)
	assertFloatClose(t, v, 95)

	_, ok = glu.Convert(95, "furlongs")
	assert.False(t, ok)

	temp, _ := c.Lookup("TEMP")
	v, ok = temp.Convert(98.6, "°F")
	require.True(t, ok)
	assertFloatClose(t, v, 37.0)

	wbc, _ := c.Lookup("WBC")
	v, ok = wbc.Convert(6.1, "x10^9/L")
	require.True(t, ok)
	assertFloatClose(t, v, 6.1)

	a1c, _ := c.Lookup("HBA1C")
	v, ok = a1c.Convert(48, "mmol/mol")
	require.True(t, ok)
	assertFloatClose(t, v, 48*0.0915+2.15)
}

func TestRangeFor(t *testing.T) {
	t.Parallel()

	c := Default()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dob := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	male := models.GenderMale

	hgb, _ := c.Lookup("HGB")

	_, ok := hgb.RangeFor(&models.Profile{}, at)
	assert.False(t, ok, "age-dependent rule must not evaluate without a date of birth")

	_, ok = hgb.RangeFor(&models.Profile{DateOfBirth: &dob}, at)
	assert.False(t, ok, "sex-specific adult rule must not evaluate without sex")

	r, ok := hgb.RangeFor(&models.Profile{DateOfBirth: &dob, Gender: &male}, at)
	require.True(t, ok)
	assertFloatClose(t, *r.Low, 13.2)
	assertFloatClose(t, *r.High, 16.6)

	// Pediatric hemoglobin is unisex, so sex is not needed.
	childDOB := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	r, ok = hgb.RangeFor(&models.Profile{DateOfBirth: &childDOB}, at)
	require.True(t, ok)
	assertFloatClose(t, *r.Low, 10.0)

	na, _ := c.Lookup("NA")
	r, ok = na.RangeFor(nil, at)
	require.True(t, ok, "age-independent rule evaluates without a profile")
	assertFloatClose(t, *r.High, 145.0)

	hrv, _ := c.Lookup("HRV")
	_, ok = hrv.RangeFor(nil, at)
	assert.False(t, ok)
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"  Glucose, Fasting ": "glucose fasting",
		"M.C.V":               "m c v",
		"Protéine totale":     "proteine totale",
		"RDW - CV":            "rdw cv",
		"Глюкоза":             "глюкоза",
		"25(OH)D":             "25 oh d",
	}

	for in, want := range tests {
		assert.Equal(t, want, NormalizeName(in), "NormalizeName(%q)", in)
	}
}

func TestNormalizeUnit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "umol/l", NormalizeUnit("µmol/L"))
	assert.Equal(t, "umol/l", NormalizeUnit("μmol/l"))
	assert.Equal(t, "umol/l", NormalizeUnit("мкмоль/л"))
	assert.Equal(t, "u/l", NormalizeUnit("IU/L"))
	assert.Equal(t, "10^3/ul", NormalizeUnit("×10³/μL"))
	assert.Equal(t, "ug/l", NormalizeUnit("mcg/L"))
	assert.Equal(t, "bpm", NormalizeUnit("count/min"))
	assert.Equal(t, "", NormalizeUnit("  "))
}
