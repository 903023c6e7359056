// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humaidq/labwave/models"
)

var dob = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// fiftyYears is exactly 50 × 365.25 days.
var fiftyYears = dob.Add(438300 * time.Hour)

func profile(g models.Gender) *models.Profile {
	birth := dob
	return &models.Profile{UserID: "u1", DateOfBirth: &birth, Gender: &g}
}

func healthyPanel() Snapshot {
	day := time.Date(2019, 12, 1, 0, 0, 0, 0, time.UTC)

	return Snapshot{
		"ALB":       {Value: 4.5, Day: day},
		"CREAT":     {Value: 0.9, Day: day},
		"GLU":       {Value: 90, Day: day},
		"CRP":       {Value: 1.0, Day: day},
		"LYMPH_PCT": {Value: 30, Day: day},
		"MCV":       {Value: 90, Day: day},
		"RDW":       {Value: 13, Day: day},
		"ALP":       {Value: 70, Day: day},
		"WBC":       {Value: 6, Day: day},
	}
}

func requireInsufficient(t *testing.T, err error) *models.InsufficientDataError {
	t.Helper()

	var ide *models.InsufficientDataError
	require.True(t, errors.As(err, &ide), "expected InsufficientDataError, got %v", err)
	require.ErrorIs(t, err, models.ErrInsufficientData)

	return ide
}

func TestPhenoAge(t *testing.T) {
	t.Parallel()

	res, err := Compute("phenoage", Input{Snapshot: healthyPanel(), Profile: profile(models.GenderMale), At: fiftyYears})
	require.NoError(t, err)

	assert.InDelta(t, 41.835, res.Value, 0.01)
	assert.InDelta(t, 50.0, res.ChronologicalAge, 1e-9)
	require.NotNil(t, res.Delta)
	assert.InDelta(t, -8.165, *res.Delta, 0.01)
	assert.Equal(t, "Excellent - aging significantly slower than average", res.Interpretation)
	assert.Len(t, res.Contributing, 9)
	assert.Equal(t, 9, res.InputsAvailable)
}

func TestPhenoAgeInflammationRaisesAge(t *testing.T) {
	t.Parallel()

	base, err := Compute("phenoage", Input{Snapshot: healthyPanel(), Profile: profile(models.GenderMale), At: fiftyYears})
	require.NoError(t, err)

	inflamed := healthyPanel()
	inflamed["CRP"] = Reading{Value: 20}

	worse, err := Compute("phenoage", Input{Snapshot: inflamed, Profile: profile(models.GenderMale), At: fiftyYears})
	require.NoError(t, err)
	assert.Greater(t, worse.Value, base.Value)

	// Zero CRP is clamped rather than sent to log(0).
	zero := healthyPanel()
	zero["CRP"] = Reading{Value: 0}

	_, err = Compute("phenoage", Input{Snapshot: zero, Profile: profile(models.GenderMale), At: fiftyYears})
	require.NoError(t, err)
}

func TestPhenoAgeMissingOneInput(t *testing.T) {
	t.Parallel()

	snap := healthyPanel()
	delete(snap, "RDW")

	res, err := Compute("phenoage", Input{Snapshot: snap, Profile: profile(models.GenderMale), At: fiftyYears})
	assert.Zero(t, res.Value)

	ide := requireInsufficient(t, err)
	assert.Equal(t, []string{"RDW"}, ide.Missing)
	assert.False(t, ide.NeedsAge)
}

func TestPhenoAgeNeedsAge(t *testing.T) {
	t.Parallel()

	_, err := Compute("phenoage", Input{Snapshot: healthyPanel(), Profile: &models.Profile{}, At: fiftyYears})
	ide := requireInsufficient(t, err)
	assert.True(t, ide.NeedsAge)
	assert.Empty(t, ide.Missing)
}

func TestSimpleBioAge(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		"TC":  {Value: 180}, // 0
		"HDL": {Value: 45},  // 5
		"GLU": {Value: 110}, // 7
		"CRP": {Value: 4},   // 10
	}

	res, err := Compute("simple_bioage", Input{Snapshot: snap, Profile: profile(models.GenderFemale), At: fiftyYears})
	require.NoError(t, err)

	// mean score 5.5 -> delta +0.5
	require.NotNil(t, res.Delta)
	assert.InDelta(t, 0.5, *res.Delta, 1e-9)
	assert.InDelta(t, 50.5, res.Value, 1e-9)
	assert.Equal(t, 4, res.InputsAvailable)
	assert.Equal(t, 10, res.InputsTotal)
	assert.Equal(t, []string{"CRP", "GLU", "HDL", "TC"}, res.Contributing)
	assert.Equal(t, "Average - matches chronological age", res.Interpretation)
}

func TestSimpleBioAgeBelowMinimum(t *testing.T) {
	t.Parallel()

	snap := Snapshot{"TC": {Value: 180}, "HDL": {Value: 60}}

	_, err := Compute("simple_bioage", Input{Snapshot: snap, Profile: profile(models.GenderMale), At: fiftyYears})
	ide := requireInsufficient(t, err)
	assert.Len(t, ide.Missing, 8)
	assert.NotContains(t, ide.Missing, "TC")
}

func TestComputeAll(t *testing.T) {
	t.Parallel()

	snap := healthyPanel()
	snap["TC"] = Reading{Value: 180}
	snap["HDL"] = Reading{Value: 60}

	s := ComputeAll(Input{Snapshot: snap, Profile: profile(models.GenderMale), At: fiftyYears})
	require.Len(t, s.Results, 2)
	require.NotNil(t, s.AverageDelta)

	want := (*s.Results["phenoage"].Delta + *s.Results["simple_bioage"].Delta) / 2
	assert.InDelta(t, want, *s.AverageDelta, 1e-9)
	assert.NotEmpty(t, s.Interpretation)

	// Only one algorithm available: no average.
	delete(snap, "WBC")

	s = ComputeAll(Input{Snapshot: snap, Profile: profile(models.GenderMale), At: fiftyYears})
	assert.Len(t, s.Results, 1)
	assert.Contains(t, s.Unavailable, "phenoage")
	assert.Nil(t, s.AverageDelta)
}

func TestComposites(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		"TC":     {Value: 200},
		"HDL":    {Value: 50},
		"TG":     {Value: 150},
		"CREAT":  {Value: 0.9},
		"WEIGHT": {Value: 81},
		"HEIGHT": {Value: 180},
	}
	in := Input{Snapshot: snap, Profile: profile(models.GenderMale), At: fiftyYears}

	tests := []struct {
		name string
		want float64
	}{
		{"non_hdl", 150},
		{"tg_hdl", 3},
		{"atherogenic_coefficient", 3},
		{"egfr_ckd_epi_2021", 104.049},
		{"bmi", 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := Compute(tt.name, in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, res.Value, 0.01)
		})
	}
}

func TestEGFRNeedsSex(t *testing.T) {
	t.Parallel()

	birth := dob
	in := Input{
		Snapshot: Snapshot{"CREAT": {Value: 0.7}},
		Profile:  &models.Profile{DateOfBirth: &birth},
		At:       fiftyYears,
	}

	_, err := Compute("egfr_ckd_epi_2021", in)
	ide := requireInsufficient(t, err)
	assert.True(t, ide.NeedsSex)

	in.Profile = profile(models.GenderFemale)
	res, err := Compute("egfr_ckd_epi_2021", in)
	require.NoError(t, err)
	assert.InDelta(t, 105.298, res.Value, 0.01)
}

func TestCompositeDomainErrors(t *testing.T) {
	t.Parallel()

	_, err := Compute("tg_hdl", Input{Snapshot: Snapshot{"TG": {Value: 100}, "HDL": {Value: 0}}})
	require.ErrorIs(t, err, ErrOutOfDomain)

	_, err = Compute("nope", Input{})
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestNewSnapshotKeepsLatest(t *testing.T) {
	t.Parallel()

	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	snap := NewSnapshot([]models.NormalizedMeasurement{
		{BiomarkerCode: "GLU", Value: 90, Day: d2},
		{BiomarkerCode: "GLU", Value: 80, Day: d1},
		{BiomarkerCode: "HDL", Value: 50, Day: d1},
	})

	assert.InDelta(t, 90.0, snap["GLU"].Value, 1e-9)
	assert.Len(t, snap, 2)
}

func TestInterpretGenotype(t *testing.T) {
	t.Parallel()

	upload := uuid.New()

	v, ok := Interpret("u1", upload, models.GenotypeCall{RSID: "rs429358", Genotype: "CT", Vendor: "23andMe"})
	require.True(t, ok)
	require.NotNil(t, v.Rule, "allele order must not matter")
	assert.Equal(t, "APOE", v.Gene)
	assert.InDelta(t, 0.5, v.Rule.RiskScore, 1e-9)
	assert.Equal(t, models.SignificanceUncertain, v.Rule.Significance)
	assert.Equal(t, upload, v.UploadID)

	v, ok = Interpret("u1", upload, models.GenotypeCall{RSID: "rs1801133", Genotype: "AG"})
	require.True(t, ok)
	assert.Nil(t, v.Rule, "unlisted genotype yields no risk entry")

	_, ok = Interpret("u1", upload, models.GenotypeCall{RSID: "rs999", Genotype: "AA"})
	assert.False(t, ok)
	assert.False(t, KnownSNP("rs999"))
	assert.True(t, KnownSNP("rs671"))
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	var variants []models.GeneticVariant

	for _, call := range []models.GenotypeCall{
		{RSID: "rs671", Genotype: "AA"},
		{RSID: "rs4680", Genotype: "GA"},
		{RSID: "rs762551", Genotype: "AA"},
		{RSID: "rs1801133", Genotype: "AG"},
	} {
		v, ok := Interpret("u1", uuid.Nil, call)
		require.True(t, ok)
		variants = append(variants, v)
	}

	s := Summarize(variants)
	assert.Equal(t, 4, s.Total)
	require.Len(t, s.HighRisk, 1)
	assert.Equal(t, "ALDH2", s.HighRisk[0].Gene)
	require.Len(t, s.ModerateRisk, 1)
	assert.Equal(t, "COMT", s.ModerateRisk[0].Gene)
	assert.Equal(t, []string{"ALDH2", "COMT", "CYP1A2", "MTHFR"}, s.Genes)
}
