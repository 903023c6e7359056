// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humaidq/labwave/detect"
	"github.com/humaidq/labwave/models"
)

const sample23andMe = "# This data file generated by 23andMe\n" +
	"# rsid\tchromosome\tposition\tgenotype\n" +
	"rs1801133\t1\t11856378\tAG\n" +
	"rs429358\t19\t45411941\tTC\n" +
	"rs7412\t19\t45412079\t--\n" +
	"i3000001\t1\t100\tAA\n" +
	"rsbad\t1\t1\tAA\n" +
	"rs4680\t22\t19951271\n"

func TestParse23andMe(t *testing.T) {
	t.Parallel()

	res := parseVariant(t, detect.Variant23andMe, sample23andMe)

	require.Len(t, res.Genotypes, 3)
	assert.Equal(t, models.GenotypeCall{
		RSID:       "rs1801133",
		Chromosome: "1",
		Position:   11856378,
		Genotype:   "AG",
		Vendor:     "23andMe",
		Record:     "line 3",
	}, res.Genotypes[0])
	assert.Equal(t, "i3000001", res.Genotypes[2].RSID)

	assert.Empty(t, res.Readings)
	assert.Equal(t, 2, countKind(res.Diagnostics, models.RecordParseWarning))
	require.Equal(t, 1, countKind(res.Diagnostics, models.SkippedRecord))
}

func TestParseGeneticFilter(t *testing.T) {
	t.Parallel()

	keep := func(rsid string) bool { return rsid == "rs1801133" }

	res, err := Parse(detect.Detection{Variant: detect.Variant23andMe}, []byte(sample23andMe), Options{KeepRSID: keep})
	require.NoError(t, err)
	require.Len(t, res.Genotypes, 1)
	assert.Equal(t, "rs1801133", res.Genotypes[0].RSID)
}

func TestParseAncestryDNA(t *testing.T) {
	t.Parallel()

	data := "#AncestryDNA raw data download\n" +
		"rsid\tchromosome\tposition\tallele1\tallele2\n" +
		"rs3094315\t1\t752566\tA\tG\n" +
		"rs3131972\t1\t752721\t0\t0\n"

	res := parseVariant(t, detect.VariantAncestry, data)

	require.Len(t, res.Genotypes, 1)
	assert.Equal(t, "AG", res.Genotypes[0].Genotype)
	assert.Equal(t, "AncestryDNA", res.Genotypes[0].Vendor)
	assert.Equal(t, 1, countKind(res.Diagnostics, models.SkippedRecord))
}

func TestParseGeneticJSON(t *testing.T) {
	t.Parallel()

	data := `{"variants":[
		{"rsid":"rs1801133","genotype":"A;G","gene":"MTHFR","position":11856378,"chromosome":"1"},
		{"rsid":"rs7412","genotype":"--"},
		{"snp":"nope"},
		"junk"
	]}`

	res := parseVariant(t, detect.VariantGeneticJSON, data)

	require.Len(t, res.Genotypes, 1)

	got := res.Genotypes[0]
	assert.Equal(t, "AG", got.Genotype)
	assert.Equal(t, "MTHFR", got.Gene)
	assert.Equal(t, int64(11856378), got.Position)
	assert.Equal(t, "1", got.Chromosome)

	assert.Equal(t, 2, countKind(res.Diagnostics, models.RecordParseWarning))
	assert.Equal(t, 1, countKind(res.Diagnostics, models.SkippedRecord))
}

func TestParseGeneticJSONBadPosition(t *testing.T) {
	t.Parallel()

	data := `[
		{"rsid":"rs4680","genotype":"GA","position":"19951k271"},
		{"rsid":"rs671","genotype":"AG","position":112241766},
		{"rsid":"rs762551","genotype":"AA"}
	]`

	res := parseVariant(t, detect.VariantGeneticJSON, data)

	// A malformed position drops the call; a missing one is allowed.
	require.Len(t, res.Genotypes, 2)
	assert.Equal(t, "rs671", res.Genotypes[0].RSID)
	assert.Equal(t, int64(112241766), res.Genotypes[0].Position)
	assert.Equal(t, "rs762551", res.Genotypes[1].RSID)
	assert.Zero(t, res.Genotypes[1].Position)

	require.Equal(t, 1, countKind(res.Diagnostics, models.RecordParseWarning))
	assert.Contains(t, res.Diagnostics[0].Message, "invalid position")
}

func TestValidRSID(t *testing.T) {
	t.Parallel()

	assert.True(t, validRSID("rs123"))
	assert.True(t, validRSID("i5000"))
	assert.False(t, validRSID("rs"))
	assert.False(t, validRSID("rsx1"))
	assert.False(t, validRSID("123"))
}
