/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package metrics

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/humaidq/labwave/models"
)

//go:embed data/*.json
var dataFS embed.FS

// Band maps a delta below a threshold to a label. The last band has no
// threshold and catches everything else.
type Band struct {
	Below *float64 `json:"below"`
	Label string   `json:"label"`
}

type phenoInput struct {
	Code        string  `json:"code"`
	Coefficient float64 `json:"coefficient"`
	// Scale converts the catalog's canonical unit to the formula unit.
	Scale float64 `json:"scale"`
	Log   bool    `json:"log"`
	Floor float64 `json:"floor"`
}

type phenoTable struct {
	Name           string       `json:"name"`
	Intercept      float64      `json:"intercept"`
	AgeCoefficient float64      `json:"age_coefficient"`
	Gamma          float64      `json:"gamma"`
	MortalityScale float64      `json:"mortality_scale"`
	AgeOffset      float64      `json:"age_offset"`
	AgeLogScale    float64      `json:"age_log_scale"`
	AgeDivisor     float64      `json:"age_divisor"`
	Inputs         []phenoInput `json:"inputs"`
	Bands          []Band       `json:"bands"`
}

type scoreBand struct {
	Below *float64 `json:"below"`
	Above *float64 `json:"above"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
	Score float64  `json:"score"`
}

func (b scoreBand) matches(v float64) bool {
	switch {
	case b.Below != nil && v >= *b.Below:
		return false
	case b.Above != nil && v <= *b.Above:
		return false
	case b.Min != nil && v < *b.Min:
		return false
	case b.Max != nil && v > *b.Max:
		return false
	}

	return true
}

type scoreRule struct {
	Code      string      `json:"code"`
	Bands     []scoreBand `json:"bands"`
	Otherwise float64     `json:"otherwise"`
}

func (r scoreRule) score(v float64) float64 {
	for _, b := range r.Bands {
		if b.matches(v) {
			return b.Score
		}
	}

	return r.Otherwise
}

type simpleTable struct {
	Name          string      `json:"name"`
	MinimumInputs int         `json:"minimum_inputs"`
	NeutralScore  float64     `json:"neutral_score"`
	YearsPerPoint float64     `json:"years_per_point"`
	Rules         []scoreRule `json:"rules"`
	Bands         []Band      `json:"bands"`
}

// SNPRule is one entry of the genotype interpretation table
type SNPRule struct {
	RSID       string            `json:"rsid"`
	Gene       string            `json:"gene"`
	RiskAllele string            `json:"risk_allele"`
	Condition  string            `json:"condition"`
	Genotypes  map[string]string `json:"genotypes"`

	// keyed by sorted allele pair
	rules map[string]models.GenotypeRule
}

type tableSet struct {
	pheno  phenoTable
	simple simpleTable
	snps   map[string]*SNPRule
}

var tables = mustLoadTables()

func mustLoadTables() *tableSet {
	t, err := loadTables()
	if err != nil {
		panic(err)
	}

	return t
}

func loadTables() (*tableSet, error) {
	t := &tableSet{snps: make(map[string]*SNPRule)}

	if err := readTable("data/phenoage.json", &t.pheno); err != nil {
		return nil, err
	}

	if err := readTable("data/simple_bioage.json", &t.simple); err != nil {
		return nil, err
	}

	var snps []*SNPRule
	if err := readTable("data/snps.json", &snps); err != nil {
		return nil, err
	}

	for _, s := range snps {
		s.rules = make(map[string]models.GenotypeRule, len(s.Genotypes))

		for genotype, text := range s.Genotypes {
			risk := strings.Count(genotype, s.RiskAllele)
			s.rules[sortAlleles(genotype)] = models.GenotypeRule{
				RiskScore:      float64(risk) / 2,
				Significance:   significanceFor(risk),
				Interpretation: text,
			}
		}

		t.snps[s.RSID] = s
	}

	if len(t.pheno.Inputs) == 0 || len(t.simple.Rules) == 0 {
		return nil, fmt.Errorf("%w: empty coefficient table", ErrInvalidTable)
	}

	return t, nil
}

func readTable(name string, v any) error {
	raw, err := dataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidTable, name, err)
	}

	return nil
}

func significanceFor(riskAlleles int) models.SignificanceLevel {
	switch riskAlleles {
	case 0:
		return models.SignificanceBenign
	case 1:
		return models.SignificanceUncertain
	default:
		return models.SignificanceLikelyPathogenic
	}
}

// sortAlleles makes genotype matching independent of allele order.
func sortAlleles(genotype string) string {
	r := []rune(strings.ToUpper(genotype))
	sort.Slice(r, func(i, j int) bool { return r[i] < r[j] })

	return string(r)
}

func interpret(bands []Band, delta float64) string {
	for _, b := range bands {
		if b.Below == nil || delta < *b.Below {
			return b.Label
		}
	}

	return ""
}
