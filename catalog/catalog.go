/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package catalog holds the static biomarker definitions: canonical units,
// synonyms, unit conversions and age/sex-aware reference ranges. The catalog
// is built once and is read-only afterwards.
package catalog

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/humaidq/labwave/models"
)

// Category represents the grouping a biomarker is displayed under
type Category string

// Category values represent supported biomarker buckets.
const (
	CategoryBloodCounts      Category = "Blood Counts"
	CategoryLipidPanel       Category = "Lipid Panel"
	CategoryMetabolic        Category = "Metabolic"
	CategoryLiverFunction    Category = "Liver Function"
	CategoryVitaminsMinerals Category = "Vitamins & Minerals"
	CategoryEndocrineOther   Category = "Endocrine & Other"
	CategoryVitals           Category = "Vitals"
	CategoryBodyComposition  Category = "Body Composition"
	CategoryActivity         Category = "Activity"
)

// Unit is an accepted non-canonical unit and its conversion to the canonical
// unit: canonical = value*Factor + Offset.
type Unit struct {
	Symbol string
	Factor float64
	Offset float64
}

// RangeRule is one reference interval. Nil bounds are open.
type RangeRule struct {
	AgeRange models.AgeRange
	Gender   models.Gender
	Low      *float64
	High     *float64
}

// Range is the evaluated reference interval for one profile.
type Range struct {
	Low  *float64
	High *float64
}

// Biomarker is a canonical catalog entry
type Biomarker struct {
	Code     string
	Names    map[string]string
	Category Category
	Unit     string
	Synonyms []string
	Units    []Unit
	Ranges   []RangeRule
}

// Name returns the English display name.
func (b *Biomarker) Name() string {
	if n, ok := b.Names["en"]; ok {
		return n
	}

	return b.Code
}

// Convert converts a value in the given unit to the canonical unit. An empty
// unit is taken to be canonical. The boolean result is false when the unit is
// not accepted for this biomarker.
func (b *Biomarker) Convert(value float64, unit string) (float64, bool) {
	key := NormalizeUnit(unit)
	if key == "" || key == NormalizeUnit(b.Unit) {
		return value, true
	}

	for _, u := range b.Units {
		if NormalizeUnit(u.Symbol) == key {
			return value*u.Factor + u.Offset, true
		}
	}

	return 0, false
}

// RangeFor evaluates the reference-range rule for a profile on a date. The
// boolean result is false when there is no rule or the rule needs an age or
// sex that the profile does not carry.
func (b *Biomarker) RangeFor(profile *models.Profile, at time.Time) (Range, bool) {
	if len(b.Ranges) == 0 {
		return Range{}, false
	}

	age := models.AgeAny

	if b.needsAge() {
		ar, ok := profile.GetAgeRange(at)
		if !ok {
			return Range{}, false
		}

		age = ar
	}

	candidates := b.rulesFor(age)
	if len(candidates) == 0 {
		candidates = b.rulesFor(models.AgeAny)
	}

	gender, known := profile.KnownGender()

	var unisex *RangeRule

	for i := range candidates {
		rule := candidates[i]

		switch {
		case known && rule.Gender == gender:
			return Range{Low: rule.Low, High: rule.High}, true
		case rule.Gender == models.GenderUnisex:
			unisex = &candidates[i]
		}
	}

	if unisex == nil {
		return Range{}, false
	}

	return Range{Low: unisex.Low, High: unisex.High}, true
}

func (b *Biomarker) needsAge() bool {
	for _, r := range b.Ranges {
		if r.AgeRange != models.AgeAny {
			return true
		}
	}

	return false
}

func (b *Biomarker) rulesFor(age models.AgeRange) []RangeRule {
	var out []RangeRule

	for _, r := range b.Ranges {
		if r.AgeRange == age {
			out = append(out, r)
		}
	}

	return out
}

// Catalog is the immutable, process-wide set of biomarkers
type Catalog struct {
	biomarkers []*Biomarker
	byCode     map[string]*Biomarker
	tuning     Tuning
}

// New builds and validates a catalog from definitions.
func New(defs []Biomarker, tuning Tuning) (*Catalog, error) {
	c := &Catalog{
		biomarkers: make([]*Biomarker, 0, len(defs)),
		byCode:     make(map[string]*Biomarker, len(defs)),
		tuning:     tuning,
	}

	for i := range defs {
		b := defs[i]
		c.biomarkers = append(c.biomarkers, &b)
		c.byCode[b.Code] = &b
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in catalog. It panics if the static definitions
// are inconsistent, which the package tests guard against.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := New(Definitions(), DefaultTuning())
		if err != nil {
			panic(fmt.Sprintf("invalid built-in catalog: %v", err))
		}

		defaultCatalog = c
	})

	return defaultCatalog
}

// WithTuning returns a catalog sharing the same biomarkers with different
// resolver and classifier constants.
func (c *Catalog) WithTuning(t Tuning) (*Catalog, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	return &Catalog{biomarkers: c.biomarkers, byCode: c.byCode, tuning: t}, nil
}

// Lookup returns the biomarker with the given code.
func (c *Catalog) Lookup(code string) (*Biomarker, bool) {
	b, ok := c.byCode[code]
	return b, ok
}

// MustLookup returns the biomarker with the given code or an error wrapping
// models.ErrUnknownBiomarker.
func (c *Catalog) MustLookup(code string) (*Biomarker, error) {
	b, ok := c.byCode[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownBiomarker, code)
	}

	return b, nil
}

// All returns every biomarker ordered by category then code.
func (c *Catalog) All() []*Biomarker {
	out := make([]*Biomarker, len(c.biomarkers))
	copy(out, c.biomarkers)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}

		return out[i].Code < out[j].Code
	})

	return out
}

// Tuning returns the resolver and classifier constants.
func (c *Catalog) Tuning() Tuning {
	return c.tuning
}

// Len returns the number of biomarkers.
func (c *Catalog) Len() int {
	return len(c.biomarkers)
}
