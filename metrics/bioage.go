/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package metrics

import (
	"fmt"
	"math"

	"github.com/humaidq/labwave/models"
)

// phenoAge is the Levine 2018 phenotypic age over nine biomarkers.
type phenoAge struct{}

func (phenoAge) Name() string { return tables.pheno.Name }

func (phenoAge) Requires() []string {
	codes := make([]string, 0, len(tables.pheno.Inputs))
	for _, in := range tables.pheno.Inputs {
		codes = append(codes, in.Code)
	}

	return codes
}

func (p phenoAge) Compute(in Input) (models.MetricResult, error) {
	t := tables.pheno

	values, missing := in.gather(p.Requires())
	age, ageKnown := in.age()

	if len(missing) > 0 || !ageKnown {
		return models.MetricResult{}, &models.InsufficientDataError{Algorithm: t.Name, Missing: missing, NeedsAge: !ageKnown}
	}

	xb := t.Intercept + t.AgeCoefficient*age

	for _, input := range t.Inputs {
		v := values[input.Code] * input.Scale
		if input.Log {
			v = math.Log(math.Max(v, input.Floor))
		}

		xb += input.Coefficient * v
	}

	mortality := 1 - math.Exp(-t.MortalityScale*math.Exp(xb)/t.Gamma)
	pheno := t.AgeOffset + math.Log(t.AgeLogScale*math.Log(1-mortality))/t.AgeDivisor

	if math.IsNaN(pheno) || math.IsInf(pheno, 0) {
		return models.MetricResult{}, fmt.Errorf("%w: %s mortality score %.6f", ErrOutOfDomain, t.Name, mortality)
	}

	delta := pheno - age

	res := result(t.Name, pheno, "years", p.Requires(), in.At)
	res.ChronologicalAge = age
	res.Delta = &delta
	res.Interpretation = interpret(t.Bands, delta)
	res.InputsAvailable = len(t.Inputs)
	res.InputsTotal = len(t.Inputs)

	return res, nil
}

// simpleBioAge scores a broad panel of common biomarkers and maps the mean
// score to an age delta. Inputs are optional above a minimum count.
type simpleBioAge struct{}

func (simpleBioAge) Name() string { return tables.simple.Name }

func (simpleBioAge) Requires() []string {
	codes := make([]string, 0, len(tables.simple.Rules))
	for _, r := range tables.simple.Rules {
		codes = append(codes, r.Code)
	}

	return codes
}

func (s simpleBioAge) Compute(in Input) (models.MetricResult, error) {
	t := tables.simple

	values, missing := in.gather(s.Requires())
	age, ageKnown := in.age()

	if len(values) < t.MinimumInputs || !ageKnown {
		e := &models.InsufficientDataError{Algorithm: t.Name, NeedsAge: !ageKnown}
		if len(values) < t.MinimumInputs {
			e.Missing = missing
		}

		return models.MetricResult{}, e
	}

	total := 0.0
	used := make([]string, 0, len(values))

	for _, rule := range t.Rules {
		v, ok := values[rule.Code]
		if !ok {
			continue
		}

		total += rule.score(v)
		used = append(used, rule.Code)
	}

	avg := total / float64(len(used))
	delta := (avg - t.NeutralScore) * t.YearsPerPoint

	res := result(t.Name, age+delta, "years", used, in.At)
	res.ChronologicalAge = age
	res.Delta = &delta
	res.Interpretation = interpret(t.Bands, delta)
	res.InputsAvailable = len(used)
	res.InputsTotal = len(t.Rules)

	return res, nil
}
