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

type nonHDL struct{}

func (nonHDL) Name() string       { return "non_hdl" }
func (nonHDL) Requires() []string { return []string{"TC", "HDL"} }

func (n nonHDL) Compute(in Input) (models.MetricResult, error) {
	v, missing := in.gather(n.Requires())
	if len(missing) > 0 {
		return models.MetricResult{}, &models.InsufficientDataError{Algorithm: n.Name(), Missing: missing}
	}

	return result(n.Name(), v["TC"]-v["HDL"], "mg/dL", n.Requires(), in.At), nil
}

type ratio struct {
	name        string
	numerator   string
	denominator string
}

func (r ratio) Name() string       { return r.name }
func (r ratio) Requires() []string { return []string{r.numerator, r.denominator} }

func (r ratio) Compute(in Input) (models.MetricResult, error) {
	v, missing := in.gather(r.Requires())
	if len(missing) > 0 {
		return models.MetricResult{}, &models.InsufficientDataError{Algorithm: r.name, Missing: missing}
	}

	if v[r.denominator] <= 0 {
		return models.MetricResult{}, fmt.Errorf("%w: %s is not positive", ErrOutOfDomain, r.denominator)
	}

	return result(r.name, v[r.numerator]/v[r.denominator], "ratio", r.Requires(), in.At), nil
}

// atherogenic is (TC - HDL) / HDL.
type atherogenic struct{}

func (atherogenic) Name() string       { return "atherogenic_coefficient" }
func (atherogenic) Requires() []string { return []string{"TC", "HDL"} }

func (a atherogenic) Compute(in Input) (models.MetricResult, error) {
	v, missing := in.gather(a.Requires())
	if len(missing) > 0 {
		return models.MetricResult{}, &models.InsufficientDataError{Algorithm: a.Name(), Missing: missing}
	}

	if v["HDL"] <= 0 {
		return models.MetricResult{}, fmt.Errorf("%w: HDL is not positive", ErrOutOfDomain)
	}

	return result(a.Name(), (v["TC"]-v["HDL"])/v["HDL"], "ratio", a.Requires(), in.At), nil
}

// egfr is the race-free CKD-EPI 2021 creatinine equation.
type egfr struct{}

func (egfr) Name() string       { return "egfr_ckd_epi_2021" }
func (egfr) Requires() []string { return []string{"CREAT"} }

func (e egfr) Compute(in Input) (models.MetricResult, error) {
	v, missing := in.gather(e.Requires())
	age, ageKnown := in.age()
	gender, sexKnown := in.Profile.KnownGender()

	if len(missing) > 0 || !ageKnown || !sexKnown {
		return models.MetricResult{}, &models.InsufficientDataError{
			Algorithm: e.Name(),
			Missing:   missing,
			NeedsAge:  !ageKnown,
			NeedsSex:  !sexKnown,
		}
	}

	scr := v["CREAT"]
	if scr <= 0 {
		return models.MetricResult{}, fmt.Errorf("%w: creatinine is not positive", ErrOutOfDomain)
	}

	kappa, alpha, sexFactor := 0.9, -0.302, 1.0
	if gender == models.GenderFemale {
		kappa, alpha, sexFactor = 0.7, -0.241, 1.012
	}

	scaled := scr / kappa
	gfr := 142 * math.Pow(math.Min(scaled, 1), alpha) * math.Pow(math.Max(scaled, 1), -1.200) *
		math.Pow(0.9938, age) * sexFactor

	res := result(e.Name(), gfr, "mL/min/1.73m2", e.Requires(), in.At)
	res.ChronologicalAge = age

	return res, nil
}

type bmi struct{}

func (bmi) Name() string       { return "bmi" }
func (bmi) Requires() []string { return []string{"WEIGHT", "HEIGHT"} }

func (b bmi) Compute(in Input) (models.MetricResult, error) {
	v, missing := in.gather(b.Requires())
	if len(missing) > 0 {
		return models.MetricResult{}, &models.InsufficientDataError{Algorithm: b.Name(), Missing: missing}
	}

	meters := v["HEIGHT"] / 100
	if meters <= 0 {
		return models.MetricResult{}, fmt.Errorf("%w: height is not positive", ErrOutOfDomain)
	}

	return result(b.Name(), v["WEIGHT"]/(meters*meters), "kg/m2", b.Requires(), in.At), nil
}
