/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package catalog

import "fmt"

// Resolver and classifier constants. Fuzzy name matching is approximate, so
// the threshold and margin are kept here next to the synonyms they apply to
// and can be overridden from configuration.
const (
	// DefaultMatchThreshold is the minimum similarity for a fuzzy synonym match.
	DefaultMatchThreshold = 0.85
	// DefaultMatchMargin is the gap required between the best and the
	// runner-up candidate. Closer candidates make the match ambiguous.
	DefaultMatchMargin = 0.05
	// DefaultTolerance is the borderline band outside a reference range,
	// as a fraction of the range width.
	DefaultTolerance = 0.10
)

// Tuning groups the tunable matching and classification constants
type Tuning struct {
	Threshold float64
	Margin    float64
	Tolerance float64
}

// DefaultTuning returns the built-in constants.
func DefaultTuning() Tuning {
	return Tuning{
		Threshold: DefaultMatchThreshold,
		Margin:    DefaultMatchMargin,
		Tolerance: DefaultTolerance,
	}
}

// Validate rejects constants outside their meaningful range.
func (t Tuning) Validate() error {
	if t.Threshold <= 0 || t.Threshold > 1 {
		return fmt.Errorf("%w: threshold %v not in (0, 1]", ErrInvalidTuning, t.Threshold)
	}

	if t.Margin < 0 || t.Margin >= 1 {
		return fmt.Errorf("%w: margin %v not in [0, 1)", ErrInvalidTuning, t.Margin)
	}

	if t.Tolerance < 0 || t.Tolerance > 1 {
		return fmt.Errorf("%w: tolerance %v not in [0, 1]", ErrInvalidTuning, t.Tolerance)
	}

	return nil
}
