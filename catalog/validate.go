/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package catalog

import (
	"fmt"
	"sort"
)

// Validate checks the definitions for duplicate codes, synonym collisions,
// bad conversions and inverted ranges.
func (c *Catalog) Validate() error {
	if err := c.tuning.Validate(); err != nil {
		return err
	}

	codes := make(map[string]bool, len(c.biomarkers))
	owners := make(map[string]string)

	for _, b := range c.biomarkers {
		if codes[b.Code] {
			return fmt.Errorf("%w: %s", ErrDuplicateCode, b.Code)
		}

		codes[b.Code] = true

		if b.Unit == "" {
			return fmt.Errorf("%w: %s", ErrMissingUnit, b.Code)
		}

		for _, key := range b.Keys() {
			if owner, ok := owners[key]; ok && owner != b.Code {
				return fmt.Errorf("%w: %q used by %s and %s", ErrDuplicateSynonym, key, owner, b.Code)
			}

			owners[key] = b.Code
		}

		for _, u := range b.Units {
			if u.Factor == 0 {
				return fmt.Errorf("%w: %s %s", ErrInvalidConversion, b.Code, u.Symbol)
			}
		}

		for _, r := range b.Ranges {
			if r.Low != nil && r.High != nil && *r.Low > *r.High {
				return fmt.Errorf("%w: %s %s/%s", ErrInvalidRange, b.Code, r.AgeRange, r.Gender)
			}
		}
	}

	return nil
}

// Keys returns the normalized exact-match keys for a biomarker: its code,
// every display name and every synonym.
func (b *Biomarker) Keys() []string {
	seen := make(map[string]bool)
	keys := make([]string, 0, len(b.Synonyms)+len(b.Names)+1)

	add := func(s string) {
		k := NormalizeName(s)
		if k == "" || seen[k] {
			return
		}

		seen[k] = true
		keys = append(keys, k)
	}

	add(b.Code)

	locales := make([]string, 0, len(b.Names))
	for locale := range b.Names {
		locales = append(locales, locale)
	}

	sort.Strings(locales)

	for _, locale := range locales {
		add(b.Names[locale])
	}

	for _, s := range b.Synonyms {
		add(s)
	}

	return keys
}
