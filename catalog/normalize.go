/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName lowercases a biomarker name, strips diacritics and turns
// punctuation into single spaces. Synonym keys and raw names go through the
// same function.
func NormalizeName(s string) string {
	// Chained transformers keep state, so one is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}

	out = strings.ToLower(out)

	var b strings.Builder

	pendingSpace := false

	for _, r := range out {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}

			b.WriteRune(r)

			pendingSpace = false

			continue
		}

		pendingSpace = true
	}

	return b.String()
}

// unitAliases maps spellings seen in lab reports and exports onto one key.
// Keys are already lowercased and stripped of spaces.
var unitAliases = map[string]string{
	// Cyrillic lab units
	"ммоль/л":   "mmol/l",
	"мкмоль/л":  "umol/l",
	"нмоль/л":   "nmol/l",
	"пмоль/л":   "pmol/l",
	"г/л":       "g/l",
	"г/дл":      "g/dl",
	"мг/дл":     "mg/dl",
	"мг/л":      "mg/l",
	"нг/мл":     "ng/ml",
	"пг/мл":     "pg/ml",
	"мкг/л":     "ug/l",
	"ед/л":      "u/l",
	"мме/л":     "uiu/ml",
	"мкме/мл":   "uiu/ml",
	"мм/ч":      "mm/h",
	"фл":        "fl",
	"пг":        "pg",
	"кг":        "kg",
	"см":        "cm",
	"уд/мин":    "bpm",
	"10^9/л":    "10^3/ul",
	"10^12/л":   "10^6/ul",
	"10*9/л":    "10^3/ul",
	"10*12/л":   "10^6/ul",
	"мм.рт.ст.": "mmhg",
	"ммрт.ст.":  "mmhg",
	"ммртст":    "mmhg",

	// Enzyme activity
	"iu/l":  "u/l",
	"ui/l":  "u/l",
	"units": "u/l",

	// Cell counts
	"10^9/l":         "10^3/ul",
	"10*9/l":         "10^3/ul",
	"x10^9/l":        "10^3/ul",
	"x10e9/l":        "10^3/ul",
	"10*3/ul":        "10^3/ul",
	"x10^3/ul":       "10^3/ul",
	"x10³/ul":        "10^3/ul",
	"×10³/ul":        "10^3/ul",
	"10³/ul":         "10^3/ul",
	"k/ul":           "10^3/ul",
	"thou/ul":        "10^3/ul",
	"10^12/l":        "10^6/ul",
	"10*12/l":        "10^6/ul",
	"x10^12/l":       "10^6/ul",
	"x10e12/l":       "10^6/ul",
	"10*6/ul":        "10^6/ul",
	"x10^6/ul":       "10^6/ul",
	"x10⁶/ul":        "10^6/ul",
	"×10⁶/ul":        "10^6/ul",
	"10⁶/ul":         "10^6/ul",
	"m/ul":           "10^6/ul",
	"mill/ul":        "10^6/ul",
	"miu/l":          "uiu/ml",
	"mu/l":           "uiu/ml",
	"ml/min/1.73m^2": "ml/min/1.73m2",
	"ml/min/1.73m²":  "ml/min/1.73m2",

	// Vitals and wearables
	"count/min":   "bpm",
	"beats/min":   "bpm",
	"/min":        "bpm",
	"breaths/min": "rpm",
	"brpm":        "rpm",
	"°c":          "degc",
	"ºc":          "degc",
	"c":           "degc",
	"°f":          "degf",
	"ºf":          "degf",
	"f":           "degf",
	"mm[hg]":      "mmhg",
	"kg/m²":       "kg/m2",
	"kg/m^2":      "kg/m2",
	"cal":         "kcal",
	"count":       "steps",
}

// NormalizeUnit returns a comparison key for a unit string.
func NormalizeUnit(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "")
	// Micro sign and Greek mu.
	s = strings.ReplaceAll(s, "µ", "u")
	s = strings.ReplaceAll(s, "μ", "u")

	if s == "" {
		return ""
	}

	if alias, ok := unitAliases[s]; ok {
		return alias
	}

	if strings.HasPrefix(s, "mc") && len(s) > 2 && s[2] != 'h' {
		// mcg/L, mcmol/L
		s = "u" + s[2:]
	}

	return s
}
