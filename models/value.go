/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	errEmptyValue     = errors.New("empty value")
	errQualifiedValue = errors.New("value carries a comparison qualifier")
	errNotFinite      = errors.New("value is not a finite number")
)

// ParseValue parses a numeric reading that may use a comma decimal separator
// or thousands grouping. Qualified values such as "<0.5" are rejected.
func ParseValue(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, " ", "")

	if s == "" {
		return 0, errEmptyValue
	}

	if strings.IndexAny(s, "<>≤≥") == 0 {
		return 0, errQualifiedValue
	}

	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		// Whichever separator comes last is the decimal point.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ",") == 1:
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ",") > 1:
		s = strings.ReplaceAll(s, ",", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse value %q: %w", raw, err)
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}

	return v, nil
}

// dateLayouts lists the sample date formats accepted from source documents,
// most specific first.
var dateLayouts = []struct {
	layout   string
	dateOnly bool
}{
	{time.RFC3339Nano, false},
	{"2006-01-02 15:04:05 -0700", false},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02 15:04", false},
	{time.DateOnly, true},
	{"2006/01/02", true},
	{"02.01.2006 15:04", false},
	{"02.01.2006", true},
	{"02/01/2006", true},
	{"02-01-2006", true},
	{"2.1.2006", true},
	{"20060102", true},
}

// ParseTimestamp parses the date formats found in lab reports and exports.
// Ambiguous slash dates are read day-first. The source offset is kept so the
// calendar day is the one the source wrote. The boolean result reports
// whether the source carried only a calendar date.
func ParseTimestamp(raw string) (time.Time, bool, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false, errEmptyValue
	}

	for _, l := range dateLayouts {
		if t, err := time.Parse(l.layout, s); err == nil {
			return t, l.dateOnly, nil
		}
	}

	return time.Time{}, false, fmt.Errorf("failed to parse timestamp %q", raw)
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")

	return strings.ReplaceAll(s, " ", "_")
}
