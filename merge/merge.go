/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package merge collapses measurements that share a (user, biomarker, day)
// key. Lab files outrank wearables, which outrank manual entries; within one
// source kind the most recently ingested value wins. Losers are discarded.
package merge

import (
	"sort"

	"github.com/google/uuid"

	"github.com/humaidq/labwave/models"
)

// Plan is the set of writes that brings stored rows in line with the merge
// rules. Existing rows never appear in Insert.
type Plan struct {
	// Insert holds incoming winners that must be written.
	Insert []models.NormalizedMeasurement
	// Supersede holds stored rows that lost to an incoming measurement.
	Supersede []models.NormalizedMeasurement
	// Discarded holds incoming measurements that lost.
	Discarded []models.NormalizedMeasurement
	// Unchanged holds incoming measurements identical to the stored winner.
	Unchanged []models.NormalizedMeasurement
}

// Outranks reports whether a should replace b under the merge rules.
func Outranks(a, b models.NormalizedMeasurement) bool {
	if ra, rb := a.Source.Rank(), b.Source.Rank(); ra != rb {
		return ra > rb
	}

	return !a.IngestedAt.Before(b.IngestedAt)
}

func key(m models.NormalizedMeasurement) string {
	return m.UserID + "|" + m.MergeKey()
}

// Merge plans the result of adding incoming to the existing rows of the
// same user and days. Incoming order matters only as the final tie-break:
// later entries win over earlier ones with equal rank and ingestion time.
func Merge(existing, incoming []models.NormalizedMeasurement) Plan {
	var plan Plan

	winners := make(map[string]models.NormalizedMeasurement)
	order := make([]string, 0, len(incoming))

	for _, m := range incoming {
		k := key(m)

		cur, ok := winners[k]
		if !ok {
			winners[k] = m
			order = append(order, k)

			continue
		}

		if Outranks(m, cur) {
			plan.Discarded = append(plan.Discarded, cur)
			winners[k] = m
		} else {
			plan.Discarded = append(plan.Discarded, m)
		}
	}

	stored := make(map[string][]models.NormalizedMeasurement)
	for _, m := range existing {
		stored[key(m)] = append(stored[key(m)], m)
	}

	for _, k := range order {
		m := winners[k]
		rows := stored[k]

		if len(rows) == 0 {
			plan.Insert = append(plan.Insert, m)
			continue
		}

		best := rows[0]
		for _, r := range rows[1:] {
			if Outranks(r, best) {
				best = r
			}
		}

		switch {
		case !Outranks(m, best):
			plan.Discarded = append(plan.Discarded, m)
			// Duplicate stored rows from before the key was enforced.
			plan.Supersede = append(plan.Supersede, others(rows, best)...)
		case equivalent(m, best):
			plan.Unchanged = append(plan.Unchanged, m)
			plan.Supersede = append(plan.Supersede, others(rows, best)...)
		default:
			plan.Insert = append(plan.Insert, m)
			plan.Supersede = append(plan.Supersede, rows...)
		}
	}

	sortByKey(plan.Insert)
	sortByKey(plan.Supersede)

	return plan
}

// Final applies a plan to the stored rows and returns the surviving set.
func Final(existing []models.NormalizedMeasurement, plan Plan) []models.NormalizedMeasurement {
	gone := make(map[uuid.UUID]bool, len(plan.Supersede))
	for _, m := range plan.Supersede {
		gone[m.ID] = true
	}

	out := make([]models.NormalizedMeasurement, 0, len(existing)+len(plan.Insert))

	for _, m := range existing {
		if !gone[m.ID] {
			out = append(out, m)
		}
	}

	out = append(out, plan.Insert...)
	sortByKey(out)

	return out
}

// equivalent is true when re-ingesting m would not change the stored row.
func equivalent(m, stored models.NormalizedMeasurement) bool {
	return m.Value == stored.Value && m.Source == stored.Source && m.Unit == stored.Unit
}

func others(rows []models.NormalizedMeasurement, keep models.NormalizedMeasurement) []models.NormalizedMeasurement {
	var out []models.NormalizedMeasurement

	for _, r := range rows {
		if r.ID != keep.ID {
			out = append(out, r)
		}
	}

	return out
}

func sortByKey(ms []models.NormalizedMeasurement) {
	sort.SliceStable(ms, func(i, j int) bool {
		return key(ms[i]) < key(ms[j])
	})
}
