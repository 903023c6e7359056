/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package resolver maps parser output onto catalog biomarkers.
package resolver

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/humaidq/labwave/catalog"
	"github.com/humaidq/labwave/models"
)

const (
	defaultCacheSize = 4096
	maxSuggestions   = 3
	// Candidates scoring below this are not worth offering as suggestions.
	suggestionFloor = 0.5
	markerLen       = 2
)

// Resolved is a reading matched to a biomarker and converted to its
// canonical unit.
type Resolved struct {
	Biomarker *catalog.Biomarker
	Value     float64
	Score     float64
}

// verdict is the memoized outcome of matching one normalized name.
type verdict struct {
	code        string
	score       float64
	reason      models.UnresolvedReason
	suggestions []models.Suggestion
}

type entry struct {
	key    string
	tokens map[string]bool
	b      *catalog.Biomarker
}

// Resolver matches raw names against the catalog. It is safe for concurrent
// use; the catalog is never modified.
type Resolver struct {
	catalog *catalog.Catalog
	tuning  catalog.Tuning
	exact   map[string]*catalog.Biomarker
	entries []entry
	memo    *lru.Cache[string, verdict]
}

// New builds the lookup indexes for a catalog.
func New(c *catalog.Catalog, cacheSize int) (*Resolver, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}

	memo, err := lru.New[string, verdict](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver cache: %w", err)
	}

	r := &Resolver{
		catalog: c,
		tuning:  c.Tuning(),
		exact:   make(map[string]*catalog.Biomarker),
		memo:    memo,
	}

	for _, b := range c.All() {
		for _, key := range b.Keys() {
			r.exact[key] = b
			r.entries = append(r.entries, entry{key: key, tokens: tokenSet(key), b: b})
		}
	}

	return r, nil
}

// Catalog returns the catalog the resolver was built from.
func (r *Resolver) Catalog() *catalog.Catalog {
	return r.catalog
}

// Resolve matches a raw reading to a biomarker and converts its value. The
// error is a models.Unresolved when the reading needs manual confirmation.
func (r *Resolver) Resolve(reading models.RawReading) (Resolved, error) {
	v := r.match(reading.Name)
	if v.code == "" {
		return Resolved{}, unresolved(reading, v.reason, v.suggestions)
	}

	b, _ := r.catalog.Lookup(v.code)

	return r.convert(reading, b, v.score)
}

// ResolveAs converts a reading for a biomarker the user picked by hand.
func (r *Resolver) ResolveAs(reading models.RawReading, code string) (Resolved, error) {
	b, err := r.catalog.MustLookup(code)
	if err != nil {
		return Resolved{}, err
	}

	return r.convert(reading, b, 1)
}

// Match returns the biomarker a name resolves to, if any.
func (r *Resolver) Match(name string) (*catalog.Biomarker, bool) {
	v := r.match(name)
	if v.code == "" {
		return nil, false
	}

	return r.catalog.Lookup(v.code)
}

// Suggest lists the biomarkers a name may refer to, best first. A name that
// resolves on its own yields just that biomarker.
func (r *Resolver) Suggest(name string) []models.Suggestion {
	v := r.match(name)
	if v.code == "" {
		return v.suggestions
	}

	b, _ := r.catalog.Lookup(v.code)

	return []models.Suggestion{suggest(b, v.score)}
}

func (r *Resolver) convert(reading models.RawReading, b *catalog.Biomarker, score float64) (Resolved, error) {
	value, err := models.ParseValue(reading.Value)
	if err != nil {
		return Resolved{}, unresolved(reading, models.ReasonInvalidValue, []models.Suggestion{suggest(b, score)})
	}

	canonical, ok := b.Convert(value, reading.Unit)
	if !ok {
		return Resolved{}, unresolved(reading, models.ReasonUnitMismatch, []models.Suggestion{suggest(b, score)})
	}

	return Resolved{Biomarker: b, Value: canonical, Score: score}, nil
}

func (r *Resolver) match(name string) verdict {
	key := catalog.NormalizeName(name)
	if key == "" {
		return verdict{reason: models.ReasonNoMatch}
	}

	if b, ok := r.exact[key]; ok {
		return verdict{code: b.Code, score: 1}
	}

	if v, ok := r.memo.Get(key); ok {
		return v
	}

	v := r.fuzzy(key)
	r.memo.Add(key, v)

	return v
}

type candidate struct {
	b     *catalog.Biomarker
	score float64
}

func (r *Resolver) fuzzy(key string) verdict {
	tokens := tokenSet(key)
	best := make(map[string]candidate)
	// matchable only holds entries whose distinguishing tokens agree with
	// the input; the rest may still be suggested.
	matchable := make(map[string]candidate)

	for _, e := range r.entries {
		s := similarity(key, tokens, e.key, e.tokens)
		if c, ok := best[e.b.Code]; !ok || s > c.score {
			best[e.b.Code] = candidate{b: e.b, score: s}
		}

		if conflicting(tokens, e.tokens) {
			continue
		}

		if c, ok := matchable[e.b.Code]; !ok || s > c.score {
			matchable[e.b.Code] = candidate{b: e.b, score: s}
		}
	}

	ranked := make([]candidate, 0, len(best))
	for _, c := range best {
		ranked = append(ranked, c)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}

		return ranked[i].b.Code < ranked[j].b.Code
	})

	var suggestions []models.Suggestion

	for _, c := range ranked {
		if len(suggestions) == maxSuggestions || c.score < suggestionFloor {
			break
		}

		suggestions = append(suggestions, suggest(c.b, c.score))
	}

	var top *candidate

	for _, c := range ranked {
		if m, ok := matchable[c.b.Code]; ok && (top == nil || m.score > top.score) {
			top = &m
		}
	}

	if top == nil || top.score < r.tuning.Threshold {
		return verdict{reason: models.ReasonNoMatch, suggestions: suggestions}
	}

	for _, c := range ranked {
		if c.b.Code != top.b.Code && top.score-c.score < r.tuning.Margin {
			return verdict{reason: models.ReasonAmbiguous, suggestions: suggestions}
		}
	}

	return verdict{code: top.b.Code, score: top.score}
}

// conflicting reports whether both names carry an unshared distinguishing
// token, such as "a1" against "b" or "b1" against "b12". Edit distance
// cannot tell those apart.
func conflicting(a, b map[string]bool) bool {
	return hasUnsharedMarker(a, b) && hasUnsharedMarker(b, a)
}

func hasUnsharedMarker(tokens, other map[string]bool) bool {
	for t := range tokens {
		if !other[t] && isMarker(t) {
			return true
		}
	}

	return false
}

// isMarker reports whether a token is short or carries a digit.
func isMarker(t string) bool {
	if utf8.RuneCountInString(t) <= markerLen {
		return true
	}

	return strings.ContainsFunc(t, unicode.IsDigit)
}

// similarity is the larger of token-set Jaccard overlap and normalized
// edit-distance similarity.
func similarity(a string, aTokens map[string]bool, b string, bTokens map[string]bool) float64 {
	inter := 0

	for t := range aTokens {
		if bTokens[t] {
			inter++
		}
	}

	union := len(aTokens) + len(bTokens) - inter

	jaccard := 0.0
	if union > 0 {
		jaccard = float64(inter) / float64(union)
	}

	la, lb := len([]rune(a)), len([]rune(b))

	longest := max(la, lb)
	if longest == 0 {
		return jaccard
	}

	edit := 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)

	return max(jaccard, edit)
}

func tokenSet(key string) map[string]bool {
	out := make(map[string]bool)
	for _, t := range strings.Fields(key) {
		out[t] = true
	}

	return out
}

func suggest(b *catalog.Biomarker, score float64) models.Suggestion {
	return models.Suggestion{Code: b.Code, Name: b.Name(), Score: score}
}

func unresolved(reading models.RawReading, reason models.UnresolvedReason, suggestions []models.Suggestion) models.Unresolved {
	u := models.Unresolved{
		Name:        reading.Name,
		Value:       reading.Value,
		Unit:        reading.Unit,
		Source:      reading.Source,
		Record:      reading.Record,
		Reason:      reason,
		Suggestions: suggestions,
	}

	if reading.HasTimestamp() {
		u.Timestamp = reading.Timestamp.Format(time.RFC3339)
	}

	return u
}
