/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package metrics

import (
	"sort"

	"github.com/google/uuid"

	"github.com/humaidq/labwave/models"
)

// Risk buckets for the genetic summary.
const (
	HighRiskScore     = 0.9
	ModerateRiskScore = 0.4
)

// KnownSNP reports whether a reference SNP id is in the interpretation table.
func KnownSNP(rsid string) bool {
	_, ok := tables.snps[rsid]
	return ok
}

// SNP returns the table entry for a reference SNP id.
func SNP(rsid string) (*SNPRule, bool) {
	s, ok := tables.snps[rsid]
	return s, ok
}

// Interpret matches one genotype call against the interpretation table.
// The boolean result is false for SNPs outside the table. A known SNP with
// an unlisted genotype yields a variant with a nil rule: no risk entry is
// invented for it.
func Interpret(userID string, uploadID uuid.UUID, call models.GenotypeCall) (models.GeneticVariant, bool) {
	s, ok := tables.snps[call.RSID]
	if !ok {
		return models.GeneticVariant{}, false
	}

	v := models.GeneticVariant{
		UserID:     userID,
		RSID:       call.RSID,
		Gene:       s.Gene,
		Genotype:   call.Genotype,
		Chromosome: call.Chromosome,
		Position:   call.Position,
		Condition:  s.Condition,
		Vendor:     call.Vendor,
		UploadID:   uploadID,
	}

	if rule, ok := s.rules[sortAlleles(call.Genotype)]; ok {
		v.Rule = &rule
	}

	return v, true
}

// GeneticSummary buckets a user's interpreted variants by risk score
type GeneticSummary struct {
	Total        int                     `json:"total_variants"`
	HighRisk     []models.GeneticVariant `json:"high_risk"`
	ModerateRisk []models.GeneticVariant `json:"moderate_risk"`
	Genes        []string                `json:"genes_tested"`
}

// Summarize groups variants into high and moderate risk lists.
func Summarize(variants []models.GeneticVariant) GeneticSummary {
	s := GeneticSummary{
		Total:        len(variants),
		HighRisk:     []models.GeneticVariant{},
		ModerateRisk: []models.GeneticVariant{},
		Genes:        []string{},
	}

	genes := make(map[string]bool)

	for _, v := range variants {
		if v.Gene != "" && !genes[v.Gene] {
			genes[v.Gene] = true
			s.Genes = append(s.Genes, v.Gene)
		}

		if v.Rule == nil {
			continue
		}

		switch {
		case v.Rule.RiskScore >= HighRiskScore:
			s.HighRisk = append(s.HighRisk, v)
		case v.Rule.RiskScore >= ModerateRiskScore:
			s.ModerateRisk = append(s.ModerateRisk, v)
		}
	}

	sort.Strings(s.Genes)

	return s
}
