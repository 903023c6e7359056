/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package parsers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/humaidq/labwave/detect"
	"github.com/humaidq/labwave/models"
)

const (
	vendor23andMe  = "23andMe"
	vendorAncestry = "AncestryDNA"
	vendorJSON     = "json"
)

func parseGeneticText(data []byte, variant detect.Variant, c *collector) error {
	sc := bufio.NewScanner(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	vendor := vendor23andMe
	if variant == detect.VariantAncestry {
		vendor = vendorAncestry
	}

	noCalls := 0

	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(strings.ToLower(line), "rsid") {
			continue
		}

		record := fmt.Sprintf("line %d", n)

		sep := "\t"
		if !strings.Contains(line, sep) {
			sep = ","
		}

		fields := strings.Split(line, sep)
		for i := range fields {
			fields[i] = strings.Trim(strings.TrimSpace(fields[i]), `"`)
		}

		var genotype string

		switch len(fields) {
		case 4:
			genotype = fields[3]
		case 5:
			genotype = fields[3] + fields[4]
		default:
			c.warnf(record, "expected 4 or 5 columns, got %d", len(fields))
			continue
		}

		rsid := strings.ToLower(fields[0])
		if !validRSID(rsid) {
			c.warnf(record, "invalid SNP id %q", fields[0])
			continue
		}

		pos, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			c.warnf(record, "invalid position %q", fields[2])
			continue
		}

		genotype = strings.ToUpper(genotype)
		if isNoCall(genotype) {
			noCalls++
			continue
		}

		c.genotype(models.GenotypeCall{
			RSID:       rsid,
			Chromosome: fields[1],
			Position:   pos,
			Genotype:   genotype,
			Vendor:     vendor,
			Record:     record,
		})
	}

	if err := sc.Err(); err != nil {
		c.warnf("", "stopped reading genotype file: %v", err)
	}

	reportNoCalls(noCalls, c)

	return nil
}

func parseGeneticJSON(data []byte, c *collector) error {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return &models.UnrecognizedFormatError{Reason: fmt.Sprintf("malformed genotype JSON: %v", err)}
	}

	var items []any

	switch v := root.(type) {
	case []any:
		items = v
	case map[string]any:
		for _, key := range []string{"variants", "genotypes", "snps"} {
			if list, ok := v[key].([]any); ok {
				items = list
				break
			}
		}
	}

	noCalls := 0

	for i, it := range items {
		record := fmt.Sprintf("item %d", i)

		obj, ok := it.(map[string]any)
		if !ok {
			c.warnf(record, "expected an object")
			continue
		}

		rsid := strings.ToLower(firstString(obj, "rsid", "rsId", "snp", "rs"))
		if !validRSID(rsid) {
			c.warnf(record, "invalid SNP id %q", rsid)
			continue
		}

		genotype := strings.ToUpper(strings.NewReplacer(";", "", "/", "", "(", "", ")", "").
			Replace(firstString(obj, "genotype", "call", "alleles", "genotypes")))
		if isNoCall(genotype) {
			noCalls++
			continue
		}

		call := models.GenotypeCall{
			RSID:       rsid,
			Chromosome: firstString(obj, "chromosome", "chrom", "chr"),
			Genotype:   genotype,
			Gene:       firstString(obj, "gene"),
			Vendor:     vendorJSON,
			Record:     record,
		}

		if raw := firstString(obj, "position", "pos"); raw != "" {
			pos, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				c.warnf(record, "invalid position %q", raw)
				continue
			}

			call.Position = pos
		}

		c.genotype(call)
	}

	reportNoCalls(noCalls, c)

	return nil
}

// firstString returns the first present key as text. Numbers are formatted
// without a fraction.
func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case string:
			if v != "" {
				return strings.TrimSpace(v)
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}

	return ""
}

func validRSID(rsid string) bool {
	digits := strings.TrimPrefix(rsid, "rs")
	if digits == rsid {
		digits = strings.TrimPrefix(rsid, "i")
	}

	if digits == "" || digits == rsid {
		return false
	}

	_, err := strconv.ParseUint(digits, 10, 64)

	return err == nil
}

func isNoCall(genotype string) bool {
	return genotype == "" || strings.ContainsAny(genotype, "-0")
}

func reportNoCalls(n int, c *collector) {
	if n == 0 {
		return
	}

	c.diag(models.Diagnostic{
		Kind:    models.SkippedRecord,
		Message: fmt.Sprintf("%d no-call genotypes skipped", n),
	})
}
