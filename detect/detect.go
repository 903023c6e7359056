/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package detect sniffs a raw upload and picks the parser family for it.
// Structural signatures are tried before the filename extension.
package detect

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/json"
	"path"
	"regexp"
	"strings"

	"github.com/humaidq/labwave/models"
)

// Format is the parser family chosen for an upload
type Format string

// Format values.
const (
	TabularLab      Format = "tabular-lab"
	TextLab         Format = "text-lab"
	WearableArchive Format = "wearable-archive"
	WearableJSON    Format = "wearable-json"
	GeneticRaw      Format = "genetic-raw"
	Unknown         Format = "unknown"
)

// Variant narrows a format to the container or vendor layout
type Variant string

// Variant values.
const (
	VariantCSV         Variant = "csv"
	VariantXLSX        Variant = "xlsx"
	VariantText        Variant = "text"
	VariantPDF         Variant = "pdf"
	VariantAppleZip    Variant = "apple-health-zip"
	VariantAppleXML    Variant = "apple-health-xml"
	VariantOura        Variant = "oura"
	VariantWhoop       Variant = "whoop"
	Variant23andMe     Variant = "23andme"
	VariantAncestry    Variant = "ancestrydna"
	VariantGeneticJSON Variant = "genetic-json"
)

// Detection is the outcome of sniffing one upload
type Detection struct {
	Format  Format
	Variant Variant
}

var (
	zipMagic = []byte("PK\x03\x04")
	pdfMagic = []byte("%PDF-")
	utf8BOM  = []byte("\xEF\xBB\xBF")

	rsidLine    = regexp.MustCompile(`^(rs|i)\d+[\t,]`)
	textLabLine = regexp.MustCompile(`^\pL[\pL\pN .,()/%\-]*?\s+[<>]?\d+(?:[.,]\d+)?\s*\S*`)
)

const probeLines = 40

// Detect classifies raw bytes. The filename is only a hint used after the
// structural probes fail. An unclassifiable upload returns an
// *models.UnrecognizedFormatError.
func Detect(data []byte, filename string) (Detection, error) {
	if len(data) == 0 {
		return Detection{Format: Unknown}, &models.UnrecognizedFormatError{Filename: filename, Reason: "empty upload"}
	}

	if d, ok := probeContainer(data); ok {
		return d, nil
	}

	text := bytes.TrimPrefix(data, utf8BOM)
	text = bytes.TrimLeft(text, " \t\r\n")

	if d, ok := probeJSON(text); ok {
		return d, nil
	}

	if d, ok := probeXML(text); ok {
		return d, nil
	}

	lines := headLines(text, probeLines)

	if d, ok := probeGenetic(lines); ok {
		return d, nil
	}

	if d, ok := probeTabular(lines); ok {
		return d, nil
	}

	if d, ok := probeTextLab(lines); ok {
		return d, nil
	}

	if d, ok := byExtension(filename); ok {
		return d, nil
	}

	return Detection{Format: Unknown}, &models.UnrecognizedFormatError{Filename: filename, Reason: "no structural signature matched"}
}

func probeContainer(data []byte) (Detection, bool) {
	if bytes.HasPrefix(data, pdfMagic) {
		return Detection{Format: TextLab, Variant: VariantPDF}, true
	}

	if !bytes.HasPrefix(data, zipMagic) {
		return Detection{}, false
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Detection{}, false
	}

	workbook := false

	for _, f := range zr.File {
		switch {
		case path.Base(f.Name) == "export.xml":
			return Detection{Format: WearableArchive, Variant: VariantAppleZip}, true
		case f.Name == "xl/workbook.xml":
			workbook = true
		}
	}

	if workbook {
		return Detection{Format: TabularLab, Variant: VariantXLSX}, true
	}

	return Detection{}, false
}

func probeJSON(text []byte) (Detection, bool) {
	if len(text) == 0 || (text[0] != '{' && text[0] != '[') {
		return Detection{}, false
	}

	var root any
	if err := json.Unmarshal(text, &root); err != nil {
		return Detection{}, false
	}

	switch v := root.(type) {
	case map[string]any:
		if _, ok := v["data"].([]any); ok {
			return Detection{Format: WearableJSON, Variant: VariantOura}, true
		}

		if _, ok := v["records"].([]any); ok {
			return Detection{Format: WearableJSON, Variant: VariantWhoop}, true
		}

		for _, key := range []string{"variants", "genotypes", "snps"} {
			if items, ok := v[key].([]any); ok && hasRSID(items) {
				return Detection{Format: GeneticRaw, Variant: VariantGeneticJSON}, true
			}
		}
	case []any:
		if hasRSID(v) {
			return Detection{Format: GeneticRaw, Variant: VariantGeneticJSON}, true
		}
	}

	return Detection{}, false
}

func hasRSID(items []any) bool {
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}

		for _, key := range []string{"rsid", "rsId", "snp", "rs"} {
			if _, ok := obj[key]; ok {
				return true
			}
		}
	}

	return false
}

func probeXML(text []byte) (Detection, bool) {
	if len(text) == 0 || text[0] != '<' {
		return Detection{}, false
	}

	head := text
	// The export carries a long inline DTD before the root element.
	if len(head) > 64*1024 {
		head = head[:64*1024]
	}

	if bytes.Contains(head, []byte("<HealthData")) || bytes.Contains(head, []byte("DOCTYPE HealthData")) {
		return Detection{Format: WearableArchive, Variant: VariantAppleXML}, true
	}

	return Detection{}, false
}

func probeGenetic(lines []string) (Detection, bool) {
	sawHeader := false
	variant := Variant23andMe

	for _, line := range lines {
		lower := strings.ToLower(line)

		switch {
		case strings.HasPrefix(lower, "#"):
			if strings.Contains(lower, "23andme") {
				variant = Variant23andMe
				sawHeader = true
			}

			if strings.Contains(lower, "ancestrydna") || strings.Contains(lower, "ancestry.com") {
				variant = VariantAncestry
				sawHeader = true
			}
		case strings.HasPrefix(lower, "rsid"):
			if strings.Contains(lower, "allele1") {
				variant = VariantAncestry
			}

			sawHeader = true
		case rsidLine.MatchString(lower):
			return Detection{Format: GeneticRaw, Variant: variant}, true
		}
	}

	if sawHeader {
		return Detection{Format: GeneticRaw, Variant: variant}, true
	}

	return Detection{}, false
}

func probeTabular(lines []string) (Detection, bool) {
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		delim := SniffDelimiter(line)
		if delim == 0 {
			return Detection{}, false
		}

		for _, cell := range strings.Split(line, string(delim)) {
			if Column(strings.Trim(cell, `" `)) != RoleNone {
				return Detection{Format: TabularLab, Variant: VariantCSV}, true
			}
		}

		// Only the first non-empty line is a header candidate.
		return Detection{}, false
	}

	return Detection{}, false
}

func probeTextLab(lines []string) (Detection, bool) {
	for _, line := range lines {
		if textLabLine.MatchString(strings.TrimSpace(line)) {
			return Detection{Format: TextLab, Variant: VariantText}, true
		}
	}

	return Detection{}, false
}

func byExtension(filename string) (Detection, bool) {
	switch strings.ToLower(path.Ext(filename)) {
	case ".csv", ".tsv":
		return Detection{Format: TabularLab, Variant: VariantCSV}, true
	case ".xlsx":
		return Detection{Format: TabularLab, Variant: VariantXLSX}, true
	case ".pdf":
		return Detection{Format: TextLab, Variant: VariantPDF}, true
	case ".txt":
		return Detection{Format: TextLab, Variant: VariantText}, true
	case ".xml":
		return Detection{Format: WearableArchive, Variant: VariantAppleXML}, true
	}

	return Detection{}, false
}

// SniffDelimiter picks the most frequent of tab, semicolon and comma in a
// header line. It returns 0 when none occurs.
func SniffDelimiter(line string) rune {
	best, bestCount := rune(0), 0

	for _, d := range []rune{'\t', ';', ','} {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}

	return best
}

func headLines(text []byte, n int) []string {
	sc := bufio.NewScanner(bytes.NewReader(text))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	lines := make([]string, 0, n)
	for sc.Scan() && len(lines) < n {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}

	return lines
}
