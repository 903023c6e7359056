/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package parsers

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/humaidq/labwave/catalog"
	"github.com/humaidq/labwave/models"
)

var (
	// name, optional separator, optional qualifier, value, optional unit,
	// then anything (usually the reference range).
	labLine = regexp.MustCompile(
		`^(\pL[\pL\pN\s.,()'/%+\-]*?)(?:\s*[:|]\s*|\s+)([<>≤≥]?)\s*(\d+(?:[.,]\d+)?)\s*((?:10\^\d+|[\pL%µμ°×*])\S*)?(?:\s+.*)?$`)

	dateToken = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|\d{1,2}[./-]\d{1,2}[./-]\d{4})\b`)
)

// Words that open lines which look like readings but are report furniture.
var labStopwords = map[string]bool{
	"page": true, "date": true, "patient": true, "age": true, "sex": true,
	"gender": true, "dob": true, "phone": true, "tel": true, "id": true,
	"order": true, "sample": true, "report": true, "doctor": true, "lab": true,
	"страница": true, "дата": true, "пациент": true, "возраст": true,
	"пол": true, "тел": true, "заказ": true, "образец": true, "врач": true,
}

var (
	reportDateKeywords = []string{
		"date of analysis", "collected", "collection date", "sample date", "report date",
		"date", "дата анализа", "дата взятия", "дата забора", "дата",
	}
	birthKeywords = []string{"birth", "dob", "рожд"}
)

func parseText(data []byte, c *collector) error {
	lines := splitLines(bytes.TrimPrefix(data, utf8BOM))
	parseLabLines(lines, c)

	return nil
}

func parsePDF(data []byte, c *collector) error {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return &models.UnrecognizedFormatError{Reason: fmt.Sprintf("unreadable PDF: %v", err)}
	}

	var lines []string

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		rows, err := p.GetTextByRow()
		if err != nil {
			c.warnf(fmt.Sprintf("page %d", i), "failed to extract text: %v", err)
			continue
		}

		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, t := range row.Content {
				words = append(words, t.S)
			}

			lines = append(lines, strings.Join(words, " "))
		}
	}

	if len(lines) == 0 {
		return &models.UnrecognizedFormatError{Reason: "PDF has no text layer"}
	}

	parseLabLines(lines, c)

	return nil
}

func parseLabLines(lines []string, c *collector) {
	reportDate := detectReportDate(lines)
	if reportDate.IsZero() {
		c.diag(models.Diagnostic{Kind: models.MissingTimestamp, Message: "no report date found in document"})
	}

	for i, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}

		m := labLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		name := strings.TrimSpace(strings.TrimRight(m[1], " .:|"))
		if skipLabName(name) {
			continue
		}

		c.reading(models.RawReading{
			Name:      name,
			Value:     m[2] + m[3],
			Unit:      strings.TrimRight(m[4], ".,;"),
			Timestamp: reportDate,
			DateOnly:  true,
			Source:    models.SourceLabFile,
			Record:    fmt.Sprintf("line %d", i+1),
		})
	}
}

func skipLabName(name string) bool {
	key := catalog.NormalizeName(name)
	if key == "" {
		return true
	}

	first, _, _ := strings.Cut(key, " ")
	if labStopwords[first] {
		return true
	}

	for _, kw := range birthKeywords {
		if strings.Contains(key, kw) {
			return true
		}
	}

	return false
}

// detectReportDate prefers dates on keyword lines, ignores dates on birth
// lines and returns the latest candidate.
func detectReportDate(lines []string) time.Time {
	var keyed, latest time.Time

	for _, line := range lines {
		lower := strings.ToLower(line)
		if containsAny(lower, birthKeywords) {
			continue
		}

		onKeyword := containsAny(lower, reportDateKeywords)

		for _, tok := range dateToken.FindAllString(line, -1) {
			t, _, err := models.ParseTimestamp(tok)
			if err != nil {
				continue
			}

			day := models.Day(t)
			if onKeyword && day.After(keyed) {
				keyed = day
			}

			if day.After(latest) {
				latest = day
			}
		}
	}

	if !keyed.IsZero() {
		return keyed
	}

	return latest
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}

	return false
}

func splitLines(data []byte) []string {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}

	return lines
}
