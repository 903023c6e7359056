/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package parsers

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"

	"github.com/humaidq/labwave/models"
)

// appleTypes maps HealthKit quantity identifiers to catalog codes.
var appleTypes = map[string]string{
	"HKQuantityTypeIdentifierHeight":                   "HEIGHT",
	"HKQuantityTypeIdentifierBodyMass":                 "WEIGHT",
	"HKQuantityTypeIdentifierBodyMassIndex":            "BMI",
	"HKQuantityTypeIdentifierBodyFatPercentage":        "BFAT_PCT",
	"HKQuantityTypeIdentifierLeanBodyMass":             "LBM",
	"HKQuantityTypeIdentifierHeartRate":                "HR",
	"HKQuantityTypeIdentifierRestingHeartRate":         "RHR",
	"HKQuantityTypeIdentifierBloodPressureSystolic":    "SBP",
	"HKQuantityTypeIdentifierBloodPressureDiastolic":   "DBP",
	"HKQuantityTypeIdentifierRespiratoryRate":          "RESP_RATE",
	"HKQuantityTypeIdentifierBodyTemperature":          "TEMP",
	"HKQuantityTypeIdentifierOxygenSaturation":         "SPO2",
	"HKQuantityTypeIdentifierStepCount":                "STEPS",
	"HKQuantityTypeIdentifierDistanceWalkingRunning":   "DISTANCE",
	"HKQuantityTypeIdentifierActiveEnergyBurned":       "CALORIES",
	"HKQuantityTypeIdentifierBasalEnergyBurned":        "BMR_DAILY",
	"HKQuantityTypeIdentifierHeartRateVariabilitySDNN": "HRV",
	"HKQuantityTypeIdentifierBloodGlucose":             "GLU",
}

// Cumulative types are summed per day; the rest keep the latest sample.
var appleCumulative = map[string]bool{
	"STEPS":     true,
	"DISTANCE":  true,
	"CALORIES":  true,
	"BMR_DAILY": true,
}

// HealthKit reports these as fractions of one.
var appleFractions = map[string]bool{
	"SPO2":     true,
	"BFAT_PCT": true,
}

func parseAppleZip(data []byte, c *collector) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return &models.UnrecognizedFormatError{Reason: fmt.Sprintf("unreadable archive: %v", err)}
	}

	for _, f := range zr.File {
		if path.Base(f.Name) != "export.xml" {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return &models.UnrecognizedFormatError{Reason: fmt.Sprintf("unreadable export.xml: %v", err)}
		}
		defer rc.Close()

		return parseAppleRecords(rc, c)
	}

	return &models.UnrecognizedFormatError{Reason: "archive has no export.xml"}
}

func parseAppleXML(data []byte, c *collector) error {
	return parseAppleRecords(bytes.NewReader(data), c)
}

func parseAppleRecords(r io.Reader, c *collector) error {
	dec := xml.NewDecoder(r)
	table := newDailyTable()
	ignored := make(map[string]int)

	for n := 1; ; {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			if n == 1 {
				return &models.UnrecognizedFormatError{Reason: fmt.Sprintf("malformed health export: %v", err)}
			}

			// Keep what was read before the damage.
			c.warnf(fmt.Sprintf("record %d", n), "export truncated: %v", err)

			break
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Record" {
			continue
		}

		record := fmt.Sprintf("record %d", n)
		n++

		attrs := attrMap(se.Attr)

		code, ok := appleTypes[attrs["type"]]
		if !ok {
			ignored[attrs["type"]]++
			continue
		}

		at, _, err := models.ParseTimestamp(attrs["startDate"])
		if err != nil {
			c.warnf(record, "invalid startDate %q", attrs["startDate"])
			continue
		}

		v, err := models.ParseValue(attrs["value"])
		if err != nil {
			c.warnf(record, "invalid %s value %q", code, attrs["value"])
			continue
		}

		unit := attrs["unit"]

		if appleFractions[code] && v <= 1 {
			v *= 100
			unit = "%"
		}

		if code == "BMI" {
			// HealthKit reports BMI with unit "count".
			unit = ""
		}

		if appleCumulative[code] {
			table.addSum(code, unit, at, v, record)
		} else {
			table.keepLatest(code, unit, at, v, record)
		}
	}

	table.emit(c, models.SourceWearable)

	types := make([]string, 0, len(ignored))
	for t := range ignored {
		types = append(types, t)
	}

	sort.Strings(types)

	for _, t := range types {
		c.diag(models.Diagnostic{
			Kind:    models.SkippedRecord,
			Record:  t,
			Message: fmt.Sprintf("%d records of an untracked type skipped", ignored[t]),
		})
	}

	return nil
}

func attrMap(attrs []xml.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Name.Local] = a.Value
	}

	return m
}
