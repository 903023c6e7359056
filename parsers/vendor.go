/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package parsers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/humaidq/labwave/models"
)

// vendorKey maps one vendor metric key onto a catalog code and unit.
type vendorKey struct {
	key  string
	code string
	unit string
}

// Later keys override earlier ones for the same code on the same record.
var ouraKeys = []vendorKey{
	{key: "average_hrv", code: "HRV", unit: "ms"},
	{key: "hrv_avg", code: "HRV", unit: "ms"},
	{key: "lowest_heart_rate", code: "RHR", unit: "bpm"},
	{key: "resting_heart_rate", code: "RHR", unit: "bpm"},
	{key: "average_breath", code: "RESP_RATE", unit: "breaths/min"},
	{key: "respiratory_rate", code: "RESP_RATE", unit: "breaths/min"},
	{key: "spo2_percentage", code: "SPO2", unit: "%"},
	{key: "steps", code: "STEPS", unit: "steps"},
	{key: "active_calories", code: "CALORIES", unit: "kcal"},
}

var whoopScoreKeys = []vendorKey{
	{key: "resting_heart_rate", code: "RHR", unit: "bpm"},
	{key: "hrv_rmssd_milli", code: "HRV", unit: "ms"},
	{key: "spo2_percentage", code: "SPO2", unit: "%"},
	{key: "skin_temp_celsius", code: "TEMP", unit: "°C"},
	{key: "respiratory_rate", code: "RESP_RATE", unit: "breaths/min"},
	{key: "kilojoule", code: "CALORIES", unit: "kJ"},
	{key: "average_heart_rate", code: "HR", unit: "bpm"},
}

var whoopBodyKeys = []vendorKey{
	{key: "weight_kilogram", code: "WEIGHT", unit: "kg"},
	{key: "height_meter", code: "HEIGHT", unit: "m"},
	{key: "body_fat_percentage", code: "BFAT_PCT", unit: "%"},
}

func parseOura(data []byte, c *collector) error {
	var doc struct {
		Data []map[string]any `json:"data"`
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return &models.UnrecognizedFormatError{Reason: fmt.Sprintf("malformed Oura payload: %v", err)}
	}

	table := newDailyTable()

	for i, item := range doc.Data {
		record := fmt.Sprintf("data[%d]", i)

		at, ok := vendorTime(item, "day", "timestamp")
		if !ok {
			c.warnf(record, "record has no day or timestamp")
			continue
		}

		// Heart rate collections carry raw samples.
		if raw, ok := item["bpm"]; ok {
			if v, ok := vendorNumber(raw); ok {
				table.addMean("HR", "bpm", at, v, record)
			} else {
				c.warnf(record, "invalid bpm %v", raw)
			}

			continue
		}

		collectKeys(item, ouraKeys, at, record, table, c)
	}

	table.emit(c, models.SourceWearable)

	return nil
}

func parseWhoop(data []byte, c *collector) error {
	var doc struct {
		Records []map[string]any `json:"records"`
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return &models.UnrecognizedFormatError{Reason: fmt.Sprintf("malformed Whoop payload: %v", err)}
	}

	table := newDailyTable()

	for i, item := range doc.Records {
		record := fmt.Sprintf("records[%d]", i)

		at, dated := vendorTime(item, "created_at", "start", "updated_at")

		if !dated {
			// Body measurements are undated snapshots.
			for _, k := range whoopBodyKeys {
				if v, ok := vendorNumber(item[k.key]); ok {
					c.reading(models.RawReading{
						Name:   k.code,
						Value:  formatFloat(v),
						Unit:   k.unit,
						Source: models.SourceWearable,
						Record: record,
					})
				}
			}

			continue
		}

		collectKeys(item, whoopBodyKeys, at, record, table, c)

		score, ok := item["score"].(map[string]any)
		if !ok {
			continue
		}

		collectKeys(score, whoopScoreKeys, at, record, table, c)
	}

	table.emit(c, models.SourceWearable)

	return nil
}

func collectKeys(item map[string]any, keys []vendorKey, at time.Time, record string, table *dailyTable, c *collector) {
	for _, k := range keys {
		raw, ok := item[k.key]
		if !ok || raw == nil {
			continue
		}

		v, ok := vendorNumber(raw)
		if !ok {
			c.warnf(record, "invalid %s value %v", k.key, raw)
			continue
		}

		table.keepLatest(k.code, k.unit, at, v, record)
	}
}

func vendorTime(item map[string]any, keys ...string) (time.Time, bool) {
	for _, key := range keys {
		s, ok := item[key].(string)
		if !ok || s == "" {
			continue
		}

		if t, _, err := models.ParseTimestamp(s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// vendorNumber accepts plain numbers, numeric strings and {"average": n}.
func vendorNumber(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case string:
		f, err := models.ParseValue(v)
		return f, err == nil
	case map[string]any:
		return vendorNumber(v["average"])
	}

	return 0, false
}
