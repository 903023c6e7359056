/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package detect

import "github.com/humaidq/labwave/catalog"

// ColumnRole is the meaning of a tabular header cell
type ColumnRole int

// ColumnRole values.
const (
	RoleNone ColumnRole = iota
	RoleName
	RoleValue
	RoleUnit
	RoleDate
	RoleSource
	RoleReference
)

var columnSynonyms = map[string]ColumnRole{
	"name":                 RoleName,
	"test":                 RoleName,
	"test name":            RoleName,
	"marker":               RoleName,
	"biomarker":            RoleName,
	"analyte":              RoleName,
	"parameter":            RoleName,
	"analysis":             RoleName,
	"биомаркер":            RoleName,
	"анализ":               RoleName,
	"показатель":           RoleName,
	"исследование":         RoleName,
	"наименование":         RoleName,
	"value":                RoleValue,
	"val":                  RoleValue,
	"result":               RoleValue,
	"значение":             RoleValue,
	"результат":            RoleValue,
	"unit":                 RoleUnit,
	"units":                RoleUnit,
	"uom":                  RoleUnit,
	"единицы":              RoleUnit,
	"ед":                   RoleUnit,
	"ед изм":               RoleUnit,
	"date":                 RoleDate,
	"sample date":          RoleDate,
	"collected":            RoleDate,
	"collection date":      RoleDate,
	"datetime":             RoleDate,
	"timestamp":            RoleDate,
	"day":                  RoleDate,
	"дата":                 RoleDate,
	"дата анализа":         RoleDate,
	"source":               RoleSource,
	"source kind":          RoleSource,
	"источник":             RoleSource,
	"reference":            RoleReference,
	"ref":                  RoleReference,
	"reference range":      RoleReference,
	"norm":                 RoleReference,
	"норма":                RoleReference,
	"референсные значения": RoleReference,
}

// Column returns the role of a header cell, or RoleNone.
func Column(header string) ColumnRole {
	return columnSynonyms[catalog.NormalizeName(header)]
}
