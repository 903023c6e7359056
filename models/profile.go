/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package models

import "time"

// Gender represents biological sex for medical reference ranges
type Gender string

// Gender values represent supported biological-sex categories.
const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderUnisex Gender = "Unisex" // For ranges that don't vary by gender
)

// ParseGender accepts the common spellings used by profile sources.
func ParseGender(s string) (Gender, bool) {
	switch normalizeKey(s) {
	case "m", "male", "man":
		return GenderMale, true
	case "f", "female", "woman":
		return GenderFemale, true
	}

	return "", false
}

// AgeRange represents age-based categorization for reference ranges
type AgeRange string

// AgeRange values represent supported age groups for lab ranges.
const (
	AgeAny       AgeRange = "Any"
	AgePediatric AgeRange = "Pediatric" // 0-17
	AgeAdult     AgeRange = "Adult"     // 18-49
	AgeMiddleAge AgeRange = "MiddleAge" // 50-64
	AgeSenior    AgeRange = "Senior"    // 65+
)

// Profile carries the owner attributes the classifier and calculators need.
type Profile struct {
	UserID      string     `db:"user_id" json:"user_id"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender      *Gender    `db:"gender" json:"gender,omitempty"`
}

// GetAge calculates the age in whole years at a given date
func (p *Profile) GetAge(atDate time.Time) *int {
	if p == nil || p.DateOfBirth == nil {
		return nil
	}

	years := atDate.Year() - p.DateOfBirth.Year()
	// Adjust if birthday hasn't occurred yet this year
	if atDate.Month() < p.DateOfBirth.Month() ||
		(atDate.Month() == p.DateOfBirth.Month() && atDate.Day() < p.DateOfBirth.Day()) {
		years--
	}

	return &years
}

// GetAgeRange returns the age range category for reference ranges.
// The second return value is false when the date of birth is unknown.
func (p *Profile) GetAgeRange(atDate time.Time) (AgeRange, bool) {
	age := p.GetAge(atDate)
	if age == nil {
		return "", false
	}

	switch {
	case *age <= 17:
		return AgePediatric, true
	case *age <= 49:
		return AgeAdult, true
	case *age <= 64:
		return AgeMiddleAge, true
	default:
		return AgeSenior, true
	}
}

// FractionalAge returns the chronological age in years with day precision.
func (p *Profile) FractionalAge(atDate time.Time) (float64, bool) {
	if p == nil || p.DateOfBirth == nil {
		return 0, false
	}

	days := atDate.Sub(*p.DateOfBirth).Hours() / 24

	return days / 365.25, true
}

// KnownGender returns the profile gender when it is set to male or female.
func (p *Profile) KnownGender() (Gender, bool) {
	if p == nil || p.Gender == nil {
		return "", false
	}

	switch *p.Gender {
	case GenderMale, GenderFemale:
		return *p.Gender, true
	}

	return "", false
}
