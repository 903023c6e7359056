/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/flamego/flamego"

	"github.com/humaidq/labwave/db"
	"github.com/humaidq/labwave/metrics"
	"github.com/humaidq/labwave/models"
	"github.com/humaidq/labwave/pipeline"
)

// Measurements lists stored values, optionally filtered by biomarker and an
// inclusive day range.
func Measurements(c flamego.Context, p *pipeline.Pipeline) {
	userID, err := userParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	filter := db.Filter{BiomarkerCode: strings.ToUpper(strings.TrimSpace(c.Query("biomarker")))}

	if filter.From, err = queryDay(c, "from"); err != nil {
		writeError(c, err)
		return
	}

	if filter.To, err = queryDay(c, "to"); err != nil {
		writeError(c, err)
		return
	}

	ms, err := p.Measurements(c.Request().Context(), userID, filter)
	if err != nil {
		writeError(c, err)
		return
	}

	if ms == nil {
		ms = []models.NormalizedMeasurement{}
	}

	writeJSON(c, http.StatusOK, ms)
}

type profileRequest struct {
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
}

// GetProfile returns the owner attributes used for classification.
func GetProfile(c flamego.Context, p *pipeline.Pipeline) {
	userID, err := userParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	profile, err := p.Profile(c.Request().Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	profile.UserID = userID
	writeJSON(c, http.StatusOK, profile)
}

// PutProfile replaces the owner attributes. Empty fields clear them.
func PutProfile(c flamego.Context, p *pipeline.Pipeline) {
	userID, err := userParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	var req profileRequest
	if err := json.NewDecoder(c.Request().Body().ReadCloser()).Decode(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %w", errInvalidBody, err))
		return
	}

	profile := models.Profile{UserID: userID}

	if req.DateOfBirth != "" {
		dob, err := time.Parse(time.DateOnly, req.DateOfBirth)
		if err != nil {
			writeError(c, errInvalidDate)
			return
		}

		profile.DateOfBirth = &dob
	}

	if req.Gender != "" {
		g, ok := models.ParseGender(req.Gender)
		if !ok {
			writeError(c, fmt.Errorf("%w: %q", errInvalidGender, req.Gender))
			return
		}

		profile.Gender = &g
	}

	if err := p.SetProfile(c.Request().Context(), profile); err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, profile)
}

// MetricNames lists the registered calculators.
func MetricNames(c flamego.Context) {
	writeJSON(c, http.StatusOK, metrics.Names())
}

// Metric runs one calculator over the user's latest values.
func Metric(c flamego.Context, p *pipeline.Pipeline) {
	userID, err := userParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := p.Metric(c.Request().Context(), userID, c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, res)
}

// BioAge runs every biological-age calculator.
func BioAge(c flamego.Context, p *pipeline.Pipeline) {
	userID, err := userParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	summary, err := p.BioAge(c.Request().Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, summary)
}

// Genetics summarizes stored variants by risk.
func Genetics(c flamego.Context, p *pipeline.Pipeline) {
	userID, err := userParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	summary, err := p.Genetics(c.Request().Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, summary)
}

type biomarkerView struct {
	Code     string            `json:"code"`
	Names    map[string]string `json:"names"`
	Category string            `json:"category"`
	Unit     string            `json:"unit"`
	Units    []string          `json:"units"`
}

// Biomarkers lists the catalog.
func Biomarkers(c flamego.Context, p *pipeline.Pipeline) {
	all := p.Catalog().All()
	out := make([]biomarkerView, 0, len(all))

	for _, b := range all {
		units := []string{b.Unit}
		for _, u := range b.Units {
			units = append(units, u.Symbol)
		}

		out = append(out, biomarkerView{
			Code:     b.Code,
			Names:    b.Names,
			Category: string(b.Category),
			Unit:     b.Unit,
			Units:    units,
		})
	}

	writeJSON(c, http.StatusOK, out)
}

// Healthz reports liveness.
func Healthz(c flamego.Context) {
	writeJSON(c, http.StatusOK, map[string]string{"status": "ok"})
}

func queryDay(c flamego.Context, name string) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Time{}, nil
	}

	day, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, errors.Join(errInvalidDate, err)
	}

	return day, nil
}
