/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"net/http"

	"github.com/flamego/flamego"

	"github.com/humaidq/labwave/pipeline"
)

// NewRouter wires the JSON API over a pipeline. The pipeline is injected
// into every handler.
func NewRouter(p *pipeline.Pipeline) *flamego.Flame {
	f := flamego.New()
	f.Use(flamego.Recovery())
	f.Use(RequestLogger)
	f.Use(NoCacheHeaders())
	f.Map(p)

	configureNotFoundHandler(f)

	f.Get("/healthz", Healthz)

	f.Group("/api", func() {
		f.Get("/biomarkers", Biomarkers)
		f.Get("/metrics", MetricNames)

		f.Group("/users/{user}", func() {
			f.Post("/uploads", LimitBody(p.MaxUploadBytes()), Upload)
			f.Post("/uploads/batch", LimitBody(p.MaxUploadBytes()*maxBatchFiles), UploadBatch)
			f.Get("/uploads", ListUploads)
			f.Delete("/uploads/{id}", DeleteUpload)
			f.Get("/uploads/{id}/candidates", Candidates)
			f.Get("/uploads/{id}/suggestions", Suggestions)
			f.Post("/uploads/{id}/candidates/{candidate}/confirm", LimitBody(0), Confirm)

			f.Get("/measurements", Measurements)
			f.Post("/measurements", LimitBody(0), AddManual)
			f.Post("/reclassify", Reclassify)
			f.Get("/profile", GetProfile)
			f.Put("/profile", LimitBody(0), PutProfile)

			f.Get("/metrics/{name}", Metric)
			f.Get("/bioage", BioAge)
			f.Get("/genetics", Genetics)
		})
	})

	return f
}

func configureNotFoundHandler(f *flamego.Flame) {
	f.NotFound(func(c flamego.Context) {
		writeJSON(c, http.StatusNotFound, errorBody{Error: http.StatusText(http.StatusNotFound)})
	})
}
