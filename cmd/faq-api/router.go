// Package main provides the API router setup.
package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spherical-ai/spherical/libs/faq-engine/cmd/faq-api/handlers"
	"github.com/spherical-ai/spherical/libs/faq-engine/cmd/faq-api/middleware"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/assistant"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/fallback"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/observability"
)

// AppConfig holds router configuration. DELETE /api/v1/cache is only routed
// when Cache is set.
type AppConfig struct {
	RequestTimeout time.Duration
	AllowedOrigins []string
	Cache          *fallback.CacheInvalidator
}

// DefaultAppConfig returns default configuration values.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		RequestTimeout: 30 * time.Second,
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates the API router with all routes configured.
func NewRouter(logger *observability.Logger, service *assistant.Service, cfg *AppConfig) http.Handler {
	if cfg == nil {
		cfg = DefaultAppConfig()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"faq-engine"}`))
	})

	faqHandler := handlers.NewFAQHandler(logger, service)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/categories", faqHandler.Categories)
		r.Post("/ask", faqHandler.Ask)
		if cfg.Cache != nil {
			r.Delete("/cache", handlers.NewCacheHandler(logger, cfg.Cache).Clear)
		}
	})

	return r
}
