package handlers

import (
	"net/http"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/fallback"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/observability"
)

// CacheHandler clears cached fallback answers.
type CacheHandler struct {
	logger      *observability.Logger
	invalidator *fallback.CacheInvalidator
}

// NewCacheHandler creates a new cache handler.
func NewCacheHandler(logger *observability.Logger, invalidator *fallback.CacheInvalidator) *CacheHandler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &CacheHandler{
		logger:      logger.WithComponent("cache_handler"),
		invalidator: invalidator,
	}
}

// ClearResponseDTO reports what was removed.
type ClearResponseDTO struct {
	Namespace string `json:"namespace"`
	Cleared   string `json:"cleared"`
}

// Clear handles DELETE /cache. With ?question= only that answer is dropped.
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	question := r.URL.Query().Get("question")
	var (
		scope = "all"
		err   error
	)
	if question != "" {
		scope = "query"
		err = h.invalidator.Forget(r.Context(), question)
	} else {
		err = h.invalidator.Purge(r.Context())
	}
	if err != nil {
		h.logger.Error().Err(err).Str("scope", scope).Msg("Cache clear failed")
		writeError(h.logger, w, http.StatusInternalServerError, "cache clear failed", "")
		return
	}

	writeJSON(h.logger, w, http.StatusOK, ClearResponseDTO{
		Namespace: h.invalidator.Namespace(),
		Cleared:   scope,
	})
}
