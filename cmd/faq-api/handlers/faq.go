// Package handlers provides HTTP handlers for the FAQ API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/assistant"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/domain"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/observability"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/reference"
)

const maxRequestBytes = 64 << 10

// FAQHandler handles question answering requests.
type FAQHandler struct {
	logger  *observability.Logger
	service *assistant.Service
}

// NewFAQHandler creates a new FAQ handler.
func NewFAQHandler(logger *observability.Logger, service *assistant.Service) *FAQHandler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &FAQHandler{
		logger:  logger.WithComponent("faq-handler"),
		service: service,
	}
}

// AskRequestDTO represents the API request for a question.
type AskRequestDTO struct {
	Question string `json:"question"`
	Category string `json:"category,omitempty"`
}

// AskResponseDTO represents the API response for a question.
type AskResponseDTO struct {
	ID              string `json:"id"`
	Question        string `json:"question"`
	Category        string `json:"category"`
	Outcome         string `json:"outcome"`
	Answer          string `json:"answer"`
	MatchedQuestion string `json:"matchedQuestion,omitempty"`
	ConfidenceScore int    `json:"confidenceScore"`
	Cached          bool   `json:"cached"`
	LatencyMs       int64  `json:"latencyMs"`
}

// CategoriesResponseDTO lists the category selector options.
type CategoriesResponseDTO struct {
	Categories []string `json:"categories"`
	Records    int      `json:"records"`
}

// Ask handles POST /ask.
func (h *FAQHandler) Ask(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var reqDTO AskRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	resp, err := h.service.Ask(r.Context(), assistant.Request{
		Query:    reqDTO.Question,
		Category: reqDTO.Category,
	})
	if err != nil {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) && domainErr.Type == domain.ErrorTypeValidation {
			writeError(h.logger, w, http.StatusBadRequest, "invalid question", validationDetail(domainErr, reqDTO))
			return
		}
		h.logger.Error().Err(err).Msg("Ask failed")
		writeError(h.logger, w, http.StatusInternalServerError, "query failed", "")
		return
	}

	writeJSON(h.logger, w, http.StatusOK, AskResponseDTO{
		ID:              resp.ID,
		Question:        resp.Query,
		Category:        resp.Category,
		Outcome:         string(resp.Outcome),
		Answer:          resp.Answer,
		MatchedQuestion: resp.MatchedQuestion,
		ConfidenceScore: resp.Score,
		Cached:          resp.Cached,
		LatencyMs:       resp.Latency.Milliseconds(),
	})
}

// Categories handles GET /categories.
func (h *FAQHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.logger, w, http.StatusOK, CategoriesResponseDTO{
		Categories: h.service.Categories(),
		Records:    h.service.Table().Len(),
	})
}

// validationDetail describes a rejected request without the internal error chain.
func validationDetail(err *domain.DomainError, req AskRequestDTO) string {
	if errors.Is(err, reference.ErrUnknownCategory) {
		return fmt.Sprintf("%s %q", err.Message, strings.TrimSpace(req.Category))
	}
	return err.Message
}

func writeJSON(logger *observability.Logger, w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(logger *observability.Logger, w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(logger, w, status, resp)
}
