// Package assistant is the query boundary: it validates a request, narrows the
// reference table by category, runs the match decision and escalates to the
// generative fallback when needed.
package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/domain"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/fallback"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/matching"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/observability"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/reference"
)

// User-facing messages.
const (
	GenericFailureMessage = "An unexpected error occurred. Please check the logs for details."
	NoCandidatesMessage   = "No reference data is available for this category."
)

// ErrEmptyQuery is returned for a blank query.
var ErrEmptyQuery = domain.ValidationError("query is empty", nil)

// Outcome is how a query was answered.
type Outcome string

const (
	OutcomeMatched        Outcome = "matched"
	OutcomeGenerated      Outcome = "generated"
	OutcomeNoCandidates   Outcome = "no_candidates"
	OutcomeFallbackFailed Outcome = "fallback_failed"
)

// Request is one user question.
type Request struct {
	Query    string `json:"query"`
	Category string `json:"category,omitempty"`
}

// Response is the answer shown to the user. Answer always holds displayable
// text; for OutcomeFallbackFailed it is GenericFailureMessage and ID is the
// reference to quote when reading the logs.
type Response struct {
	ID              string        `json:"id"`
	Query           string        `json:"query"`
	Category        string        `json:"category"`
	Outcome         Outcome       `json:"outcome"`
	Answer          string        `json:"answer"`
	MatchedQuestion string        `json:"matched_question,omitempty"`
	Score           int           `json:"score"`
	Cached          bool          `json:"cached"`
	Latency         time.Duration `json:"latency_ns"`
}

// Config holds the fallback invocation parameters.
type Config struct {
	SystemPrompt    string
	MaxOutputTokens int
	Timeout         time.Duration
}

// Service answers queries against one reference table.
type Service struct {
	table     *reference.Table
	engine    *matching.Engine
	generator fallback.Generator
	config    Config
	logger    *observability.Logger
}

// NewService creates a service. generator may be nil, in which case every
// fallback decision reports OutcomeFallbackFailed.
func NewService(table *reference.Table, engine *matching.Engine, generator fallback.Generator, config Config, logger *observability.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		table:     table,
		engine:    engine,
		generator: generator,
		config:    config,
		logger:    logger.WithComponent("assistant"),
	}
}

// Table returns the reference table the service answers from.
func (s *Service) Table() *reference.Table {
	return s.table
}

// Categories returns the category selector options.
func (s *Service) Categories() []string {
	return s.table.Categories()
}

// Ask answers req. Errors are returned only for invalid input (empty query,
// unknown category); fallback failures are logged and reported in the response.
func (s *Service) Ask(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	filter, err := s.table.NewFilter(req.Category)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	ctx = observability.ContextWithQueryID(ctx, id)
	log := s.logger.WithContext(ctx)

	resp := &Response{
		ID:       id,
		Query:    query,
		Category: filter.Value(),
	}

	decision := s.engine.Answer(query, filter.Apply(s.table))
	resp.Score = decision.Score

	switch decision.Outcome {
	case matching.OutcomeNoCandidates:
		resp.Outcome = OutcomeNoCandidates
		resp.Answer = NoCandidatesMessage

	case matching.OutcomeMatched:
		resp.Outcome = OutcomeMatched
		resp.Answer = decision.Answer
		resp.MatchedQuestion = decision.Question

	case matching.OutcomeFallback:
		s.generate(ctx, log, query, resp)
	}

	resp.Latency = time.Since(start)
	log.Info().
		Query(query).
		Str("category", resp.Category).
		Decision(string(resp.Outcome), resp.Score).
		Bool("cached", resp.Cached).
		Dur("latency", resp.Latency).
		Msg("Query answered")

	return resp, nil
}

func (s *Service) generate(ctx context.Context, log *observability.Logger, query string, resp *Response) {
	if s.generator == nil {
		log.Error().Msg("Fallback needed but no generator is configured")
		resp.Outcome = OutcomeFallbackFailed
		resp.Answer = GenericFailureMessage
		return
	}

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}
	ctx = fallback.WithCacheReport(ctx)

	answer, err := s.generator.Generate(ctx, s.config.SystemPrompt, query, s.config.MaxOutputTokens)
	if err != nil {
		log.Error().Err(err).Query(query).Int("score", resp.Score).Msg("Fallback generation failed")
		resp.Outcome = OutcomeFallbackFailed
		resp.Answer = GenericFailureMessage
		return
	}

	resp.Outcome = OutcomeGenerated
	resp.Answer = answer
	resp.Cached = fallback.CacheHit(ctx)
}
