package matching

import (
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/reference"
)

// DefaultThreshold is the confidence a match must strictly exceed to be answered
// from the reference table.
const DefaultThreshold = 75

// Outcome is the kind of decision reached for a query.
type Outcome string

const (
	// OutcomeMatched means a reference answer cleared the threshold.
	OutcomeMatched Outcome = "matched"
	// OutcomeFallback means the best match was not confident enough; the caller
	// must escalate to the generative fallback.
	OutcomeFallback Outcome = "fallback"
	// OutcomeNoCandidates means there was nothing to match against.
	OutcomeNoCandidates Outcome = "no_candidates"
)

// Decision is the per-query result of matching. It is never stored.
type Decision struct {
	Outcome Outcome
	// Question is the best-scoring reference question. Set for Matched and Fallback.
	Question string
	// Answer is the stored answer. Set only for Matched.
	Answer   string
	Category string
	// Score is the best similarity, 0-100.
	Score int
}

// IsMatched reports whether the decision carries a stored answer.
func (d Decision) IsMatched() bool {
	return d.Outcome == OutcomeMatched
}

// NeedsFallback reports whether the caller must invoke the generative fallback.
func (d Decision) NeedsFallback() bool {
	return d.Outcome == OutcomeFallback
}

// BestMatch returns the index and score of the highest-scoring candidate. Ties
// resolve to the earliest candidate. It returns -1 for an empty candidate set.
func BestMatch(query string, candidates []reference.Record) (int, int) {
	if len(candidates) == 0 {
		return -1, 0
	}

	q := Normalize(query)
	bestIdx, bestScore := 0, -1
	for i, rec := range candidates {
		s := scoreNormalized(q, Normalize(rec.Question))
		if s > bestScore {
			bestIdx, bestScore = i, s
		}
	}
	return bestIdx, bestScore
}

// Answer decides how query should be answered from candidates. The match is
// accepted only when its score is strictly greater than threshold.
func Answer(query string, candidates []reference.Record, threshold int) Decision {
	idx, score := BestMatch(query, candidates)
	if idx < 0 {
		return Decision{Outcome: OutcomeNoCandidates}
	}

	best := candidates[idx]
	if score > threshold {
		return Decision{
			Outcome:  OutcomeMatched,
			Question: best.Question,
			Answer:   best.Answer,
			Category: best.Category,
			Score:    score,
		}
	}

	return Decision{
		Outcome:  OutcomeFallback,
		Question: best.Question,
		Category: best.Category,
		Score:    score,
	}
}

// EngineConfig configures an Engine.
type EngineConfig struct {
	Threshold int
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{Threshold: DefaultThreshold}
}

// Engine applies Answer with a fixed threshold. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	threshold int
}

// NewEngine creates an engine. Thresholds outside 0-100 are clamped.
func NewEngine(cfg EngineConfig) *Engine {
	t := cfg.Threshold
	if t < 0 {
		t = 0
	}
	if t > 100 {
		t = 100
	}
	return &Engine{threshold: t}
}

// Threshold returns the configured threshold.
func (e *Engine) Threshold() int {
	return e.threshold
}

// Answer decides how query should be answered from candidates.
func (e *Engine) Answer(query string, candidates []reference.Record) Decision {
	return Answer(query, candidates, e.threshold)
}
