// Package evaluation measures the match decision against labelled queries
// without calling the generative fallback.
package evaluation

import (
	"fmt"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/ingest"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/matching"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/reference"
)

// CaseResult is the decision for one labelled query.
type CaseResult struct {
	Query    ingest.LabelledQuery
	Decision matching.Decision
	Correct  bool
	Err      error
}

// Report summarises an evaluation run.
type Report struct {
	Total        int
	Matched      int
	Fallback     int
	NoCandidates int
	Invalid      int
	Correct      int
	Cases        []CaseResult
}

// Accuracy is the share of cases whose outcome agreed with the label.
func (r *Report) Accuracy() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Total)
}

// Run evaluates every query against table. A case is correct when a non-empty
// Expected names the matched question, or when an empty Expected meets a
// fallback decision. progress, when non-nil, is called after each case.
func Run(engine *matching.Engine, table *reference.Table, queries []ingest.LabelledQuery, progress func(done int)) *Report {
	report := &Report{Cases: make([]CaseResult, 0, len(queries))}

	for i, q := range queries {
		result := CaseResult{Query: q}

		filter, err := table.NewFilter(q.Category)
		if err != nil {
			result.Err = fmt.Errorf("case %d: %w", i+1, err)
			report.Invalid++
		} else {
			result.Decision = engine.Answer(q.Query, filter.Apply(table))
			switch result.Decision.Outcome {
			case matching.OutcomeMatched:
				report.Matched++
				result.Correct = q.Expected != "" && result.Decision.Question == q.Expected
			case matching.OutcomeFallback:
				report.Fallback++
				result.Correct = q.Expected == ""
			case matching.OutcomeNoCandidates:
				report.NoCandidates++
			}
		}

		if result.Correct {
			report.Correct++
		}
		report.Total++
		report.Cases = append(report.Cases, result)

		if progress != nil {
			progress(i + 1)
		}
	}

	return report
}
