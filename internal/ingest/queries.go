package ingest

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/domain"
)

// LabelledQuery is one evaluation case: a user query and the reference question
// it is expected to match. An empty Expected means the query should fall back.
type LabelledQuery struct {
	Query    string
	Expected string
	Category string
}

// ReadQueries parses an evaluation file with Query and Expected columns and an
// optional Category column.
func ReadQueries(r io.Reader) ([]LabelledQuery, error) {
	header, records, err := readAll(r)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, domain.SchemaError("query file is empty: no header row", nil)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(h)] = i
	}
	queryCol, ok := idx["query"]
	if !ok {
		return nil, domain.SchemaError("query file is missing required column: query", nil)
	}
	expectedCol, ok := idx["expected"]
	if !ok {
		return nil, domain.SchemaError("query file is missing required column: expected", nil)
	}
	categoryCol, hasCategory := idx["category"]

	cell := func(rec []string, i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	out := make([]LabelledQuery, 0, len(records))
	for _, rec := range records {
		q := LabelledQuery{
			Query:    cell(rec, queryCol),
			Expected: cell(rec, expectedCol),
		}
		if hasCategory {
			q.Category = cell(rec, categoryCol)
		}
		out = append(out, q)
	}
	return out, nil
}

// LoadQueries opens path and parses it with ReadQueries.
func LoadQueries(path string) ([]LabelledQuery, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.IOError(fmt.Sprintf("open query file %s", path), err)
	}
	defer f.Close()

	return ReadQueries(f)
}
