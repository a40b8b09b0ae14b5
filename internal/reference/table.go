// Package reference holds the curated question/answer table and its category views.
package reference

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/domain"
)

// AllCategories is the filter sentinel meaning "no category restriction".
const AllCategories = "All"

// Required field names, compared after trimming and case-folding.
const (
	FieldQuestion = "question"
	FieldAnswer   = "answer"
	FieldCategory = "category"
)

var requiredFields = []string{FieldQuestion, FieldAnswer, FieldCategory}

// ErrUnknownCategory is returned when a filter names a category absent from the table.
var ErrUnknownCategory = domain.ValidationError("unknown category", nil)

// Row is one raw dataset row keyed by field name, as produced by a loader.
type Row map[string]string

// Record is one stored question/answer/category triple.
type Record struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
}

// Table is the ordered, read-only reference table.
// It is safe for concurrent readers once built.
type Table struct {
	records    []Record
	categories []string
	known      map[string]struct{}
}

// LoadTable builds a Table from raw rows. Every row must carry the question,
// answer and category fields; field names tolerate surrounding whitespace and case.
func LoadTable(rows []Row) (*Table, error) {
	records := make([]Record, 0, len(rows))

	for i, row := range rows {
		fields := normalizeFields(row)

		var missing []string
		for _, name := range requiredFields {
			if _, ok := fields[name]; !ok {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return nil, domain.SchemaError(
				fmt.Sprintf("row %d is missing required fields: %s (need %s)",
					i+1, strings.Join(missing, ", "), strings.Join(requiredFields, ", ")),
				nil,
			)
		}

		records = append(records, Record{
			Question: fields[FieldQuestion],
			Answer:   fields[FieldAnswer],
			Category: fields[FieldCategory],
		})
	}

	return NewTable(records), nil
}

// NewTable builds a Table from already validated records. The slice is copied.
func NewTable(records []Record) *Table {
	t := &Table{
		records: make([]Record, len(records)),
		known:   make(map[string]struct{}),
	}
	copy(t.records, records)

	for _, rec := range t.records {
		if _, seen := t.known[rec.Category]; seen {
			continue
		}
		t.known[rec.Category] = struct{}{}
		t.categories = append(t.categories, rec.Category)
	}

	return t
}

// ValidateHeader checks a header row for the required fields before any rows are read.
func ValidateHeader(header []string) error {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[normalizeFieldName(h)] = struct{}{}
	}

	var missing []string
	for _, name := range requiredFields {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return domain.SchemaError(
			fmt.Sprintf("dataset is missing required columns: %s", strings.Join(missing, ", ")),
			nil,
		)
	}
	return nil
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.records)
}

// Records returns a copy of all records in load order.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// DistinctCategories returns the unique categories in first-seen order.
func (t *Table) DistinctCategories() []string {
	out := make([]string, len(t.categories))
	copy(out, t.categories)
	return out
}

// Categories returns the selectable filter options: All followed by the distinct categories.
func (t *Table) Categories() []string {
	return append([]string{AllCategories}, t.categories...)
}

// HasCategory reports whether category was observed at load time.
func (t *Table) HasCategory(category string) bool {
	_, ok := t.known[category]
	return ok
}

// FilterByCategory returns the records of category in original order, or every
// record for AllCategories. The result is never nil.
func (t *Table) FilterByCategory(category string) []Record {
	if category == AllCategories {
		return t.Records()
	}

	out := make([]Record, 0)
	for _, rec := range t.records {
		if rec.Category == category {
			out = append(out, rec)
		}
	}
	return out
}

func normalizeFields(row Row) map[string]string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	// Sorted so that colliding raw names ("Answer", " answer ") resolve the same way every load.
	sort.Strings(keys)

	out := make(map[string]string, len(row))
	for _, k := range keys {
		name := normalizeFieldName(k)
		if _, exists := out[name]; exists {
			continue
		}
		out[name] = strings.TrimSpace(row[k])
	}
	return out
}

func normalizeFieldName(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
}
