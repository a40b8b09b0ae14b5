package reference

import (
	"fmt"
	"strings"
)

// CategoryFilter is a validated category selection. The zero value selects All.
type CategoryFilter struct {
	category string
}

// NewFilter validates value against the table's categories. An empty value
// selects AllCategories.
func (t *Table) NewFilter(value string) (CategoryFilter, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == AllCategories {
		return CategoryFilter{}, nil
	}
	if !t.HasCategory(value) {
		return CategoryFilter{}, fmt.Errorf("%w: %q", ErrUnknownCategory, value)
	}
	return CategoryFilter{category: value}, nil
}

// Value returns the selected category, or AllCategories.
func (f CategoryFilter) Value() string {
	if f.category == "" {
		return AllCategories
	}
	return f.category
}

// IsAll reports whether the filter selects every record.
func (f CategoryFilter) IsAll() bool {
	return f.category == ""
}

// Apply returns the working candidate set for this filter.
func (f CategoryFilter) Apply(t *Table) []Record {
	return t.FilterByCategory(f.Value())
}
