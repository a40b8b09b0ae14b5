// Package ingest reads FAQ datasets and labelled evaluation queries from CSV.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/domain"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/reference"
)

const utf8BOM = "\ufeff"

// ReadCSV parses a dataset with a header row. The header must name the
// Question, Answer and Category columns; extra columns are carried through.
func ReadCSV(r io.Reader) ([]reference.Row, error) {
	header, records, err := readAll(r)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, domain.SchemaError("dataset is empty: no header row", nil)
	}
	if err := reference.ValidateHeader(header); err != nil {
		return nil, err
	}
	return toRows(header, records), nil
}

// LoadCSV opens path and parses it with ReadCSV.
func LoadCSV(path string) ([]reference.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.IOError(fmt.Sprintf("open dataset %s", path), err)
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return rows, nil
}

// LoadTable reads path and builds the reference table from it.
func LoadTable(path string) (*reference.Table, error) {
	rows, err := LoadCSV(path)
	if err != nil {
		return nil, err
	}
	return reference.LoadTable(rows)
}

func readAll(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, domain.IOError("read csv header", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], utf8BOM))
	}

	var records [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, domain.IOError("read csv record", err)
		}
		if isBlank(rec) {
			continue
		}
		records = append(records, rec)
	}
	return header, records, nil
}

// toRows keys each record by header name. Short records leave the trailing
// fields empty rather than absent, so the schema check only fails on headers.
func toRows(header []string, records [][]string) []reference.Row {
	rows := make([]reference.Row, 0, len(records))
	for _, rec := range records {
		row := make(reference.Row, len(header))
		for i, name := range header {
			if i < len(rec) {
				row[name] = rec[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
