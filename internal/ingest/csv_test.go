package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/domain"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/reference"
)

const sampleCSV = `Question,Answer,Category
What are your hours?,9-5,General
What is your refund policy?,"30 days, no questions asked",Billing
`

func TestReadCSV_Valid(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(sampleCSV))

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "30 days, no questions asked", rows[1]["Answer"])

	table, err := reference.LoadTable(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"General", "Billing"}, table.DistinctCategories())
}

func TestReadCSV_HeaderWhitespaceAndBOM(t *testing.T) {
	data := "\ufeffQuestion , Answer,Category \nWhat are your hours?,9-5,General\n"

	rows, err := ReadCSV(strings.NewReader(data))

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "What are your hours?", rows[0]["Question"])
	assert.Equal(t, "General", rows[0]["Category"])
}

func TestReadCSV_MissingAnswerColumn(t *testing.T) {
	data := "Question,Category\nWhat are your hours?,General\n"

	_, err := ReadCSV(strings.NewReader(data))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSchema))
	assert.Contains(t, err.Error(), "answer")
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSchema))
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("Question,Answer,Category\n"))

	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadCSV_SkipsBlankLinesAndPadsShortRecords(t *testing.T) {
	data := "Question,Answer,Category\n,,\nWhat are your hours?,9-5\n"

	rows, err := ReadCSV(strings.NewReader(data))

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0]["Category"])
}

func TestReadCSV_Malformed(t *testing.T) {
	data := "Question,Answer,Category\n\"unterminated,9-5,General\n"

	_, err := ReadCSV(strings.NewReader(data))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIO))
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIO))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadTable_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	table, err := LoadTable(path)

	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}

func TestReadQueries(t *testing.T) {
	data := "Query,Expected,Category\nwhat r ur hours,What are your hours?,General\ntell me a joke,,\n"

	queries, err := ReadQueries(strings.NewReader(data))

	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Equal(t, LabelledQuery{Query: "what r ur hours", Expected: "What are your hours?", Category: "General"}, queries[0])
	assert.Equal(t, "", queries[1].Expected)
}

func TestReadQueries_MissingColumn(t *testing.T) {
	_, err := ReadQueries(strings.NewReader("Query\nhello\n"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSchema))
}
