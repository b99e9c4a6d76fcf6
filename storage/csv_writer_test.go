package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-parser/models"
	"listing-parser/parser"
)

func TestCSVWriterWritesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	var w RecordExporter
	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	text := "Joe's Diner\nAsking Price: $150,000\nSpringfield, IL"
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []*models.ListingRecord{
		{ID: 7, RawText: text, Fields: parser.Parse(text), CreatedAt: created},
		{ID: 8, RawText: "", Fields: parser.Parse(""), CreatedAt: created, SourceURL: "https://example.com/l/8"},
	}
	require.NoError(t, w.WriteRecords(records))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{
		"7", "2026-03-01T12:00:00Z", "",
		"Joe's Diner", "150000", "", "", "false", "Springfield, IL",
		text,
	}, rows[1])
	assert.Equal(t, []string{
		"8", "2026-03-01T12:00:00Z", "https://example.com/l/8",
		"", "", "", "", "false", "",
		"",
	}, rows[2])
}
