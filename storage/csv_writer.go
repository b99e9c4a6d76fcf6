package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"listing-parser/models"
)

var _ RecordExporter = (*CSVWriter)(nil)

var csvHeader = []string{
	"id", "created_at", "source_url",
	"business_name", "asking_price", "revenue", "sde", "real_estate", "location",
	"raw_text",
}

// CSVWriter exports listing records, one row per record, for offline audit.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRecords appends one row per record. Fields that were not extracted are empty cells.
func (c *CSVWriter) WriteRecords(records []*models.ListingRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range records {
		f := r.Fields
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.CreatedAt.Format(time.RFC3339),
			r.SourceURL,
			optString(f.BusinessName),
			optInt(f.AskingPrice),
			optInt(f.Revenue),
			optInt(f.SDE),
			strconv.FormatBool(f.RealEstate),
			optString(f.Location),
			r.RawText,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row %d: %w", r.ID, err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func optString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optInt(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}
