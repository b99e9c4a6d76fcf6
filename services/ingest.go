package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"listing-parser/models"
	"listing-parser/parser"
	"listing-parser/storage"
	"listing-parser/utils"
)

// ErrTextTooLarge is returned when listing text exceeds the configured limit.
var ErrTextTooLarge = errors.New("listing text exceeds size limit")

// IngestResult is the stored record plus the rules that produced its fields.
type IngestResult struct {
	Record  *models.ListingRecord
	Matches []parser.Match
}

// Ingestor parses listing text and persists the raw input next to the result.
type Ingestor struct {
	store        storage.RecordStore
	logger       *utils.Logger
	maxTextBytes int
}

// NewIngestor creates an Ingestor. maxTextBytes <= 0 disables the size check.
func NewIngestor(store storage.RecordStore, logger *utils.Logger, maxTextBytes int) *Ingestor {
	return &Ingestor{store: store, logger: logger, maxTextBytes: maxTextBytes}
}

// Preview runs the size check, sanitization and extraction without storing
// anything. It returns the sanitized text alongside the result.
func (s *Ingestor) Preview(text string) (string, parser.Fields, []parser.Match, error) {
	if s.maxTextBytes > 0 && len(text) > s.maxTextBytes {
		return "", parser.Fields{}, nil, fmt.Errorf("%w: %d > %d bytes", ErrTextTooLarge, len(text), s.maxTextBytes)
	}
	text = strings.ToValidUTF8(text, "\uFFFD")
	fields, matches := parser.Analyze(parser.Normalize(text))
	return text, fields, matches, nil
}

// Ingest sanitizes text, extracts fields and stores a new record. sourceURL
// is recorded when the text came from a fetched page and may be empty.
func (s *Ingestor) Ingest(ctx context.Context, text, sourceURL string) (*IngestResult, error) {
	start := time.Now()
	text, fields, matches, err := s.Preview(text)
	if err != nil {
		return nil, err
	}

	parsed, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("ingest: encode fields: %w", err)
	}
	s.logger.Debug("[ingest] Extracted %d fields in %v: %s", len(fields.Present()), time.Since(start), parsed)

	rec := &models.ListingRecord{
		RawText:    text,
		ParsedJSON: string(parsed),
		Fields:     fields,
		SourceURL:  sourceURL,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("ingest: store record: %w", err)
	}

	s.logger.Info("[ingest] Parsed listing saved: id=%d", rec.ID)
	s.logger.Debug("[ingest] Saved record id=%d created_at=%s source_url=%q parsed_json=%s raw_text=%q",
		rec.ID, rec.CreatedAt.Format(time.RFC3339), rec.SourceURL, rec.ParsedJSON, rec.RawText)

	return &IngestResult{Record: rec, Matches: matches}, nil
}

// Get returns a stored record.
func (s *Ingestor) Get(ctx context.Context, id int64) (*models.ListingRecord, error) {
	return s.store.Get(ctx, id)
}

// Recent returns up to limit records, newest first.
func (s *Ingestor) Recent(ctx context.Context, limit int) ([]*models.ListingRecord, error) {
	return s.store.List(ctx, limit)
}
