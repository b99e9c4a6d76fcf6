package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"listing-parser/models"
	"listing-parser/utils"
)

// PostgresStore persists listing records to PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, waits for it to answer,
// runs schema migrations and returns a ready-to-use store.
func NewPostgresStore(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.DoContext(ctx, "postgres-ping", db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS parsed_listings (
			id          BIGSERIAL   PRIMARY KEY,
			raw_text    TEXT        NOT NULL,
			parsed_json TEXT        NOT NULL,
			source_url  TEXT        NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_parsed_listings_created_at ON parsed_listings(created_at);
	`)
	return err
}

// Create inserts rec and fills in the server-assigned id and timestamp.
func (ps *PostgresStore) Create(ctx context.Context, rec *models.ListingRecord) error {
	err := ps.db.QueryRowContext(ctx, `
		INSERT INTO parsed_listings (raw_text, parsed_json, source_url)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, rec.RawText, rec.ParsedJSON, rec.SourceURL).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: insert: %w", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return nil
}

// Get returns the record with the given id or ErrNotFound.
func (ps *PostgresStore) Get(ctx context.Context, id int64) (*models.ListingRecord, error) {
	row := ps.db.QueryRowContext(ctx, `
		SELECT id, raw_text, parsed_json, source_url, created_at
		FROM parsed_listings
		WHERE id = $1
	`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get %d: %w", id, err)
	}
	return rec, nil
}

// List returns up to limit records, newest first.
func (ps *PostgresStore) List(ctx context.Context, limit int) ([]*models.ListingRecord, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT id, raw_text, parsed_json, source_url, created_at
		FROM parsed_listings
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list: %w", err)
	}
	return collect(rows)
}

// All retrieves every stored record in insertion order; used by insights and export.
func (ps *PostgresStore) All(ctx context.Context) ([]*models.ListingRecord, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT id, raw_text, parsed_json, source_url, created_at
		FROM parsed_listings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	return collect(rows)
}

func (ps *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return ps.db.PingContext(ctx)
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.ListingRecord, error) {
	rec := &models.ListingRecord{}
	if err := row.Scan(&rec.ID, &rec.RawText, &rec.ParsedJSON, &rec.SourceURL, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(rec.ParsedJSON), &rec.Fields); err != nil {
		return nil, fmt.Errorf("decode parsed_json of %d: %w", rec.ID, err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

func collect(rows *sql.Rows) ([]*models.ListingRecord, error) {
	defer rows.Close()

	var records []*models.ListingRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
