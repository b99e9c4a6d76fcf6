package storage

import (
	"context"
	"errors"

	"listing-parser/models"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("storage: listing record not found")

// RecordStore persists listing records. Records are append-only: there is no
// update or delete path. Create assigns ID and CreatedAt on the passed record.
type RecordStore interface {
	Create(ctx context.Context, rec *models.ListingRecord) error
	Get(ctx context.Context, id int64) (*models.ListingRecord, error)
	List(ctx context.Context, limit int) ([]*models.ListingRecord, error)
	All(ctx context.Context) ([]*models.ListingRecord, error)
	Ping(ctx context.Context) error
	Close() error
}

// RecordExporter writes stored records to an external audit format.
type RecordExporter interface {
	WriteRecords(records []*models.ListingRecord) error
	Close() error
}
