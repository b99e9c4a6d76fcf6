package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-parser/models"
	"listing-parser/parser"
)

func newRecord(text string) *models.ListingRecord {
	return &models.ListingRecord{
		RawText:    text,
		ParsedJSON: `{"real_estate":false}`,
		Fields:     parser.Parse(text),
	}
}

func TestMemoryStoreCreateAssignsIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	a, b := newRecord("A"), newRecord("B")
	require.NoError(t, s.Create(ctx, a))
	require.NoError(t, s.Create(ctx, b))

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)
	assert.False(t, a.CreatedAt.IsZero())
	assert.Equal(t, "UTC", a.CreatedAt.Location().String())
}

func TestMemoryStoreGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	rec := newRecord("Corner Bakery")
	require.NoError(t, s.Create(ctx, rec))

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Corner Bakery", got.RawText)

	_, err = s.Get(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreRecordsAreImmutable(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	rec := newRecord("original")
	require.NoError(t, s.Create(ctx, rec))

	rec.RawText = "mutated by caller"
	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	got.RawText = "mutated copy"

	again, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", again.RawText)
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, s.Create(ctx, newRecord(text)))
	}

	list, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "three", list[0].RawText)
	assert.Equal(t, "two", list[1].RawText)

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "one", all[0].RawText)
}

func TestMemoryStoreConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Create(ctx, newRecord("x"))
		}()
	}
	wg.Wait()

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 50)

	seen := make(map[int64]bool)
	for _, r := range all {
		assert.False(t, seen[r.ID], "duplicate id %d", r.ID)
		seen[r.ID] = true
	}
}
