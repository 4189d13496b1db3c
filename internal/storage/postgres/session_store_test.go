package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-radar/internal/domain"
	"event-radar/internal/storage"
)

func testSessionRecord(id string, startedAt int64) *domain.SessionRecord {
	return &domain.SessionRecord{
		SessionID:        id,
		Query:            "Barcelona",
		Status:           domain.SessionComplete,
		StartedAt:        startedAt,
		EndedAt:          startedAt + 4200,
		EventsTotal:      9,
		SourcesTotal:     4,
		SourcesSucceeded: 3,
		Summary:          "3/4 sources returned results - 9 total events",
	}
}

func TestSessionArchiveStore_InsertAndGetSession(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSessionArchiveStore(pool)
	ctx := context.Background()

	rec := testSessionRecord("sess-pg-1", 1700000000000)
	require.NoError(t, store.InsertSession(ctx, rec))

	got, err := store.GetSession(ctx, "sess-pg-1")
	require.NoError(t, err)
	assert.Equal(t, rec.SessionID, got.SessionID)
	assert.Equal(t, rec.Query, got.Query)
	assert.Equal(t, domain.SessionComplete, got.Status)
	assert.Equal(t, rec.StartedAt, got.StartedAt)
	assert.Equal(t, rec.EndedAt, got.EndedAt)
	assert.Equal(t, rec.EventsTotal, got.EventsTotal)
	assert.Equal(t, rec.Summary, got.Summary)
}

func TestSessionArchiveStore_InsertDuplicateSession(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSessionArchiveStore(pool)
	ctx := context.Background()

	require.NoError(t, store.InsertSession(ctx, testSessionRecord("sess-pg-1", 1000)))

	err := store.InsertSession(ctx, testSessionRecord("sess-pg-1", 2000))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSessionArchiveStore_GetMissingSession(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSessionArchiveStore(pool)

	_, err := store.GetSession(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSessionArchiveStore_EventsRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSessionArchiveStore(pool)
	ctx := context.Background()

	require.NoError(t, store.InsertSession(ctx, testSessionRecord("sess-pg-1", 1000)))

	start := time.Date(2025, 6, 14, 21, 0, 0, 0, time.UTC)
	events := []*domain.EventCandidate{
		{
			EventID:       "e1",
			Title:         "Festival de Jazz",
			Description:   "Open-air jazz festival at the marina",
			StartDateTime: &start,
			VenueName:     "Marina Port Vell",
			City:          "Barcelona",
			Province:      "Barcelona",
			Country:       "Spain",
			Category:      "music",
			Price:         ptr(25.0),
			IsFree:        ptr(false),
			SourceID:      "scraper-a",
		},
		{
			EventID:  "e2",
			Title:    "Free Walking Tour",
			City:     "Barcelona",
			IsFree:   ptr(true),
			SourceID: "scraper-b",
		},
	}
	require.NoError(t, store.InsertEvents(ctx, "sess-pg-1", events))

	got, err := store.GetEvents(ctx, "sess-pg-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "e1", got[0].EventID)
	assert.Equal(t, "Festival de Jazz", got[0].Title)
	require.NotNil(t, got[0].StartDateTime)
	assert.True(t, got[0].StartDateTime.Equal(start))
	require.NotNil(t, got[0].Price)
	assert.Equal(t, 25.0, *got[0].Price)

	assert.Equal(t, "e2", got[1].EventID)
	assert.Nil(t, got[1].StartDateTime)
	assert.Nil(t, got[1].Price)
	require.NotNil(t, got[1].IsFree)
	assert.True(t, *got[1].IsFree)
}

func TestSessionArchiveStore_ListRecent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSessionArchiveStore(pool)
	ctx := context.Background()

	for i, id := range []string{"sess-a", "sess-b", "sess-c"} {
		require.NoError(t, store.InsertSession(ctx, testSessionRecord(id, int64(1000*(i+1)))))
	}

	got, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "sess-c", got[0].SessionID)
	assert.Equal(t, "sess-b", got[1].SessionID)
}
