package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cascadialive/showcrawler/internal/catalog"
)

// memoryStore is a stateful fake of the record-store API keyed by the
// identity filter, so upsert semantics can be asserted across runs.
type memoryStore struct {
	docs      map[string]json.RawMessage
	failTitle string
	inserts   int
	updates   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{docs: map[string]json.RawMessage{}}
}

func filterKey(filter map[string]any) string {
	return fmt.Sprintf("%v|%v|%v|%v", filter["title"], filter["venue"], filter["date"], filter["city"])
}

func (m *memoryStore) Query(_ context.Context, _ string, filter map[string]any) ([]json.RawMessage, error) {
	if m.failTitle != "" && filter["title"] == m.failTitle {
		return nil, errors.New("store unavailable")
	}
	if doc, ok := m.docs[filterKey(filter)]; ok {
		return []json.RawMessage{doc}, nil
	}
	return nil, nil
}

func (m *memoryStore) Insert(_ context.Context, _ string, document any) error {
	show := document.(catalog.Show)
	data, err := json.Marshal(show)
	if err != nil {
		return err
	}
	key := filterKey(map[string]any{
		"title": show.Title, "venue": show.Venue, "date": show.Date, "city": show.City,
	})
	m.docs[key] = data
	m.inserts++
	return nil
}

func (m *memoryStore) Update(_ context.Context, _ string, filter map[string]any, patch any) error {
	data, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	m.docs[filterKey(filter)] = data
	m.updates++
	return nil
}

func testShows(n int) []catalog.Show {
	shows := make([]catalog.Show, 0, n)
	for i := 0; i < n; i++ {
		shows = append(shows, catalog.Show{
			Title: fmt.Sprintf("Band %d", i),
			Venue: "Crystal Ballroom",
			City:  "Portland",
			Date:  "2026-10-01",
			Genre: []string{"Rock"},
		})
	}
	return shows
}

func TestSyncIsIdempotent(t *testing.T) {
	mem := newMemoryStore()
	engine := New(mem, "shows", "portland", zap.NewNop())
	shows := testShows(3)

	first := engine.Sync(context.Background(), shows)
	require.Equal(t, Stats{Added: 3, Updated: 0, Skipped: 0, Total: 3}, first)

	second := engine.Sync(context.Background(), shows)
	require.Equal(t, Stats{Added: 0, Updated: 3, Skipped: 0, Total: 3}, second)

	require.Len(t, mem.docs, 3, "no duplicate identities are ever created")
}

func TestSyncForcesIsPublic(t *testing.T) {
	mem := newMemoryStore()
	engine := New(mem, "shows", "portland", zap.NewNop())

	engine.Sync(context.Background(), testShows(1))

	var stored catalog.Show
	for _, doc := range mem.docs {
		require.NoError(t, json.Unmarshal(doc, &stored))
	}
	require.True(t, stored.IsPublic)
}

func TestSyncSkipsFailedRecordAndContinues(t *testing.T) {
	mem := newMemoryStore()
	mem.failTitle = "Band 1"
	engine := New(mem, "shows", "portland", zap.NewNop())

	stats := engine.Sync(context.Background(), testShows(3))

	require.Equal(t, Stats{Added: 2, Updated: 0, Skipped: 1, Total: 3}, stats)
	require.Len(t, mem.docs, 2)
}
