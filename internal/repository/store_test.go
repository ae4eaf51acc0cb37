package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"propertychat/internal/model"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore("sqlite3", filepath.Join(t.TempDir(), "test.db"), 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_ResolveUserIDIsStable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.ResolveUserID(ctx, "profile-a")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	again, err := s.ResolveUserID(ctx, "profile-a")
	require.NoError(t, err)
	require.Equal(t, first, again)

	other, err := s.ResolveUserID(ctx, "profile-b")
	require.NoError(t, err)
	require.NotEqual(t, first, other)
}

func TestStore_SchemaIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.initSchema(context.Background()))
}

func TestStore_SearchLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.LogSearch(ctx, model.SearchLogEntry{
			UserID:      "u1",
			SessionID:   "s1",
			Source:      model.SourceFreeText,
			Query:       fmt.Sprintf("location=City%d", i),
			ResultCount: i,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.LogSearch(ctx, model.SearchLogEntry{UserID: "u2", SessionID: "s2", Source: model.SourceStructuredFilter, Query: "x"}))

	entries, err := s.RecentSearches(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "location=City2", entries[0].Query)
	require.Equal(t, "location=City1", entries[1].Query)
	require.Equal(t, 2, entries[0].ResultCount)
	require.NotEmpty(t, entries[0].ID)

	none, err := s.RecentSearches(ctx, "nobody", 10)
	require.NoError(t, err)
	require.Empty(t, none)
}
