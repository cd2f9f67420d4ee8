package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCaptionCache(t *testing.T) {
	store := newTestStore(t)

	entry, err := store.GetCaptionCache("hash1", "openai")
	require.NoError(t, err)
	assert.Nil(t, entry)

	require.NoError(t, store.SetCaptionCache("hash1", "openai", "A cat on a sofa."))
	require.NoError(t, store.SetCaptionCache("hash1", "gemini", "A sleeping cat."))

	entry, err = store.GetCaptionCache("hash1", "openai")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "A cat on a sofa.", entry.Caption)
	assert.Equal(t, "openai", entry.Provider)
	assert.False(t, entry.CreatedAt.IsZero())

	require.NoError(t, store.SetCaptionCache("hash1", "openai", "Updated."))
	entry, err = store.GetCaptionCache("hash1", "openai")
	require.NoError(t, err)
	assert.Equal(t, "Updated.", entry.Caption)
}

func TestUploadHistory(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2024, 5, 9, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"a.png", "b.png", "c.mp4"} {
		rec := &UploadRecord{
			RunID:      "run-1",
			Note:       "posts/note.md",
			Asset:      name,
			Key:        "img/" + name,
			URL:        "https://cdn/img/" + name,
			UploadedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.RecordUpload(rec))
		assert.NotZero(t, rec.ID)
	}

	records, err := store.RecentUploads(2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "c.mp4", records[0].Asset)
	assert.Equal(t, "b.png", records[1].Asset)
	assert.Equal(t, "https://cdn/img/c.mp4", records[0].URL)
	assert.Equal(t, "run-1", records[0].RunID)
}
