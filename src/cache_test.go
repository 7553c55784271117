package main

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateCachePersists(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dates.db")
	mtime := time.Date(2023, time.June, 15, 10, 30, 0, 123, time.Local)
	taken := CaptureDate{Time: time.Date(2023, time.June, 14, 9, 0, 0, 0, time.Local), Source: SourceEmbedded}

	cache, err := OpenDateCache(dbPath, testLogger())
	require.NoError(t, err)
	require.NoError(t, cache.Put("/photos/a.jpg", 100, mtime, taken))
	require.NoError(t, cache.Put("/photos/b.jpg", 200, mtime, CaptureDate{Time: mtime, Source: SourceModTime}))
	require.NoError(t, cache.Close())

	cache, err = OpenDateCache(dbPath, testLogger())
	require.NoError(t, err)
	defer cache.Close()

	got, ok := cache.Get("/photos/a.jpg", 100, mtime)
	require.True(t, ok)
	assert.Equal(t, SourceEmbedded, got.Source)
	assert.True(t, got.Time.Equal(taken.Time))

	_, ok = cache.Get("/photos/a.jpg", 101, mtime)
	assert.False(t, ok, "size changed")
	_, ok = cache.Get("/photos/a.jpg", 100, mtime.Add(time.Second))
	assert.False(t, ok, "mtime changed")

	total, embedded := cache.Stats()
	assert.Equal(t, int64(2), total)
	assert.Equal(t, int64(1), embedded)
}

func TestDateCacheUpdatePathAndPrune(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "dates.db")
	mtime := time.Date(2022, time.January, 1, 0, 0, 0, 0, time.Local)
	date := CaptureDate{Time: mtime, Source: SourceModTime}

	cache, err := OpenDateCache(dbPath, testLogger())
	require.NoError(t, err)
	require.NoError(t, cache.Put("/src/a.jpg", 1, mtime, date))
	require.NoError(t, cache.Put("/src/b.jpg", 1, mtime, date))
	require.NoError(t, cache.Close())

	cache, err = OpenDateCache(dbPath, testLogger())
	require.NoError(t, err)
	defer cache.Close()

	cache.UpdatePath("/src/a.jpg", "/dest/2022/01 - Jan - Misc/a.jpg")
	_, ok := cache.Get("/src/a.jpg", 1, mtime)
	assert.False(t, ok)
	_, ok = cache.Get("/dest/2022/01 - Jan - Misc/a.jpg", 1, mtime)
	assert.True(t, ok)

	pruned, err := cache.Prune(func(path string) bool { return path != "/src/b.jpg" })
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	total, _ := cache.Stats()
	assert.Equal(t, int64(1), total)
}

func TestDateCachePutAfterClose(t *testing.T) {
	cache, err := OpenDateCache(filepath.Join(t.TempDir(), "dates.db"), testLogger())
	require.NoError(t, err)
	mtime := time.Date(2022, time.January, 1, 0, 0, 0, 0, time.Local)
	date := CaptureDate{Time: mtime, Source: SourceModTime}

	// Resolvers may still be writing while the cache shuts down
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				cache.Put("/src/a.jpg", int64(j), mtime, date)
			}
		}()
	}
	require.NoError(t, cache.Close())
	wg.Wait()

	assert.ErrorIs(t, cache.Put("/src/a.jpg", 1, mtime, date), errCacheClosed)
	assert.NoError(t, cache.Close())
}
