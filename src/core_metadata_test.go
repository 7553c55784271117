package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryDateCache struct {
	dates  map[string]CaptureDate
	puts   int
	moves  map[string]string
	putErr error
}

func newMemoryDateCache() *memoryDateCache {
	return &memoryDateCache{dates: map[string]CaptureDate{}, moves: map[string]string{}}
}

func (c *memoryDateCache) Get(path string, size int64, modTime time.Time) (CaptureDate, bool) {
	cd, ok := c.dates[path]
	return cd, ok
}

func (c *memoryDateCache) Put(path string, size int64, modTime time.Time, date CaptureDate) error {
	c.puts++
	if c.putErr != nil {
		return c.putErr
	}
	c.dates[path] = date
	return nil
}

func (c *memoryDateCache) UpdatePath(oldPath, newPath string) {
	c.moves[oldPath] = newPath
}

func TestResolveEmbeddedDate(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/photos/IMG_0001.jpg", exifJPEG("2023:06:15 10:30:00"), 0644))
	mtime := day(2020, time.January, 1)
	require.NoError(t, fs.Chtimes("/photos/IMG_0001.jpg", mtime, mtime))

	cd, err := NewDateResolver(fs, nil, testLogger()).Resolve("/photos/IMG_0001.jpg")
	require.NoError(t, err)

	assert.Equal(t, SourceEmbedded, cd.Source)
	assert.True(t, cd.Time.Equal(time.Date(2023, time.June, 15, 10, 30, 0, 0, time.Local)), cd.Time.String())
}

func TestResolveFallsBackToModTime(t *testing.T) {
	fs := afero.NewMemMapFs()
	mtime := time.Date(2019, time.March, 3, 8, 0, 0, 0, time.Local)
	writePhoto(t, fs, "/photos/scan.png", "not really a png", mtime)

	cd, err := NewDateResolver(fs, nil, testLogger()).Resolve("/photos/scan.png")
	require.NoError(t, err)

	assert.Equal(t, SourceModTime, cd.Source)
	assert.True(t, cd.Time.Equal(mtime))
}

func TestResolveMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := NewDateResolver(fs, nil, testLogger()).Resolve("/photos/missing.jpg")
	assert.Error(t, err)
}

func TestResolveUsesCache(t *testing.T) {
	fs := afero.NewMemMapFs()
	mtime := day(2021, time.May, 5)
	writePhoto(t, fs, "/photos/a.jpg", "a", mtime)

	cache := newMemoryDateCache()
	resolver := NewDateResolver(fs, cache, testLogger())

	cd, err := resolver.Resolve("/photos/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.puts)

	// A cached answer wins over the file
	cached := CaptureDate{Time: day(2010, time.February, 2), Source: SourceEmbedded}
	cache.dates["/photos/a.jpg"] = cached
	again, err := resolver.Resolve("/photos/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, cached, again)
	assert.NotEqual(t, cd, again)
	assert.Equal(t, 1, cache.puts)

	resolver.Moved("/photos/a.jpg", "/dest/a.jpg")
	assert.Equal(t, "/dest/a.jpg", cache.moves["/photos/a.jpg"])
}

func TestParseExifDate(t *testing.T) {
	got, ok := parseExifDate("2023:06:15 10:30:00\x00")
	require.True(t, ok)
	assert.True(t, got.Equal(time.Date(2023, time.June, 15, 10, 30, 0, 0, time.Local)))

	for _, bad := range []string{"", "0000:00:00 00:00:00", "2023-06-15 10:30:00", "    :  :     :  :  "} {
		_, ok := parseExifDate(bad)
		assert.False(t, ok, bad)
	}
}

func TestResolvePNGExifChunk(t *testing.T) {
	data := exifPNG("2021:08:09 07:06:05")
	want := time.Date(2021, time.August, 9, 7, 6, 5, 0, time.Local)

	// goexif only understands JPEG and TIFF containers
	_, ok := readGoexifDate(bytes.NewReader(data))
	assert.False(t, ok)

	got, ok := readScannedExifDate(bytes.NewReader(data))
	require.True(t, ok)
	assert.True(t, got.Equal(want), got.String())

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/photos/screen.png", data, 0644))
	cd, err := NewDateResolver(fs, nil, testLogger()).Resolve("/photos/screen.png")
	require.NoError(t, err)
	assert.Equal(t, SourceEmbedded, cd.Source)
	assert.True(t, cd.Time.Equal(want), cd.Time.String())
}

func TestReadersSurviveGarbage(t *testing.T) {
	junk := []byte(strings.Repeat("\xff\xe1\x00\x10garbage", 8))
	for _, r := range []embeddedReader{goexifReader, imagemetaReader, scanReader} {
		_, ok := r.read(bytes.NewReader(junk))
		assert.False(t, ok, r.name)
	}
}

func TestReadersFor(t *testing.T) {
	tests := []struct {
		mime  string
		path  string
		first string
	}{
		{"image/jpeg", "/p/a.jpg", "goexif"},
		{"image/png", "/p/a.png", "goexif"},
		{"image/tiff", "/p/a.tiff", "goexif"},
		{"image/heic", "/p/a.heic", "imagemeta"},
		{"image/heif", "/p/a.heif", "imagemeta"},
		{"image/avif", "/p/a.avif", "imagemeta"},
		// RAW formats sniff as TIFF
		{"image/tiff", "/p/a.CR2", "imagemeta"},
		{"image/tiff", "/p/a.nef", "imagemeta"},
		{"image/tiff", "/p/a.dng", "imagemeta"},
		{"application/octet-stream", "/p/a.cr3", "imagemeta"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			mime := mimetype.Lookup(tt.mime)
			require.NotNil(t, mime, tt.mime)

			readers := readersFor(mime, tt.path)
			require.Len(t, readers, 3)
			assert.Equal(t, tt.first, readers[0].name)
			assert.Equal(t, "exif-scan", readers[2].name)
		})
	}

	assert.Equal(t, "goexif", readersFor(nil, "/p/a.jpg")[0].name)
}

func TestResolveLogsUncachedDate(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePhoto(t, fs, "/photos/a.jpg", "a", day(2021, time.May, 5))

	var logs bytes.Buffer
	logger := log.NewWithOptions(&logs, log.Options{Level: log.DebugLevel})
	cache := newMemoryDateCache()
	cache.putErr = errors.New("cache write queue full")

	cd, err := NewDateResolver(fs, cache, logger).Resolve("/photos/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, SourceModTime, cd.Source)
	assert.Contains(t, logs.String(), "Capture date not cached")
	assert.Contains(t, logs.String(), "cache write queue full")
}
