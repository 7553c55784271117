package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	dsexif "github.com/dsoprea/go-exif/v3"
	"github.com/evanoberholster/imagemeta"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/spf13/afero"
)

const exifDateLayout = "2006:01:02 15:04:05"

// embeddedReader extracts DateTimeOriginal from an open file. ok is false
// when the file carries no usable capture date.
type embeddedReader struct {
	name string
	read func(r io.ReadSeeker) (time.Time, bool)
}

var (
	goexifReader    = embeddedReader{name: "goexif", read: readGoexifDate}
	imagemetaReader = embeddedReader{name: "imagemeta", read: readImagemetaDate}
	scanReader      = embeddedReader{name: "exif-scan", read: readScannedExifDate}
)

// rawExtensions are camera RAW formats. Most sniff as plain TIFF, so they
// are routed by extension.
var rawExtensions = map[string]bool{
	".cr2": true, ".cr3": true, ".nef": true, ".arw": true, ".dng": true,
	".orf": true, ".rw2": true, ".raf": true,
}

// readersFor orders the readers for a sniffed content type. HEIF family
// containers and RAW files go to imagemeta first.
func readersFor(mime *mimetype.MIME, path string) []embeddedReader {
	preferImagemeta := rawExtensions[strings.ToLower(filepath.Ext(path))]
	if mime != nil {
		for _, m := range []string{"image/heic", "image/heic-sequence", "image/heif", "image/heif-sequence", "image/avif"} {
			if mime.Is(m) {
				preferImagemeta = true
			}
		}
	}
	if preferImagemeta {
		return []embeddedReader{imagemetaReader, goexifReader, scanReader}
	}
	return []embeddedReader{goexifReader, imagemetaReader, scanReader}
}

func parseExifDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(exifDateLayout, s, time.Local)
	if err != nil || t.Year() < 1800 {
		return time.Time{}, false
	}
	return t, true
}

func readGoexifDate(r io.ReadSeeker) (time.Time, bool) {
	x, err := exif.Decode(r)
	if err != nil && x == nil {
		return time.Time{}, false
	}
	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return time.Time{}, false
	}
	s, err := tag.StringVal()
	if err != nil {
		return time.Time{}, false
	}
	return parseExifDate(s)
}

func readImagemetaDate(r io.ReadSeeker) (t time.Time, ok bool) {
	// imagemeta can panic on truncated containers
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()
	e, err := imagemeta.Decode(r)
	if err != nil {
		return time.Time{}, false
	}
	dt := e.DateTimeOriginal()
	if dt.IsZero() || dt.Year() < 1800 {
		return time.Time{}, false
	}
	// keep the recorded wall clock, matching the other readers
	return time.Date(dt.Year(), dt.Month(), dt.Day(), dt.Hour(), dt.Minute(), dt.Second(), dt.Nanosecond(), time.Local), true
}

func readScannedExifDate(r io.ReadSeeker) (t time.Time, ok bool) {
	// go-exif reports some malformed blocks by panicking
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()
	raw, err := dsexif.SearchAndExtractExifWithReader(r)
	if err != nil {
		return time.Time{}, false
	}
	entries, _, err := dsexif.GetFlatExifData(raw, &dsexif.ScanOptions{})
	if err != nil {
		return time.Time{}, false
	}
	for _, entry := range entries {
		if entry.TagName == "DateTimeOriginal" {
			return parseExifDate(entry.Formatted)
		}
	}
	return time.Time{}, false
}

// DateCacher stores resolved dates between runs
type DateCacher interface {
	Get(path string, size int64, modTime time.Time) (CaptureDate, bool)
	Put(path string, size int64, modTime time.Time, date CaptureDate) error
	UpdatePath(oldPath, newPath string)
}

// DateResolver resolves capture dates: embedded metadata when readable,
// the file's modification time otherwise.
type DateResolver struct {
	fs     afero.Fs
	cache  DateCacher
	logger *log.Logger
}

// NewDateResolver creates a resolver. cache may be nil.
func NewDateResolver(fs afero.Fs, cache DateCacher, logger *log.Logger) *DateResolver {
	return &DateResolver{fs: fs, cache: cache, logger: logger}
}

// Resolve returns the capture date of path. The only error is a failure to
// stat the file; metadata problems fall back to the modification time.
func (r *DateResolver) Resolve(path string) (CaptureDate, error) {
	info, err := r.fs.Stat(path)
	if err != nil {
		return CaptureDate{}, fmt.Errorf("stat %s: %w", path, err)
	}

	if r.cache != nil {
		if cd, ok := r.cache.Get(path, info.Size(), info.ModTime()); ok {
			return cd, nil
		}
	}

	cd := CaptureDate{Time: info.ModTime(), Source: SourceModTime}
	if t, ok := r.EmbeddedDate(path); ok {
		cd = CaptureDate{Time: t, Source: SourceEmbedded}
	} else {
		r.logger.Debug("No embedded capture date, using modification time", "path", path)
	}

	if r.cache != nil {
		if err := r.cache.Put(path, info.Size(), info.ModTime(), cd); err != nil {
			r.logger.Debug("Capture date not cached", "path", path, "err", err)
		}
	}
	return cd, nil
}

// EmbeddedDate reads DateTimeOriginal through the reader chain. ok is false
// when no reader produced a parseable timestamp.
func (r *DateResolver) EmbeddedDate(path string) (time.Time, bool) {
	f, err := r.fs.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	mime, _ := mimetype.DetectReader(f)
	for _, reader := range readersFor(mime, path) {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return time.Time{}, false
		}
		if t, ok := reader.read(f); ok {
			r.logger.Debug("Embedded capture date", "path", path, "reader", reader.name, "date", t)
			return t, true
		}
	}
	return time.Time{}, false
}

// Moved re-keys a cached date after the file changed path
func (r *DateResolver) Moved(oldPath, newPath string) {
	if r.cache != nil {
		r.cache.UpdatePath(oldPath, newPath)
	}
}
