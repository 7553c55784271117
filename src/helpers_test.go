package main

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestOrganizer(fs afero.Fs) *Organizer {
	return NewOrganizer(fs, NewDateResolver(fs, nil, testLogger()), testLogger())
}

// writePhoto creates a file with no embedded metadata, so its capture date
// is the modification time
func writePhoto(t *testing.T, fs afero.Fs, path, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
	require.NoError(t, fs.Chtimes(path, mtime, mtime))
}

func mkdirs(t *testing.T, fs afero.Fs, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, fs.MkdirAll(d, 0755))
	}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.Local)
}

// listFiles returns every regular file below root, sorted
func listFiles(t *testing.T, fs afero.Fs, root string) []string {
	t.Helper()
	var files []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(files)
	return files
}

func baseConfig(src, dest string) *OrganizerConfig {
	return &OrganizerConfig{
		SourceDir: src,
		DestDir:   dest,
		Action:    ActionCopy,
		Suffix:    "Misc",
	}
}

// exifTIFF builds a little-endian TIFF block whose Exif sub-IFD carries
// DateTimeOriginal
func exifTIFF(dateTime string) []byte {
	le := binary.LittleEndian
	var b bytes.Buffer
	w := func(v any) { binary.Write(&b, le, v) }

	value := append([]byte(dateTime), 0)

	// header
	b.WriteString("II")
	w(uint16(42))
	w(uint32(8))

	// IFD0 at 8: one entry pointing at the Exif IFD
	const exifIFD = 8 + 2 + 12 + 4
	w(uint16(1))
	w(uint16(0x8769))
	w(uint16(4))
	w(uint32(1))
	w(uint32(exifIFD))
	w(uint32(0))

	// Exif IFD: DateTimeOriginal as ASCII
	const valueOffset = exifIFD + 2 + 12 + 4
	w(uint16(1))
	w(uint16(0x9003))
	w(uint16(2))
	w(uint32(len(value)))
	w(uint32(valueOffset))
	w(uint32(0))

	b.Write(value)
	return b.Bytes()
}

// exifJPEG wraps an Exif block in a minimal JPEG container
func exifJPEG(dateTime string) []byte {
	tiff := exifTIFF(dateTime)
	var b bytes.Buffer
	b.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	binary.Write(&b, binary.BigEndian, uint16(2+6+len(tiff)))
	b.WriteString("Exif\x00\x00")
	b.Write(tiff)
	b.Write([]byte{0xFF, 0xD9})
	return b.Bytes()
}

// exifPNG builds a 1x1 PNG whose eXIf chunk holds the Exif block
func exifPNG(dateTime string) []byte {
	var b bytes.Buffer
	chunk := func(kind string, data []byte) {
		binary.Write(&b, binary.BigEndian, uint32(len(data)))
		b.WriteString(kind)
		b.Write(data)
		binary.Write(&b, binary.BigEndian, crc32.ChecksumIEEE(append([]byte(kind), data...)))
	}

	b.WriteString("\x89PNG\r\n\x1a\n")
	chunk("IHDR", []byte{0, 0, 0, 1, 0, 0, 0, 1, 8, 2, 0, 0, 0})
	chunk("eXIf", exifTIFF(dateTime))
	chunk("IEND", nil)
	return b.Bytes()
}
