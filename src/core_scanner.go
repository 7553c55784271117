package main

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

var (
	baseExtensions = []string{".jpg", ".jpeg", ".png", ".tiff", ".bmp"}

	extraPhotoExtensions = []string{
		".tif", ".heic", ".heif", ".cr2", ".nef", ".arw", ".dng",
	}

	excludePatterns = []string{
		"/.Trash/", "/.Trashes/", "/.Thumbnails/", "/Thumbnails/",
		"/@eaDir/", "/.Spotlight-V100/", "/.fseventsd/",
		"/$RECYCLE.BIN/", "/System Volume Information/",
	}
)

// ScanProgress tracks the source walk
type ScanProgress struct {
	Found       int
	CurrentFile string
}

// defaultExtensions returns the built-in extension list in normalized form
func defaultExtensions() []string {
	exts := append([]string{}, baseExtensions...)
	return normalizeExtensions(append(exts, extraPhotoExtensions...))
}

// normalizeExtensions lower-cases and dots every extension, dropping duplicates
func normalizeExtensions(exts []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !seen[ext] {
			seen[ext] = true
			out = append(out, ext)
		}
	}
	sort.Strings(out)
	return out
}

type extensionSet map[string]bool

func newExtensionSet(exts []string) extensionSet {
	set := make(extensionSet)
	for _, ext := range normalizeExtensions(exts) {
		set[ext] = true
	}
	return set
}

func (s extensionSet) matches(path string) bool {
	return s[strings.ToLower(filepath.Ext(path))]
}

// normalizeExcludes turns user entries into whole path segments, so
// "Thumbs" matches a Thumbs folder but not MyThumbsUp
func normalizeExcludes(patterns []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range patterns {
		p = strings.Trim(filepath.ToSlash(strings.TrimSpace(p)), "/")
		if p == "" {
			continue
		}
		p = "/" + p + "/"
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// shouldExclude checks a path against the exclude patterns
func shouldExclude(path string, patterns []string) bool {
	slashed := filepath.ToSlash(path) + "/"
	for _, pattern := range patterns {
		if strings.Contains(slashed, pattern) {
			return true
		}
	}
	return false
}

// isWithin reports whether path equals root or lies below it
func isWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// ScanMediaFiles walks basePath sequentially and returns matching files in
// lexical order. skipDir, when set, is pruned from the walk.
func ScanMediaFiles(ctx context.Context, fs afero.Fs, basePath string, exts []string, exclude []string, skipDir string, logger *log.Logger, progressChan chan<- ScanProgress) ([]*MediaFile, error) {
	var files []*MediaFile
	set := newExtensionSet(exts)
	patterns := append(append([]string{}, excludePatterns...), normalizeExcludes(exclude)...)
	skipDir = filepath.Clean(skipDir)

	err := afero.Walk(fs, basePath, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.Warn("Skipping unreadable path", "path", path, "err", err)
			return nil
		}

		if info.IsDir() {
			if path != basePath && (shouldExclude(path, patterns) || (skipDir != "." && isWithin(path, skipDir))) {
				return filepath.SkipDir
			}
			return nil
		}

		if !info.Mode().IsRegular() || !set.matches(path) {
			return nil
		}

		files = append(files, &MediaFile{
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})

		if progressChan != nil {
			select {
			case progressChan <- ScanProgress{Found: len(files), CurrentFile: path}:
			default:
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
