package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const defaultSuffix = "Misc"

// BucketOf returns the year/month bucket a date falls into
func BucketOf(t time.Time) Bucket {
	return Bucket{Year: t.Year(), Month: t.Month()}
}

func (b Bucket) String() string {
	return fmt.Sprintf("%04d/%02d", b.Year, int(b.Month))
}

// Before orders buckets chronologically
func (b Bucket) Before(other Bucket) bool {
	if b.Year != other.Year {
		return b.Year < other.Year
	}
	return b.Month < other.Month
}

// ParseBucket accepts YYYY/MM, YYYY-MM and single-digit months
func ParseBucket(s string) (Bucket, error) {
	s = strings.TrimSpace(s)
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '-'
	})
	if len(parts) != 2 || len(parts[0]) != 4 {
		return Bucket{}, fmt.Errorf("parse bucket %q: want YYYY/MM", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Bucket{}, fmt.Errorf("parse bucket %q: %w", s, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return Bucket{}, fmt.Errorf("parse bucket %q: month out of range", s)
	}
	return Bucket{Year: year, Month: time.Month(month)}, nil
}

// normalizeSuffix trims the suffix, defaults it, and keeps it to one path element
func normalizeSuffix(suffix string) string {
	suffix = strings.TrimSpace(suffix)
	if suffix == "" {
		return defaultSuffix
	}
	return strings.NewReplacer("/", "_", "\\", "_").Replace(suffix)
}

// FolderName returns the bucket folder path relative to the destination root
func FolderName(b Bucket, suffix string, layout Layout) string {
	year := fmt.Sprintf("%04d", b.Year)
	if layout == LayoutYearMonth {
		return fmt.Sprintf("%s-%02d", year, int(b.Month))
	}
	month := fmt.Sprintf("%02d - %s - %s", int(b.Month), b.Month.String()[:3], normalizeSuffix(suffix))
	return filepath.Join(year, month)
}

// DeriveDestination returns the destination folder for a capture date.
// It is a pure function of its inputs.
func DeriveDestination(root string, date time.Time, suffix string, layout Layout) string {
	return filepath.Join(root, FolderName(BucketOf(date), suffix, layout))
}
