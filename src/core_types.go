package main

import (
	"time"
)

// DateSource records where a capture date came from
type DateSource int

const (
	SourceModTime DateSource = iota
	SourceEmbedded
)

func (ds DateSource) String() string {
	return [...]string{"modtime", "embedded"}[ds]
}

// CaptureDate is a resolved capture timestamp and its origin
type CaptureDate struct {
	Time   time.Time
	Source DateSource
}

// MediaFile represents a source file with its resolved capture date
type MediaFile struct {
	Path    string
	Size    int64
	ModTime time.Time
	Date    CaptureDate
}

// Action is what happens to a source file once placed
type Action string

const (
	ActionCopy Action = "copy"
	ActionMove Action = "move"
)

// Layout selects the destination folder naming scheme
type Layout string

const (
	// LayoutMonthSuffix produces <year>/<MM> - <Mon> - <suffix>
	LayoutMonthSuffix Layout = "month-suffix"
	// LayoutYearMonth produces <year>-<MM>
	LayoutYearMonth Layout = "year-month"
)

// Collision selects what happens when the destination file already exists
type Collision string

const (
	CollisionOverwrite Collision = "overwrite"
	CollisionRename    Collision = "rename"
)

// Bucket is a (year, month) destination grouping
type Bucket struct {
	Year  int
	Month time.Month
}

// FolderStats counts what a run would do inside one bucket. Updated files
// replace an existing destination; under the rename collision policy every
// placed file counts as New.
type FolderStats struct {
	New      int
	Updated  int
	Existing int
	Bytes    int64
}

// BucketPreview is one row of a preview
type BucketPreview struct {
	Bucket Bucket
	Folder string
	Stats  FolderStats
}

// Preview is a dry-run tally across all buckets, sorted by bucket
type Preview struct {
	Buckets []BucketPreview
	Files   int
	Skipped int
}

// Placement maps one source file onto its destination
type Placement struct {
	Source string
	Dest   string
	Bucket Bucket
	Date   CaptureDate
	Size   int64
}

// Plan is the set of placements produced by one walk of the source tree
type Plan struct {
	Placements []Placement
	Skipped    int
}

// OrganizerConfig holds the parameters of one preview or organize run
type OrganizerConfig struct {
	SourceDir     string
	DestDir       string
	Action        Action
	Suffix        string
	Layout        Layout
	Collision     Collision
	From          *time.Time
	To            *time.Time
	Included      map[Bucket]bool // nil means every bucket
	Extensions    []string
	Exclude       []string
	SkipIdentical bool
}

// Outcome is what happened to a single file during a run
type Outcome int

const (
	OutcomeCopied Outcome = iota
	OutcomeMoved
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	return [...]string{"copied", "moved", "skipped", "failed"}[o]
}

// Progress is reported after each file of an organize run
type Progress struct {
	Processed int
	Total     int
	Source    string
	Dest      string
	Outcome   Outcome
}

// ProgressFunc receives progress synchronously from the worker
type ProgressFunc func(Progress)

// FileFailure records a file that could not be placed
type FileFailure struct {
	Path string
	Err  error
}

// Result is the terminal report of an organize run
type Result struct {
	RunID     string
	Total     int
	Processed int
	Copied    int
	Moved     int
	Skipped   int
	Failed    int
	Failures  []FileFailure
	Canceled  bool
	Elapsed   time.Duration
}

// Status returns "canceled" or "done"
func (r *Result) Status() string {
	if r.Canceled {
		return "canceled"
	}
	return "done"
}
