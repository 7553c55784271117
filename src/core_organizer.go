package main

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// Resolver returns the capture date of a file
type Resolver interface {
	Resolve(path string) (CaptureDate, error)
}

// Organizer plans, previews and executes placements on a filesystem
type Organizer struct {
	fs       afero.Fs
	resolver Resolver
	logger   *log.Logger

	// LockDestination guards organize runs with a lock file in the destination
	LockDestination bool
	// ScanProgress, when set, receives non-blocking walk updates
	ScanProgress chan<- ScanProgress
}

// NewOrganizer creates an organizer over fs
func NewOrganizer(fs afero.Fs, resolver Resolver, logger *log.Logger) *Organizer {
	return &Organizer{fs: fs, resolver: resolver, logger: logger}
}

// Plan walks the source tree and maps every matching file in the date range
// onto its destination. The config must already be validated.
func (o *Organizer) Plan(ctx context.Context, cfg *OrganizerConfig) (*Plan, error) {
	skipDir := ""
	if isWithin(cfg.DestDir, cfg.SourceDir) {
		skipDir = cfg.DestDir
	}

	files, err := ScanMediaFiles(ctx, o.fs, cfg.SourceDir, cfg.Extensions, cfg.Exclude, skipDir, o.logger, o.ScanProgress)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Placements: make([]Placement, 0, len(files))}
	for _, mf := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		date, err := o.resolver.Resolve(mf.Path)
		if err != nil {
			o.logger.Warn("Skipping file", "path", mf.Path, "err", err)
			plan.Skipped++
			continue
		}
		mf.Date = date

		if !cfg.inRange(date.Time) {
			plan.Skipped++
			continue
		}

		folder := DeriveDestination(cfg.DestDir, date.Time, cfg.Suffix, cfg.Layout)
		plan.Placements = append(plan.Placements, Placement{
			Source: mf.Path,
			Dest:   filepath.Join(folder, filepath.Base(mf.Path)),
			Bucket: BucketOf(date.Time),
			Date:   date,
			Size:   mf.Size,
		})
	}

	return plan, nil
}

// Preview tallies what an organize run would do per bucket without writing
// anything.
func (o *Organizer) Preview(ctx context.Context, cfg *OrganizerConfig) (*Preview, error) {
	if err := cfg.Validate(o.fs); err != nil {
		return nil, err
	}

	plan, err := o.Plan(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return o.tally(cfg, plan)
}

func (o *Organizer) tally(cfg *OrganizerConfig, plan *Plan) (*Preview, error) {
	stats := make(map[Bucket]*FolderStats)
	touched := make(map[Bucket]map[string]bool)

	for _, p := range plan.Placements {
		s, ok := stats[p.Bucket]
		if !ok {
			s = &FolderStats{}
			stats[p.Bucket] = s
			touched[p.Bucket] = make(map[string]bool)
		}

		dest := filepath.Clean(p.Dest)
		// rename never replaces the existing file, it adds a _N sibling
		if _, err := o.fs.Stat(dest); err == nil && cfg.Collision != CollisionRename {
			s.Updated++
			touched[p.Bucket][dest] = true
		} else {
			s.New++
		}
		s.Bytes += p.Size
	}

	exts := newExtensionSet(cfg.Extensions)
	preview := &Preview{Files: len(plan.Placements), Skipped: plan.Skipped}
	for bucket, s := range stats {
		folder := filepath.Join(cfg.DestDir, FolderName(bucket, cfg.Suffix, cfg.Layout))

		// Files already in the folder that this run leaves alone
		entries, err := afero.ReadDir(o.fs, folder)
		if err != nil && !isNotExist(err) {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || !exts.matches(entry.Name()) {
				continue
			}
			if !touched[bucket][filepath.Join(folder, entry.Name())] {
				s.Existing++
			}
		}

		preview.Buckets = append(preview.Buckets, BucketPreview{
			Bucket: bucket,
			Folder: FolderName(bucket, cfg.Suffix, cfg.Layout),
			Stats:  *s,
		})
	}

	sort.Slice(preview.Buckets, func(i, j int) bool {
		return preview.Buckets[i].Bucket.Before(preview.Buckets[j].Bucket)
	})

	return preview, nil
}

// Totals sums the stats of every bucket
func (p *Preview) Totals() FolderStats {
	var t FolderStats
	for _, b := range p.Buckets {
		t.New += b.Stats.New
		t.Updated += b.Stats.Updated
		t.Existing += b.Stats.Existing
		t.Bytes += b.Stats.Bytes
	}
	return t
}
