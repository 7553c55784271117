package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Organize copies or moves every planned file whose bucket is included.
// Cancellation is checked between files; a file already in progress always
// completes and nothing is rolled back. Per-file failures are recorded in
// the result and the run continues.
func (o *Organizer) Organize(ctx context.Context, cfg *OrganizerConfig, report ProgressFunc) (*Result, error) {
	if err := cfg.Validate(o.fs); err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.NewString()}
	logger := o.logger.With("run", result.RunID)
	start := time.Now()

	if o.LockDestination {
		unlock, err := lockDestination(cfg.DestDir)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	logger.Info("Organizing", "source", cfg.SourceDir, "dest", cfg.DestDir, "action", cfg.Action, "collision", cfg.Collision)

	plan, err := o.Plan(ctx, cfg)
	if err != nil {
		if ctx.Err() != nil {
			result.Canceled = true
			result.Elapsed = time.Since(start)
			logger.Info("Canceled while planning")
			return result, nil
		}
		return nil, err
	}

	var work []Placement
	for _, p := range plan.Placements {
		if cfg.includes(p.Bucket) {
			work = append(work, p)
		}
	}
	result.Total = len(work)

	for _, p := range work {
		if ctx.Err() != nil {
			result.Canceled = true
			break
		}

		dest, outcome, err := o.place(cfg, p)
		switch {
		case err != nil:
			result.Failed++
			result.Failures = append(result.Failures, FileFailure{Path: p.Source, Err: err})
			logger.Warn("Failed to place file", "path", p.Source, "err", err)
		case outcome == OutcomeCopied:
			result.Copied++
		case outcome == OutcomeMoved:
			result.Moved++
		case outcome == OutcomeSkipped:
			result.Skipped++
		}
		result.Processed++

		if report != nil {
			report(Progress{
				Processed: result.Processed,
				Total:     result.Total,
				Source:    p.Source,
				Dest:      dest,
				Outcome:   outcome,
			})
		}
	}

	result.Elapsed = time.Since(start)
	logger.Info("Organize finished", "status", result.Status(), "copied", result.Copied, "moved", result.Moved,
		"skipped", result.Skipped, "failed", result.Failed, "elapsed", result.Elapsed)
	return result, nil
}

// place performs one copy or move and returns the final destination path
func (o *Organizer) place(cfg *OrganizerConfig, p Placement) (string, Outcome, error) {
	dest := p.Dest
	if filepath.Clean(p.Source) == filepath.Clean(dest) {
		return dest, OutcomeSkipped, nil
	}

	if err := o.fs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return dest, OutcomeFailed, fmt.Errorf("create folder %s: %w", filepath.Dir(dest), err)
	}

	if _, err := o.fs.Stat(dest); err == nil {
		if cfg.SkipIdentical {
			same, err := sameContent(o.fs, p.Source, dest)
			if err != nil {
				return dest, OutcomeFailed, fmt.Errorf("compare with %s: %w", dest, err)
			}
			if same {
				if cfg.Action == ActionMove {
					if err := o.fs.Remove(p.Source); err != nil {
						return dest, OutcomeFailed, fmt.Errorf("remove duplicate source: %w", err)
					}
				}
				return dest, OutcomeSkipped, nil
			}
		}
		if cfg.Collision == CollisionRename {
			dest = ensureUniqueFilename(o.fs, dest)
		}
	}

	if cfg.Action == ActionMove {
		if err := moveFile(o.fs, p.Source, dest); err != nil {
			return dest, OutcomeFailed, err
		}
		if m, ok := o.resolver.(interface{ Moved(oldPath, newPath string) }); ok {
			m.Moved(p.Source, dest)
		}
		return dest, OutcomeMoved, nil
	}

	if err := copyFile(o.fs, p.Source, dest); err != nil {
		return dest, OutcomeFailed, err
	}
	return dest, OutcomeCopied, nil
}

// moveFile moves a file, with fallback to copy+delete if cross-device
func moveFile(fs afero.Fs, src, dst string) error {
	// Try rename first (fast, atomic)
	err := fs.Rename(src, dst)
	if err == nil {
		return nil
	}

	if err := copyFile(fs, src, dst); err != nil {
		return fmt.Errorf("copy: %w", err)
	}

	if err := fs.Remove(src); err != nil {
		return fmt.Errorf("remove source: %w", err)
	}

	return nil
}

// copyFile copies a file preserving permissions and modification time
func copyFile(fs afero.Fs, src, dst string) error {
	srcFile, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return err
	}
	if err := dstFile.Sync(); err != nil {
		dstFile.Close()
		return err
	}
	if err := dstFile.Close(); err != nil {
		return err
	}

	if err := fs.Chmod(dst, srcInfo.Mode().Perm()); err != nil {
		return err
	}
	return fs.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime())
}

// ensureUniqueFilename adds a counter before the extension until the name is free
func ensureUniqueFilename(fs afero.Fs, path string) string {
	if _, err := fs.Stat(path); isNotExist(err) {
		return path
	}

	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	base := filepath.Base(path)
	name := base[:len(base)-len(ext)]

	for i := 1; ; i++ {
		newPath := filepath.Join(dir, fmt.Sprintf("%s_%d%s", name, i, ext))
		if _, err := fs.Stat(newPath); isNotExist(err) {
			return newPath
		}
	}
}
