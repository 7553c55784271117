package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

var (
	ErrInvalidSource      = errors.New("source directory is missing or not a directory")
	ErrInvalidDestination = errors.New("destination directory is missing or not a directory")
	ErrSameDirectories    = errors.New("source and destination must differ")
	ErrInvalidDate        = errors.New("invalid date, want YYYY-MM-DD")
	ErrInvalidDateRange   = errors.New("start date is after end date")
	ErrNothingSelected    = errors.New("no folders selected to organize")
	ErrInvalidAction      = errors.New("action must be copy or move")
	ErrInvalidLayout      = errors.New("layout must be month-suffix or year-month")
	ErrInvalidCollision   = errors.New("collision must be overwrite or rename")
	ErrDestinationLocked  = errors.New("destination is locked by another run")
)

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date in local time. Empty input means no bound.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return &t, nil
}

// ParseAction maps user input onto an Action
func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionCopy, "":
		return ActionCopy, nil
	case ActionMove:
		return ActionMove, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// ParseLayout maps user input onto a Layout
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case LayoutMonthSuffix, "":
		return LayoutMonthSuffix, nil
	case LayoutYearMonth:
		return LayoutYearMonth, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLayout, s)
}

// ParseCollision maps user input onto a Collision policy
func ParseCollision(s string) (Collision, error) {
	switch Collision(strings.ToLower(strings.TrimSpace(s))) {
	case CollisionOverwrite, "":
		return CollisionOverwrite, nil
	case CollisionRename:
		return CollisionRename, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCollision, s)
}

// inRange reports whether t falls inside the inclusive calendar-day range
func (c *OrganizerConfig) inRange(t time.Time) bool {
	day := dayOf(t)
	if c.From != nil && day.Before(dayOf(*c.From)) {
		return false
	}
	if c.To != nil && day.After(dayOf(*c.To)) {
		return false
	}
	return true
}

func dayOf(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// includes reports whether a bucket is selected for execution
func (c *OrganizerConfig) includes(b Bucket) bool {
	return c.Included == nil || c.Included[b]
}

// Validate checks the directories and options on fs. Suffix, layout and
// collision are normalised in place.
func (c *OrganizerConfig) Validate(fs afero.Fs) error {
	if ok, _ := afero.DirExists(fs, c.SourceDir); c.SourceDir == "" || !ok {
		return fmt.Errorf("%w: %q", ErrInvalidSource, c.SourceDir)
	}
	if ok, _ := afero.DirExists(fs, c.DestDir); c.DestDir == "" || !ok {
		return fmt.Errorf("%w: %q", ErrInvalidDestination, c.DestDir)
	}
	if filepath.Clean(c.SourceDir) == filepath.Clean(c.DestDir) {
		return ErrSameDirectories
	}

	var err error
	if c.Action, err = ParseAction(string(c.Action)); err != nil {
		return err
	}
	if c.Layout, err = ParseLayout(string(c.Layout)); err != nil {
		return err
	}
	if c.Collision, err = ParseCollision(string(c.Collision)); err != nil {
		return err
	}
	c.Suffix = normalizeSuffix(c.Suffix)
	if len(c.Extensions) == 0 {
		c.Extensions = defaultExtensions()
	}

	if c.From != nil && c.To != nil && dayOf(*c.From).After(dayOf(*c.To)) {
		return ErrInvalidDateRange
	}
	if c.Included != nil && !anySelected(c.Included) {
		return ErrNothingSelected
	}
	return nil
}

func anySelected(set map[Bucket]bool) bool {
	for _, on := range set {
		if on {
			return true
		}
	}
	return false
}

// isNotExist treats afero's path errors like the os package does
func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
