package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"
)

type cacheWriteRequest struct {
	path    string
	size    int64
	modTime time.Time
	date    CaptureDate
}

// DateCache persists resolved capture dates keyed by path, size and mtime
type DateCache struct {
	db         *sql.DB
	logger     *log.Logger
	writeChan  chan cacheWriteRequest
	writerDone sync.WaitGroup

	// mu orders Put against Close so nothing is sent on a closed channel
	mu     sync.RWMutex
	closed bool
}

var (
	errCacheClosed = errors.New("cache closed")
	errCacheFull   = errors.New("cache write queue full")
)

// defaultCachePath returns the per-user cache database location
func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".photo-organizer", "dates.db")
	}
	return filepath.Join(dir, "photo-organizer", "dates.db")
}

// OpenDateCache opens or creates the cache database at dbPath
func OpenDateCache(dbPath string, logger *log.Logger) (*DateCache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS capture_dates (
		path TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		mod_time INTEGER NOT NULL,
		date_taken INTEGER NOT NULL,
		source TEXT NOT NULL,
		resolved_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_source ON capture_dates(source);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	cache := &DateCache{
		db:        db,
		logger:    logger,
		writeChan: make(chan cacheWriteRequest, 1000),
	}

	// Single writer keeps sqlite from contending with itself
	cache.writerDone.Add(1)
	go cache.writerLoop()

	return cache, nil
}

func (c *DateCache) writerLoop() {
	defer c.writerDone.Done()

	for req := range c.writeChan {
		c.writeToDatabase(req)
	}
}

// Close flushes pending writes and closes the database
func (c *DateCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.writeChan)
	c.mu.Unlock()

	c.writerDone.Wait()
	return c.db.Close()
}

// Get returns the cached date when size and mtime still match
func (c *DateCache) Get(path string, size int64, modTime time.Time) (CaptureDate, bool) {
	var dateTaken int64
	var source string

	err := c.db.QueryRow(`
		SELECT date_taken, source
		FROM capture_dates
		WHERE path = ? AND size = ? AND mod_time = ?
	`, path, size, modTime.UnixNano()).Scan(&dateTaken, &source)
	if err != nil {
		return CaptureDate{}, false
	}

	cd := CaptureDate{Time: time.Unix(0, dateTaken), Source: SourceModTime}
	if source == SourceEmbedded.String() {
		cd.Source = SourceEmbedded
	}
	return cd, true
}

// Put queues a date for writing (non-blocking)
func (c *DateCache) Put(path string, size int64, modTime time.Time, date CaptureDate) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errCacheClosed
	}

	select {
	case c.writeChan <- cacheWriteRequest{path: path, size: size, modTime: modTime, date: date}:
		return nil
	default:
		return errCacheFull
	}
}

func (c *DateCache) writeToDatabase(req cacheWriteRequest) {
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO capture_dates
		(path, size, mod_time, date_taken, source, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, req.path, req.size, req.modTime.UnixNano(), req.date.Time.UnixNano(),
		req.date.Source.String(), time.Now().Unix())

	if err != nil {
		// cache is best-effort
		c.logger.Warn("Cache write failed", "path", req.path, "err", err)
	}
}

// UpdatePath re-keys an entry after a move. Pending writes are not
// reordered, so a Put for oldPath queued earlier may still land.
func (c *DateCache) UpdatePath(oldPath, newPath string) {
	if _, err := c.db.Exec("UPDATE OR REPLACE capture_dates SET path = ? WHERE path = ?", newPath, oldPath); err != nil {
		c.logger.Warn("Cache path update failed", "from", oldPath, "to", newPath, "err", err)
	}
}

// Stats returns the number of cached entries and how many came from metadata
func (c *DateCache) Stats() (total, embedded int64) {
	c.db.QueryRow("SELECT COUNT(*) FROM capture_dates").Scan(&total)
	c.db.QueryRow("SELECT COUNT(*) FROM capture_dates WHERE source = ?", SourceEmbedded.String()).Scan(&embedded)
	return
}

// Prune removes entries for which exists reports false
func (c *DateCache) Prune(exists func(path string) bool) (int64, error) {
	rows, err := c.db.Query("SELECT path FROM capture_dates")
	if err != nil {
		return 0, err
	}

	var toDelete []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			continue
		}
		if !exists(path) {
			toDelete = append(toDelete, path)
		}
	}
	rows.Close()

	if len(toDelete) == 0 {
		return 0, nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("DELETE FROM capture_dates WHERE path = ?")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, path := range toDelete {
		if _, err := stmt.Exec(path); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return int64(len(toDelete)), nil
}
