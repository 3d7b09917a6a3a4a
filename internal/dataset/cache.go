package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Cache memoizes the most recent load. A single entry, keyed by absolute
// path plus file mtime and size; a changed file reloads, an unchanged one
// returns the same *Table. Parallel consumers only ever read the table, so
// sharing the pointer is safe.
type Cache struct {
	mu    sync.Mutex
	path  string
	mtime time.Time
	size  int64
	table *Table
}

// Load returns the cached table when the file is unchanged, otherwise
// reads it fresh and replaces the entry.
func (c *Cache) Load(path string, opt LoadOptions) (*Table, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve data path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat data file: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.table != nil && c.path == abs && c.mtime.Equal(info.ModTime()) && c.size == info.Size() {
		return c.table, nil
	}
	t, err := Load(abs, opt)
	if err != nil {
		return nil, err
	}
	c.path = abs
	c.mtime = info.ModTime()
	c.size = info.Size()
	c.table = t
	return t, nil
}

// Invalidate drops the cached entry so the next Load re-reads the file.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table = nil
	c.path = ""
}
