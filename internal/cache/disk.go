package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const entryExt = ".entry"

// DiskCache persists one JSON file per entry under its own directory
type DiskCache struct {
	name       string
	dir        string
	defaultTTL time.Duration
}

// NewDiskCache creates a disk store rooted at dir
func NewDiskCache(name, dir string, defaultTTL time.Duration) *DiskCache {
	return &DiskCache{name: name, dir: dir, defaultTTL: defaultTTL}
}

// Name returns the store name
func (c *DiskCache) Name() string {
	return c.name
}

// Dir returns the directory holding the entries
func (c *DiskCache) Dir() string {
	return c.dir
}

// Get returns the entry stored for url. Expired or unreadable files are removed.
func (c *DiskCache) Get(url string) (Entry, bool) {
	e, ok := c.read(c.path(url))
	if !ok || e.URL != url {
		return Entry{}, false
	}
	return e, true
}

// Put stores data for url
func (c *DiskCache) Put(url string, data []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	return c.write(newEntry(url, data, ttl, time.Now()))
}

// write replaces the entry file atomically so readers never see a partial entry
func (c *DiskCache) write(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(e.URL)); err != nil {
		return fmt.Errorf("commit cache file: %w", err)
	}
	return nil
}

// Delete removes the entry for url
func (c *DiskCache) Delete(url string) error {
	err := os.Remove(c.path(url))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes the store directory
func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}

// Entries lists unexpired entries, newest first. A missing directory is an empty store.
func (c *DiskCache) Entries() ([]Entry, error) {
	files, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list cache dir: %w", err)
	}

	var out []Entry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), entryExt) {
			continue
		}
		if e, ok := c.read(filepath.Join(c.dir, f.Name())); ok {
			out = append(out, e)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (c *DiskCache) read(path string) (Entry, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, false
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil || e.Expired(time.Now()) {
		_ = os.Remove(path)
		return Entry{}, false
	}
	return e, true
}

func (c *DiskCache) path(url string) string {
	return filepath.Join(c.dir, key(url)+entryExt)
}
