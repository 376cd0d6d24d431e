package tle

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Cache stores fetched element sets on disk, one timestamped file per
// satellite, and keeps at most maxFiles per satellite.
type Cache struct {
	dir      string
	maxFiles int
}

// NewCache creates a Cache rooted at dir.
func NewCache(dir string, maxFiles int) *Cache {
	if maxFiles <= 0 {
		maxFiles = 5
	}
	return &Cache{
		dir:      dir,
		maxFiles: maxFiles,
	}
}

// Write saves one satellite's raw TLE text to a timestamped file and prunes
// that satellite's older files beyond maxFiles.
func (c *Cache) Write(noradID int, data []byte, ts time.Time) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	filename := fmt.Sprintf("tle_%d_%d.txt", noradID, ts.Unix())
	if err := os.WriteFile(filepath.Join(c.dir, filename), data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}

	return c.prune(noradID)
}

// LoadLatest reads the newest cached file for a satellite, by the timestamp
// in the filename, and reports when it was written.
func (c *Cache) LoadLatest(noradID int) ([]byte, time.Time, error) {
	files, err := c.listFiles(noradID)
	if err != nil {
		return nil, time.Time{}, err
	}
	if len(files) == 0 {
		return nil, time.Time{}, fmt.Errorf("no cache files for %d", noradID)
	}

	latest := files[len(files)-1]
	data, err := os.ReadFile(filepath.Join(c.dir, latest.name))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading cache file: %w", err)
	}
	return data, latest.ts, nil
}

type cacheFile struct {
	name string
	ts   time.Time
}

func (c *Cache) listFiles(noradID int) ([]cacheFile, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing cache dir: %w", err)
	}

	prefix := fmt.Sprintf("tle_%d_", noradID)
	var files []cacheFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".txt") {
			continue
		}
		tsStr := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".txt")
		unix, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil {
			continue
		}
		files = append(files, cacheFile{name: name, ts: time.Unix(unix, 0)})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ts.Before(files[j].ts)
	})
	return files, nil
}

func (c *Cache) prune(noradID int) error {
	files, err := c.listFiles(noradID)
	if err != nil {
		return err
	}
	if len(files) <= c.maxFiles {
		return nil
	}
	for _, f := range files[:len(files)-c.maxFiles] {
		if err := os.Remove(filepath.Join(c.dir, f.name)); err != nil {
			return fmt.Errorf("pruning cache file %s: %w", f.name, err)
		}
	}
	return nil
}
