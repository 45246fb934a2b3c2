// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package cache

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// FileCache drains each put body into its own temporary file, named with
// the entry name (slashes replaced by dashes) as a prefix and a .tmp
// suffix, living in dir (the process temp directory if dir is empty).
// Unlike MemoryCache, Get opens a fresh handle each time: file-cache
// streams are reusable (spec.md §4.6).
type FileCache struct {
	mu    sync.RWMutex
	dir   string
	paths map[string]string
}

// NewFile builds a FileCache rooted at dir. An empty dir defers to
// os.TempDir().
func NewFile(dir string) *FileCache {
	return &FileCache{dir: dir, paths: make(map[string]string)}
}

func sanitizeName(name string) string {
	return strings.ReplaceAll(name, "/", "-")
}

func (c *FileCache) Put(name string, r io.Reader) error {
	f, err := os.CreateTemp(c.dir, sanitizeName(name)+"-*.tmp")
	if err != nil {
		return errors.Wrap(err, "cache: create temp file")
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return errors.Wrap(err, "cache: drain stream to temp file")
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return errors.Wrap(err, "cache: close temp file")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.paths[name]; ok {
		os.Remove(old)
	}
	c.paths[name] = f.Name()
	return nil
}

func (c *FileCache) Get(name string) (io.ReadCloser, bool, error) {
	c.mu.RLock()
	path, ok := c.paths[name]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, false, errors.Wrapf(err, "cache: reopen %q", path)
	}
	return f, true, nil
}

func (c *FileCache) Contains(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.paths[name]
	return ok
}

func (c *FileCache) Remove(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path, ok := c.paths[name]
	if !ok {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		// Best-effort delete failed: retain the mapping (spec.md §4.6).
		return errors.Wrapf(err, "cache: remove temp file %q", path)
	}
	delete(c.paths, name)
	return nil
}

func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for name, path := range c.paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = errors.Wrapf(err, "cache: remove temp file %q", path)
		}
		delete(c.paths, name)
	}
	return firstErr
}
