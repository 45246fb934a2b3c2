// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package cache

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"sync"

	"github.com/allegro/bigcache/v3"
	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/dgryski/go-tinylfu"
)

// MemoryCache is the default cache policy: decompressed bodies live in a
// bigcache-backed store, keyed by the xxhash of the entry name, with a
// tinylfu admission/eviction policy bounding how many entries are
// retained (teacher's internal/spinner uses the identical construction
// to bound block and reader caches).
//
// Get removes the entry it returns: streams are single-use under this
// policy (spec.md §4.6).
type MemoryCache struct {
	mu  sync.RWMutex
	bc  *bigcache.BigCache
	lfu *tinylfu.T[string, struct{}]
}

// NewMemory builds a MemoryCache retaining at most maxEntries decompressed
// bodies before the tinylfu policy starts evicting.
func NewMemory(maxEntries int) (*MemoryCache, error) {
	bc, err := bigcache.New(context.Background(), bigcache.Config{
		Shards:             16,
		LifeWindow:         0,
		CleanWindow:        0,
		MaxEntriesInWindow: maxEntries * 10,
		MaxEntrySize:       1 << 20,
		HardMaxCacheSize:   256,
	})
	if err != nil {
		return nil, errors.Wrap(err, "cache: build memory store")
	}

	c := &MemoryCache{bc: bc}
	c.lfu = tinylfu.New[string, struct{}](maxEntries, maxEntries*10, hashName, tinylfu.OnEvict(c.onEvict))
	return c, nil
}

func hashName(name string) uint64 { return xxhash.Sum64String(name) }

func cacheKey(name string) string {
	return strconv.FormatUint(xxhash.Sum64String(name), 16)
}

func (c *MemoryCache) onEvict(name string, _ struct{}) {
	_ = c.bc.Delete(cacheKey(name))
}

func (c *MemoryCache) Put(name string, r io.Reader) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "cache: drain stream")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.bc.Set(cacheKey(name), body); err != nil {
		return errors.Wrap(err, "cache: store")
	}
	c.lfu.Add(name, struct{}{})
	return nil
}

func (c *MemoryCache) Get(name string) (io.ReadCloser, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	body, err := c.bc.Get(cacheKey(name))
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "cache: fetch")
	}
	_ = c.bc.Delete(cacheKey(name)) // single-use
	return io.NopCloser(bytes.NewReader(body)), true, nil
}

func (c *MemoryCache) Contains(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, err := c.bc.Get(cacheKey(name))
	return err == nil
}

func (c *MemoryCache) Remove(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.bc.Delete(cacheKey(name))
	if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return errors.Wrap(err, "cache: remove")
	}
	return nil
}

func (c *MemoryCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.bc.Reset(); err != nil {
		return errors.Wrap(err, "cache: clear")
	}
	return nil
}
