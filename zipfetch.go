// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package zipfetch is a random-access reader for ZIP archives (including
// the ZIP64 extension and the AppX subtype), backed by either a local
// file or an HTTP resource queried through byte-range requests.
package zipfetch

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/singleflight"

	"zipfetch/internal/bytesource"
	"zipfetch/internal/cache"
	"zipfetch/internal/extract"
	"zipfetch/internal/zipdir"
	"zipfetch/internal/ziprecord"
)

// ErrClosed is returned by any operation on a Reader after Close.
var ErrClosed = errors.New("zipfetch: reader is closed")

// ErrNotFound reports a requested entry name absent from the archive's
// directory (spec.md §7).
var ErrNotFound = errors.New("zipfetch: entry not found")

// Metadata is the consumer-facing view of a Central Directory entry
// (spec.md §6, "file_metadata").
type Metadata struct {
	Name             string
	LastModified     time.Time
	LastAccess       *time.Time
	Creation         *time.Time
	CompressedSize   uint64
	UncompressedSize uint64
	CRC32            uint32
	IsDirectory      bool
}

// Reader is the consumer-facing façade over the directory loader,
// extraction pipeline, and cache (SPEC_FULL.md §4.7). It owns the byte
// source and the cache for its lifetime.
type Reader struct {
	mu     sync.RWMutex
	src    bytesource.Source
	dir    *zipdir.Directory
	store  cache.Policy
	log    *slog.Logger
	closed bool

	group singleflight.Group
}

// Option configures a Reader at construction.
type Option func(*options)

type options struct {
	cachePolicy func() (cache.Policy, error)
	logger      *slog.Logger
}

// WithMemoryCache selects the bounded in-memory cache policy (the
// default if no cache option is given).
func WithMemoryCache() Option {
	return func(o *options) {
		o.cachePolicy = func() (cache.Policy, error) { return cache.NewMemory(256) }
	}
}

// WithFileCache selects the file-backed cache policy, rooted at dir (the
// process temp directory if dir is empty).
func WithFileCache(dir string) Option {
	return func(o *options) {
		o.cachePolicy = func() (cache.Policy, error) { return cache.NewFile(dir), nil }
	}
}

// WithLogger attaches a structured logger for construction, directory
// load, and close events; cache fetches are not logged. The default is
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func resolveOptions(opts []Option) *options {
	o := &options{}
	for _, apply := range opts {
		apply(o)
	}
	if o.cachePolicy == nil {
		o.cachePolicy = func() (cache.Policy, error) { return cache.NewMemory(256) }
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Open opens path as a file-backed Reader, parsing its Central Directory
// immediately.
func Open(path string, opts ...Option) (*Reader, error) {
	src, err := bytesource.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "zipfetch: open")
	}
	return newReader(src, opts)
}

// OpenHTTP opens url as an HTTP range-backed Reader. Construction of
// client (timeouts, retries, auth) is the caller's concern.
func OpenHTTP(ctx context.Context, client *http.Client, url string, opts ...Option) (*Reader, error) {
	src := bytesource.NewHTTP(ctx, client, url)
	return newReader(src, opts)
}

func newReader(src bytesource.Source, opts []Option) (*Reader, error) {
	o := resolveOptions(opts)

	o.logger.Debug("zipfetchOpening")
	dir, err := zipdir.Load(src, o.logger)
	if err != nil {
		src.Close()
		return nil, errors.Wrap(err, "zipfetch: load directory")
	}

	store, err := o.cachePolicy()
	if err != nil {
		src.Close()
		return nil, errors.Wrap(err, "zipfetch: build cache")
	}

	o.logger.Debug("zipfetchOpened", "entries", len(dir.Entries))
	return &Reader{src: src, dir: dir, store: store, log: o.logger}, nil
}

// Files returns every entry name in the archive. Order is unspecified
// (spec.md §5: "callers treat files as a set view").
func (r *Reader) Files() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrClosed
	}
	names := make([]string, 0, len(r.dir.Entries))
	for name := range r.dir.Entries {
		names = append(names, name)
	}
	return names, nil
}

// IsAppx reports whether the archive looks like an AppX package.
func (r *Reader) IsAppx() (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false, ErrClosed
	}
	return r.dir.IsAppx(), nil
}

// FileMetadata returns the CD-derived metadata for name.
func (r *Reader) FileMetadata(name string) (Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return Metadata{}, ErrClosed
	}
	entry, ok := r.dir.Entries[name]
	if !ok {
		return Metadata{}, errors.Wrapf(ErrNotFound, "%q", name)
	}
	return entryToMetadata(entry), nil
}

func entryToMetadata(e ziprecord.Entry) Metadata {
	m := Metadata{
		Name:             e.Name,
		LastModified:     e.Modified,
		CompressedSize:   e.CompressedSize,
		UncompressedSize: e.UncompressedSize,
		CRC32:            e.CRC32,
		IsDirectory:      e.IsDirectory(),
	}
	if e.HasAccessed {
		t := e.Accessed
		m.LastAccess = &t
	}
	if e.HasCreated {
		t := e.Created
		m.Creation = &t
	}
	return m
}

// Stat adapts FileMetadata to an fs.FileInfo, for callers that want to
// use a Reader with generic io/fs-consuming code.
func (r *Reader) Stat(name string) (fs.FileInfo, error) {
	m, err := r.FileMetadata(name)
	if err != nil {
		return nil, err
	}
	return fileInfo{m}, nil
}

type fileInfo struct{ m Metadata }

func (f fileInfo) Name() string { return f.m.Name }
func (f fileInfo) Size() int64  { return int64(f.m.UncompressedSize) }
func (f fileInfo) Mode() fs.FileMode {
	if f.m.IsDirectory {
		return fs.ModeDir | 0o555
	}
	return 0o444
}
func (f fileInfo) ModTime() time.Time { return f.m.LastModified }
func (f fileInfo) IsDir() bool        { return f.m.IsDirectory }
func (f fileInfo) Sys() any           { return nil }

// CacheFiles forces names to be fetched and decompressed into the cache
// without returning a stream. Concurrent or repeated calls for the same
// name set perform at most one fetch (spec.md §8 property 6).
func (r *Reader) CacheFiles(names []string) error {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return ErrClosed
	}
	src, dir, store := r.src, r.dir.Entries, r.store
	r.mu.RUnlock()

	key := singleflightKey(names)
	_, err, _ := r.group.Do(key, func() (any, error) {
		return nil, extract.Run(src, dir, store, names)
	})
	if errors.Is(err, extract.ErrNotFound) {
		return errors.Mark(err, ErrNotFound)
	}
	return err
}

func singleflightKey(names []string) string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	key := ""
	for _, n := range sorted {
		key += n + "\x00"
	}
	return key
}

// FileStream returns a reader over name's uncompressed bytes, fetching
// and decompressing it first if necessary.
func (r *Reader) FileStream(name string) (io.ReadCloser, error) {
	if err := r.CacheFiles([]string{name}); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrClosed
	}
	stream, ok, err := r.store.Get(name)
	if err != nil {
		return nil, errors.Wrapf(err, "zipfetch: %q", name)
	}
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%q", name)
	}
	return stream, nil
}

// FileStreams returns a mapping of name to uncompressed stream for every
// requested name, fetching the whole batch in as few round-trips as the
// cache allows. The result is a plain Go map: it does not record the
// order of names, and ranging over it does not follow that order.
func (r *Reader) FileStreams(names []string) (map[string]io.ReadCloser, error) {
	if err := r.CacheFiles(names); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrClosed
	}

	out := make(map[string]io.ReadCloser, len(names))
	for _, name := range names {
		stream, ok, err := r.store.Get(name)
		if err != nil {
			return nil, errors.Wrapf(err, "zipfetch: %q", name)
		}
		if !ok {
			return nil, errors.Wrapf(ErrNotFound, "%q", name)
		}
		out[name] = stream
	}
	return out, nil
}

// Close releases the byte source and clears the cache. Operations on a
// closed Reader return ErrClosed.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	err := r.store.Clear()
	if closeErr := r.src.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	r.log.Debug("zipfetchClosed")
	return err
}
