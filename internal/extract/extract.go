// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package extract implements the extraction pipeline (spec.md §4.5):
// given a set of requested entry names, it coalesces cache misses into
// byte ranges, performs one bulk read, validates and decompresses each
// Local File Header's payload, and populates the cache.
package extract

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/flate"

	"zipfetch/internal/bytesource"
	"zipfetch/internal/cache"
	"zipfetch/internal/ziprecord"
	"zipfetch/internal/zrange"
)

// ErrEmptyRequest is a precondition failure: Run requires a non-empty
// name list (spec.md §7, "Programming errors ... separately typed as
// preconditions").
var ErrEmptyRequest = errors.New("extract: names must be non-empty")

// ErrNotFound reports a requested entry absent from the directory map.
var ErrNotFound = errors.New("extract: entry not found")

type pending struct {
	name  string
	entry ziprecord.Entry
}

// Run fetches and caches every name not already present in store. dir is
// the already-loaded Central Directory map; src supplies the bulk read.
func Run(src bytesource.Source, dir map[string]ziprecord.Entry, store cache.Policy, names []string) error {
	if len(names) == 0 {
		return ErrEmptyRequest
	}

	var todo []pending
	for _, name := range names {
		entry, ok := dir[name]
		if !ok {
			return errors.Wrapf(ErrNotFound, "%q", name)
		}
		if store.Contains(name) {
			continue
		}
		todo = append(todo, pending{name: name, entry: entry})
	}
	if len(todo) == 0 {
		return nil
	}

	ranges := make([]zrange.Range, len(todo))
	for i, p := range todo {
		length := int64(ziprecord.LocalFileHeaderSize) + int64(p.entry.RawNameLen) + int64(p.entry.CompressedSize)
		ranges[i] = zrange.Range{Start: int64(p.entry.LocalHeaderOffset), Length: length}
	}

	parts, err := src.ReadMany(ranges)
	if err != nil {
		return errors.Wrap(err, "extract: bulk read")
	}
	if len(parts) < len(ranges) {
		return errors.Newf("extract: server returned %d parts for %d requested ranges", len(parts), len(ranges))
	}

	for i, p := range todo {
		lfh, consumed, err := ziprecord.ParseLocalFileHeader(parts[i], dir)
		if err != nil {
			return errors.Wrapf(err, "extract: %q local file header", p.name)
		}

		payload := parts[i][consumed:]
		if int64(len(payload)) < int64(lfh.CompressedSize) {
			return errors.Newf("extract: %q: short read, got %d of %d compressed bytes", p.name, len(payload), lfh.CompressedSize)
		}
		payload = payload[:lfh.CompressedSize]

		stream, err := decompress(lfh.Method, payload)
		if err != nil {
			return errors.Wrapf(err, "extract: %q decompress", p.name)
		}

		if err := store.Put(p.name, stream); err != nil {
			return errors.Wrapf(err, "extract: %q cache put", p.name)
		}
	}

	return nil
}

func decompress(method uint16, payload []byte) (io.Reader, error) {
	switch method {
	case ziprecord.MethodStored:
		return bytes.NewReader(payload), nil
	case ziprecord.MethodDeflate:
		fr := flate.NewReader(bytes.NewReader(payload))
		body, err := io.ReadAll(fr)
		fr.Close()
		if err != nil {
			return nil, errors.Wrap(err, "inflate")
		}
		return bytes.NewReader(body), nil
	default:
		return nil, errors.Newf("extract: unsupported compression method %d", method)
	}
}
