// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package zipdir drives the trailer-scan algorithm that locates and
// decodes the Central Directory, promoting a ZIP32 EOCD to its ZIP64
// companion when the sentinel values demand it (spec.md §4.4).
package zipdir

import (
	"log/slog"

	"github.com/cockroachdb/errors"

	"zipfetch/internal/bytesource"
	"zipfetch/internal/ziprecord"
	"zipfetch/internal/zrange"
)

const tailSize = ziprecord.EOCD32Size + ziprecord.EOCD64LocatorSize

// Directory is the immutable name → entry map built once at construction
// and read concurrently thereafter (spec.md §3, "Directory map").
type Directory struct {
	Entries map[string]ziprecord.Entry
}

// Load runs the trailer-scan algorithm against src and returns the
// resulting directory. It issues a tail read, possibly a ZIP64 upgrade
// read, and one bulk Central Directory read — never more.
func Load(src bytesource.Source, log *slog.Logger) (*Directory, error) {
	if log == nil {
		log = slog.Default()
	}

	tail, err := src.ReadTail(int64(tailSize))
	if err != nil {
		return nil, errors.Wrap(err, "zipdir: read trailer")
	}

	eocd32, err := ziprecord.ParseEOCD32(tail[ziprecord.EOCD64LocatorSize:])
	if err != nil {
		return nil, errors.Wrap(err, "zipdir: parse EOCD32")
	}
	eocd := eocd32.Normalize()

	if eocd.IsZip64 {
		loc, err := ziprecord.ParseEOCD64Locator(tail[:ziprecord.EOCD64LocatorSize])
		if err != nil {
			return nil, errors.Wrap(err, "zipdir: parse ZIP64 locator")
		}

		eocd64Bytes, err := src.Read(zrange.Range{Start: loc.EOCDOffset, Length: ziprecord.EOCD64Size})
		if err != nil {
			return nil, errors.Wrap(err, "zipdir: read ZIP64 EOCD")
		}
		eocd64, err := ziprecord.ParseEOCD64(eocd64Bytes)
		if err != nil {
			return nil, errors.Wrap(err, "zipdir: parse ZIP64 EOCD")
		}
		eocd = eocd64.Normalize()
		log.Debug("zipdirZip64Upgrade", "entries", eocd.EntryCount, "cdOffset", eocd.CDOffset)
	}

	cdBytes, err := src.Read(zrange.Range{Start: eocd.CDOffset, Length: eocd.CDSize})
	if err != nil {
		return nil, errors.Wrap(err, "zipdir: read central directory")
	}

	entries := make(map[string]ziprecord.Entry, eocd.EntryCount)
	pos := 0
	for i := int64(0); i < eocd.EntryCount; i++ {
		entry, consumed, err := ziprecord.ParseCentralFileHeader(cdBytes[pos:])
		if err != nil {
			return nil, errors.Wrapf(err, "zipdir: parse CD entry %d", i)
		}
		if _, dup := entries[entry.Name]; dup {
			log.Debug("zipdirDuplicateEntry", "name", entry.Name)
		}
		entries[entry.Name] = entry
		pos += consumed
	}

	log.Debug("zipdirLoaded", "entries", len(entries), "zip64", eocd.IsZip64)
	return &Directory{Entries: entries}, nil
}

// IsAppx reports whether the directory looks like an AppX package: the
// presence of AppxManifest.xml at the archive root (spec.md §8 seed suite
// scenario 2, supplemented feature restated in SPEC_FULL.md).
func (d *Directory) IsAppx() bool {
	_, ok := d.Entries["AppxManifest.xml"]
	return ok
}
