// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package cache implements the two interchangeable cache policies
// spec.md §4.6 and §9 ("Polymorphism on cache / byte source") describe:
// a bounded in-memory policy whose streams are single-use, and a
// file-backed policy whose streams are reusable.
package cache

import (
	"io"

	"github.com/cockroachdb/errors"
)

// Policy is the capability set every cache implementation provides. The
// reader is generic over this interface rather than a concrete type.
type Policy interface {
	// Put drains r and stores it under name, replacing any prior entry.
	Put(name string, r io.Reader) error

	// Get returns a reader over the cached body for name, and whether it
	// was present. Memory policy: removes the entry (single-use). File
	// policy: opens a fresh handle on the backing temp file (reusable).
	Get(name string) (io.ReadCloser, bool, error)

	// Contains reports membership without consuming anything.
	Contains(name string) bool

	// Remove deletes the entry for name, if present.
	Remove(name string) error

	// Clear drops every entry.
	Clear() error
}

// ErrNotFound names the "not cached" condition. Neither policy's Get
// returns it: a miss is reported as ok == false with a nil error.
var ErrNotFound = errors.New("cache: not found")
