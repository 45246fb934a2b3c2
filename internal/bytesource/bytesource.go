// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package bytesource unifies random-access reads over a local file and a
// ranged HTTP resource into a single read/read_many/read_tail/close
// contract (spec.md §4.1). Callers issue either one range or many; for
// many, the HTTP implementation collapses to a single request and expects
// either a plain single-range body or a multipart/byteranges body back.
package bytesource

import (
	"io"

	"github.com/cockroachdb/errors"

	"zipfetch/internal/zrange"
)

// ErrUnexpectedEnd is returned when a read_tail request asks for more
// bytes than the source actually holds.
var ErrUnexpectedEnd = errors.New("bytesource: unexpected end of source")

// Source is the random-access capability the directory loader and the
// extraction pipeline are generic over.
type Source interface {
	// Read returns exactly r.Length bytes starting at r.Start.
	Read(r zrange.Range) ([]byte, error)

	// ReadMany returns len(ranges) byte slices in input order. For a
	// single range this degenerates to Read.
	ReadMany(ranges []zrange.Range) ([][]byte, error)

	// ReadTail returns the final n bytes of the source.
	ReadTail(n int64) ([]byte, error)

	// Close releases the underlying resource.
	Close() error
}

func readAllOrFail(r io.Reader, want int64) ([]byte, error) {
	buf := make([]byte, want)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, errors.Wrap(err, "bytesource: read")
	}
	if int64(n) < want {
		return nil, errors.Wrapf(ErrUnexpectedEnd, "got %d of %d bytes", n, want)
	}
	return buf, nil
}
