// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package bytesource

import (
	"os"

	"github.com/cockroachdb/errors"

	"zipfetch/internal/zrange"
)

// FileSource is a Source backed by a seekable, read-only file handle.
type FileSource struct {
	f    *os.File
	size int64
}

// OpenFile opens path read-only as a FileSource.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "bytesource: open")
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "bytesource: stat")
	}
	return &FileSource{f: f, size: stat.Size()}, nil
}

func (s *FileSource) Read(r zrange.Range) ([]byte, error) {
	buf := make([]byte, r.Length)
	n, err := s.f.ReadAt(buf, r.Start)
	if err != nil && int64(n) < r.Length {
		return nil, errors.Wrapf(err, "bytesource: read %d bytes at %d", r.Length, r.Start)
	}
	return buf, nil
}

func (s *FileSource) ReadMany(ranges []zrange.Range) ([][]byte, error) {
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		b, err := s.Read(r)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func (s *FileSource) ReadTail(n int64) ([]byte, error) {
	if n > s.size {
		return nil, errors.Wrapf(ErrUnexpectedEnd, "asked for tail of %d bytes, source is %d", n, s.size)
	}
	advise(s.f, s.size-n, n)
	return s.Read(zrange.Range{Start: s.size - n, Length: n})
}

func (s *FileSource) Close() error {
	return s.f.Close()
}

// Size reports the total length of the underlying file.
func (s *FileSource) Size() int64 { return s.size }
