// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package ziprecord

import (
	"strings"
	"time"
)

// Entry is the immutable Central Directory entry described by spec.md §3.
type Entry struct {
	Name    string
	Comment string

	Method uint16
	CRC32  uint32

	CompressedSize    uint64
	UncompressedSize  uint64
	LocalHeaderOffset uint64

	// RawNameLen is the byte length of the encoded file name as it
	// appears on the wire, which can differ from len(Name) once a
	// default-charset name has been decoded to UTF-8 (spec.md §4.5
	// range-length computation needs the wire length, not the decoded
	// one).
	RawNameLen int

	Modified time.Time

	Accessed    time.Time
	HasAccessed bool
	Created     time.Time
	HasCreated  bool

	Flags uint16
}

// IsDataDescriptor reports whether bit 3 of the bit flags is set.
func (e Entry) IsDataDescriptor() bool { return e.Flags&FlagDataDescriptor != 0 }

// IsDirectory reports whether the entry's name ends with "/".
func (e Entry) IsDirectory() bool { return strings.HasSuffix(e.Name, "/") }

// IsUTF8Name reports whether bit 11 (language encoding flag) is set.
func (e Entry) IsUTF8Name() bool { return e.Flags&FlagUTF8Name != 0 }
