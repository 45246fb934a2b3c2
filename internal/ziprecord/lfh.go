// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package ziprecord

// LocalFileHeader is the transient, CD-cross-validated per-entry header
// read only at extraction time (spec.md §3).
type LocalFileHeader struct {
	Name             string
	Method           uint16
	CRC32            uint32
	CompressedSize   uint64
	UncompressedSize uint64
	IsDataDescriptor bool
}

// ParseLocalFileHeader decodes the LFH at b[0] and cross-validates it
// against cd, the already-loaded Central Directory map keyed by name. It
// returns the number of bytes consumed (always LocalFileHeaderSize +
// name length, since a nonzero extra field length is itself fatal).
func ParseLocalFileHeader(b []byte, cd map[string]Entry) (lfh LocalFileHeader, consumed int, err error) {
	defer recoverUnknown("local file header", &err)

	c := newCursor(b)

	sig, err := c.u32("signature")
	if err != nil {
		return LocalFileHeader{}, 0, err
	}
	if sig != SigLocalFileHeader {
		return LocalFileHeader{}, 0, fieldError("signature")
	}

	versionNeeded, err := c.u16("version needed")
	if err != nil {
		return LocalFileHeader{}, 0, err
	}
	if versionNeeded != 20 && versionNeeded != 45 {
		return LocalFileHeader{}, 0, fieldError("version needed")
	}

	flags, err := c.u16("bit flags")
	if err != nil {
		return LocalFileHeader{}, 0, err
	}
	if flags&unsupportedFlagMask != 0 {
		return LocalFileHeader{}, 0, fieldError("bit flags")
	}

	method, err := c.u16("compression method")
	if err != nil {
		return LocalFileHeader{}, 0, err
	}
	if method != MethodStored && method != MethodDeflate {
		return LocalFileHeader{}, 0, fieldError("compression method")
	}

	if _, err = c.u16("last mod time"); err != nil {
		return LocalFileHeader{}, 0, err
	}
	if _, err = c.u16("last mod date"); err != nil {
		return LocalFileHeader{}, 0, err
	}

	crc32, err := c.u32("CRC32")
	if err != nil {
		return LocalFileHeader{}, 0, err
	}
	compressedSize, err := c.u32("sizes")
	if err != nil {
		return LocalFileHeader{}, 0, err
	}
	uncompressedSize, err := c.u32("sizes")
	if err != nil {
		return LocalFileHeader{}, 0, err
	}

	nameLen, err := c.u16("file name length")
	if err != nil {
		return LocalFileHeader{}, 0, err
	}
	if nameLen == 0 {
		return LocalFileHeader{}, 0, fieldError("file name length")
	}
	extraLen, err := c.u16("extra field length")
	if err != nil {
		return LocalFileHeader{}, 0, err
	}
	if extraLen != 0 {
		return LocalFileHeader{}, 0, fieldError("extra field length")
	}

	nameBytes, err := c.bytes(int(nameLen), "file name length")
	if err != nil {
		return LocalFileHeader{}, 0, err
	}

	var name string
	if flags&FlagUTF8Name != 0 {
		name = string(nameBytes)
	} else {
		name = decodeDefaultCharset(nameBytes)
	}

	cdEntry, ok := cd[name]
	if !ok {
		return LocalFileHeader{}, 0, fieldError("Central Directory")
	}

	isDD := flags&FlagDataDescriptor != 0
	if isDD != cdEntry.IsDataDescriptor() {
		return LocalFileHeader{}, 0, fieldError("bit flags")
	}

	lfh = LocalFileHeader{Name: name, Method: method, IsDataDescriptor: isDD}

	if isDD {
		if compressedSize != 0 {
			return LocalFileHeader{}, 0, fieldError("sizes")
		}
		if crc32 != 0 {
			return LocalFileHeader{}, 0, fieldError("CRC32")
		}
		lfh.CRC32 = cdEntry.CRC32
		lfh.CompressedSize = cdEntry.CompressedSize
		lfh.UncompressedSize = cdEntry.UncompressedSize
	} else {
		// A ZIP64 entry's LFH still carries the 32-bit sentinel (its own
		// extra field is forbidden by the nonzero-extra-length check
		// above), so a sentinel here is trusted against the CD's already
		// ZIP64-resolved value rather than compared numerically.
		if !isSentinel32(compressedSize) && uint64(compressedSize) != cdEntry.CompressedSize {
			return LocalFileHeader{}, 0, fieldError("sizes")
		}
		if !isSentinel32(uncompressedSize) && uint64(uncompressedSize) != cdEntry.UncompressedSize {
			return LocalFileHeader{}, 0, fieldError("sizes")
		}
		if crc32 != cdEntry.CRC32 {
			return LocalFileHeader{}, 0, fieldError("CRC32")
		}
		lfh.CRC32 = crc32
		lfh.CompressedSize = cdEntry.CompressedSize
		lfh.UncompressedSize = cdEntry.UncompressedSize
	}

	return lfh, c.pos, nil
}
