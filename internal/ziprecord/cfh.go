// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package ziprecord

import (
	"golang.org/x/text/encoding/charmap"
)

// ParseCentralFileHeader decodes one Central File Header starting at b[0],
// including its variable-length name/extra/comment tail. It returns the
// Entry plus the number of bytes consumed from b, so the directory loader
// can walk successive records.
func ParseCentralFileHeader(b []byte) (entry Entry, consumed int, err error) {
	defer recoverUnknown("central file header", &err)

	c := newCursor(b)

	sig, err := c.u32("signature")
	if err != nil {
		return Entry{}, 0, err
	}
	if sig != SigCentralFileHeader {
		return Entry{}, 0, fieldError("signature")
	}

	if _, err = c.u16("version made by"); err != nil {
		return Entry{}, 0, err
	}
	versionNeeded, err := c.u16("version needed")
	if err != nil {
		return Entry{}, 0, err
	}
	if versionNeeded != 20 && versionNeeded != 45 {
		return Entry{}, 0, fieldError("version needed")
	}

	flags, err := c.u16("bit flags")
	if err != nil {
		return Entry{}, 0, err
	}
	if flags&unsupportedFlagMask != 0 {
		return Entry{}, 0, fieldError("bit flags")
	}

	method, err := c.u16("compression method")
	if err != nil {
		return Entry{}, 0, err
	}
	if method != MethodStored && method != MethodDeflate {
		return Entry{}, 0, fieldError("compression method")
	}

	modTime, err := c.u16("last mod time")
	if err != nil {
		return Entry{}, 0, err
	}
	modDate, err := c.u16("last mod date")
	if err != nil {
		return Entry{}, 0, err
	}

	crc32, err := c.u32("CRC32")
	if err != nil {
		return Entry{}, 0, err
	}
	compressedSize, err := c.u32("sizes")
	if err != nil {
		return Entry{}, 0, err
	}
	uncompressedSize, err := c.u32("sizes")
	if err != nil {
		return Entry{}, 0, err
	}

	nameLen, err := c.u16("file name length")
	if err != nil {
		return Entry{}, 0, err
	}
	if nameLen == 0 {
		return Entry{}, 0, fieldError("file name length")
	}
	extraLen, err := c.u16("extra field length")
	if err != nil {
		return Entry{}, 0, err
	}
	commentLen, err := c.u16("comment length")
	if err != nil {
		return Entry{}, 0, err
	}

	startDisk, err := c.u16("start disk")
	if err != nil {
		return Entry{}, 0, err
	}
	if startDisk != 0 {
		return Entry{}, 0, fieldError("start disk")
	}

	if _, err = c.u16("internal attrs"); err != nil {
		return Entry{}, 0, err
	}
	if _, err = c.u32("external attrs"); err != nil {
		return Entry{}, 0, err
	}
	localHeaderOffset, err := c.u32("local header offset")
	if err != nil {
		return Entry{}, 0, err
	}

	nameBytes, err := c.bytes(int(nameLen), "file name length")
	if err != nil {
		return Entry{}, 0, err
	}
	extraBytes, err := c.bytes(int(extraLen), "extra field length")
	if err != nil {
		return Entry{}, 0, err
	}
	commentBytes, err := c.bytes(int(commentLen), "comment length")
	if err != nil {
		return Entry{}, 0, err
	}

	entry = Entry{
		Method:            method,
		CRC32:             crc32,
		CompressedSize:    uint64(compressedSize),
		UncompressedSize:  uint64(uncompressedSize),
		LocalHeaderOffset: uint64(localHeaderOffset),
		Modified:          msDosTimeToTime(modDate, modTime),
		Flags:             flags,
		RawNameLen:        int(nameLen),
	}

	if flags&FlagUTF8Name != 0 {
		entry.Name = string(nameBytes)
	} else {
		entry.Name = decodeDefaultCharset(nameBytes)
	}
	entry.Comment = decodeComment(commentBytes, flags)

	if entry.IsDataDescriptor() && !entry.IsDirectory() && entry.CRC32 == 0 {
		return Entry{}, 0, fieldError("CRC32")
	}

	extras, err := ParseExtraFields(extraBytes)
	if err != nil {
		return Entry{}, 0, err
	}
	for _, ef := range extras {
		switch v := ef.(type) {
		case Zip64Info:
			if isSentinel32(uint32(entry.UncompressedSize)) {
				entry.UncompressedSize = v.UncompressedSize
			}
			if isSentinel32(uint32(entry.CompressedSize)) {
				entry.CompressedSize = v.CompressedSize
			}
			if isSentinel32(uint32(entry.LocalHeaderOffset)) {
				entry.LocalHeaderOffset = v.LocalHeaderOffset
			}
		case ExtendedTimestamp:
			if !v.Modified.IsZero() {
				entry.Modified = v.Modified
			}
			if v.HasAccessed {
				entry.Accessed, entry.HasAccessed = v.Accessed, true
			}
			if v.HasCreated {
				entry.Created, entry.HasCreated = v.Created, true
			}
		}
	}

	return entry, c.pos, nil
}

// decodeDefaultCharset decodes a non-UTF8 ZIP file name as IBM Code Page
// 437, the de facto default charset for ZIP tooling (SPEC_FULL.md DOMAIN
// STACK, "Default-charset name decoding").
func decodeDefaultCharset(b []byte) string {
	s, err := charmap.CodePage437.NewDecoder().String(string(b))
	if err != nil {
		return string(b)
	}
	return s
}

func decodeComment(b []byte, flags uint16) string {
	if len(b) == 0 {
		return ""
	}
	if flags&FlagUTF8Name != 0 {
		return string(b)
	}
	return decodeDefaultCharset(b)
}
