// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package ziprecord

// Record signatures (little-endian on the wire, spec.md §4.3).
const (
	SigLocalFileHeader      uint32 = 0x04034B50
	SigCentralFileHeader    uint32 = 0x02014B50
	SigEOCD32               uint32 = 0x06054B50
	SigEOCD64               uint32 = 0x06064B50
	SigEOCD64Locator        uint32 = 0x07064B50
	SigDataDescriptorMarker uint32 = 0x08074B50 // informational only; never parsed
)

// Fixed-size portions, excluding variable-length tails.
const (
	LocalFileHeaderSize   = 30
	CentralFileHeaderSize = 46
	EOCD32Size            = 22
	EOCD64LocatorSize     = 20
	EOCD64Size            = 56
)

// Extra-field header IDs.
const (
	ExtraZip64Info  uint16 = 0x0001
	ExtraTimestamp  uint16 = 0x5455
	sentinel16      uint16 = 0xFFFF
	sentinel32      uint32 = 0xFFFFFFFF
)

// Compression methods this module understands. Non-goals exclude every
// other method code.
const (
	MethodStored  uint16 = 0
	MethodDeflate uint16 = 8
)

// Bit-flag masks from spec.md §6: the unsupported-bit mask for the LFH and
// CFH parsers, and the individual flags downstream code inspects.
const (
	FlagDataDescriptor uint16 = 1 << 3
	FlagUTF8Name       uint16 = 1 << 11
	unsupportedFlagMask uint16 = (1 << 0) | (1 << 6) | (0xF << 12)
)

func isSentinel16(v uint16) bool { return v == sentinel16 }
func isSentinel32(v uint32) bool { return v == sentinel32 }
