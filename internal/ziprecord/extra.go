// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package ziprecord

import (
	"encoding/binary"
	"time"
)

// ExtraField is the tagged-variant replacement for the source's dynamic
// dispatch over extra-field subtypes (spec.md §9, "Dynamic dispatch on
// ZipExtraField"): exactly three cases, switched on by header ID.
type ExtraField interface {
	HeaderID() uint16
	Serialize() []byte
}

// Zip64Info carries the 64-bit sizes/offset that replace their 32-bit
// sentinel counterparts in the CFH/LFH when the ZIP64 extension applies.
type Zip64Info struct {
	UncompressedSize uint64
	CompressedSize   uint64
	LocalHeaderOffset uint64
}

func (Zip64Info) HeaderID() uint16 { return ExtraZip64Info }

func (z Zip64Info) Serialize() []byte {
	buf := make([]byte, 4+28)
	binary.LittleEndian.PutUint16(buf, ExtraZip64Info)
	binary.LittleEndian.PutUint16(buf[2:], 28)
	binary.LittleEndian.PutUint64(buf[4:], z.UncompressedSize)
	binary.LittleEndian.PutUint64(buf[12:], z.CompressedSize)
	binary.LittleEndian.PutUint64(buf[20:], z.LocalHeaderOffset)
	binary.LittleEndian.PutUint32(buf[28:], 0) // start disk, always 0
	return buf
}

func parseZip64Info(payload []byte) (Zip64Info, error) {
	c := newCursor(payload)
	u, err := c.u64("ZIP64 uncompressed size")
	if err != nil {
		return Zip64Info{}, err
	}
	cpsz, err := c.u64("ZIP64 compressed size")
	if err != nil {
		return Zip64Info{}, err
	}
	off, err := c.u64("ZIP64 local header offset")
	if err != nil {
		return Zip64Info{}, err
	}
	disk, err := c.u32("start disk")
	if err != nil {
		return Zip64Info{}, err
	}
	if disk != 0 {
		return Zip64Info{}, fieldError("start disk")
	}
	return Zip64Info{UncompressedSize: u, CompressedSize: cpsz, LocalHeaderOffset: off}, nil
}

// Timestamp flag bits (extended timestamp extra field, header ID 0x5455).
const (
	tsModify uint8 = 1 << 0
	tsAccess uint8 = 1 << 1
	tsCreate uint8 = 1 << 2
)

// ExtendedTimestamp carries second-resolution Unix times that supplement
// or override the DOS-resolution CFH timestamp.
type ExtendedTimestamp struct {
	Modified     time.Time
	Accessed     time.Time
	HasAccessed  bool
	Created      time.Time
	HasCreated   bool
}

func (ExtendedTimestamp) HeaderID() uint16 { return ExtraTimestamp }

func (t ExtendedTimestamp) Serialize() []byte {
	var flags uint8
	if !t.Modified.IsZero() {
		flags |= tsModify
	}
	if t.HasAccessed {
		flags |= tsAccess
	}
	if t.HasCreated {
		flags |= tsCreate
	}

	body := []byte{byte(flags)}
	if flags&tsModify != 0 {
		body = appendEpoch(body, t.Modified)
	}
	if flags&tsAccess != 0 {
		body = appendEpoch(body, t.Accessed)
	}
	if flags&tsCreate != 0 {
		body = appendEpoch(body, t.Created)
	}

	buf := make([]byte, 4+len(body))
	binary.LittleEndian.PutUint16(buf, ExtraTimestamp)
	binary.LittleEndian.PutUint16(buf[2:], uint16(len(body)))
	copy(buf[4:], body)
	return buf
}

func appendEpoch(b []byte, t time.Time) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(t.Unix()))
	return append(b, tmp[:]...)
}

func parseExtendedTimestamp(payload []byte) (ExtendedTimestamp, error) {
	if len(payload) < 1 {
		return ExtendedTimestamp{}, incompleteError("extended timestamp flags")
	}
	flags := payload[0]
	rest := payload[1:]

	var out ExtendedTimestamp
	readIfRoom := func() (time.Time, bool) {
		if len(rest) < 4 {
			return time.Time{}, false
		}
		sec := binary.LittleEndian.Uint32(rest)
		rest = rest[4:]
		return time.Unix(int64(int32(sec)), 0).UTC(), true
	}

	if flags&tsModify != 0 {
		if t, ok := readIfRoom(); ok {
			out.Modified = t
		}
	}
	if flags&tsAccess != 0 {
		if t, ok := readIfRoom(); ok {
			out.Accessed, out.HasAccessed = t, true
		}
	}
	if flags&tsCreate != 0 {
		if t, ok := readIfRoom(); ok {
			out.Created, out.HasCreated = t, true
		}
	}
	return out, nil
}

// Generic is the opaque fallback for any extra-field header ID this module
// does not interpret. Its payload is preserved but never surfaced beyond
// round-trip serialization.
type Generic struct {
	ID      uint16
	Payload []byte
}

func (g Generic) HeaderID() uint16 { return g.ID }

func (g Generic) Serialize() []byte {
	buf := make([]byte, 4+len(g.Payload))
	binary.LittleEndian.PutUint16(buf, g.ID)
	binary.LittleEndian.PutUint16(buf[2:], uint16(len(g.Payload)))
	copy(buf[4:], g.Payload)
	return buf
}

// ParseExtraFields walks a CFH/LFH extra-field blob, dispatching each
// sub-record by its 2-byte header ID (spec.md §4.3, "Extra-field
// dispatcher").
func ParseExtraFields(b []byte) ([]ExtraField, error) {
	c := newCursor(b)
	var out []ExtraField
	for c.remaining() > 0 {
		id, err := c.u16("extra field header id")
		if err != nil {
			return nil, err
		}
		length, err := c.u16("extra field length")
		if err != nil {
			return nil, err
		}
		payload, err := c.bytes(int(length), "extra field length")
		if err != nil {
			return nil, err
		}

		switch id {
		case ExtraZip64Info:
			z, err := parseZip64Info(payload)
			if err != nil {
				return nil, err
			}
			out = append(out, z)
		case ExtraTimestamp:
			ts, err := parseExtendedTimestamp(payload)
			if err != nil {
				return nil, err
			}
			out = append(out, ts)
		default:
			out = append(out, Generic{ID: id, Payload: append([]byte(nil), payload...)})
		}
	}
	return out, nil
}
