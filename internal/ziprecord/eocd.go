// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package ziprecord

// EOCD is the normalized view of either EOCD form (spec.md §3, "Inheritance
// in EOCD records" in §9): entry count, CD size, CD offset, and whether a
// ZIP64 upgrade was observed.
type EOCD struct {
	EntryCount int64
	CDSize     int64
	CDOffset   int64
	IsZip64    bool
}

// EOCD32 is the 22-byte End of Central Directory record.
type EOCD32 struct {
	Disk          uint16
	StartDisk     uint16
	EntriesOnDisk uint16
	TotalEntries  uint16
	CDSize        uint32
	CDOffset      uint32
	CommentLength uint16
}

// Normalize reports the EOCD32 as the common EOCD shape. IsZip64 reflects
// whether any field held its sentinel value, signaling that the caller
// must go fetch the companion ZIP64 locator and EOCD64.
func (e EOCD32) Normalize() EOCD {
	return EOCD{
		EntryCount: int64(e.TotalEntries),
		CDSize:     int64(e.CDSize),
		CDOffset:   int64(e.CDOffset),
		IsZip64:    e.isZip64(),
	}
}

func (e EOCD32) isZip64() bool {
	return isSentinel16(e.Disk) || isSentinel16(e.StartDisk) ||
		isSentinel16(e.EntriesOnDisk) || isSentinel16(e.TotalEntries) ||
		isSentinel32(e.CDSize) || isSentinel32(e.CDOffset)
}

// ParseEOCD32 decodes the fixed 22-byte EOCD32 record starting at b[0].
func ParseEOCD32(b []byte) (eocd EOCD32, err error) {
	defer recoverUnknown("EOCD32", &err)

	c := newCursor(b)
	sig, err := c.u32("signature")
	if err != nil {
		return EOCD32{}, err
	}
	if sig != SigEOCD32 {
		return EOCD32{}, fieldError("signature")
	}

	if eocd.Disk, err = c.u16("disk number"); err != nil {
		return EOCD32{}, err
	}
	if eocd.StartDisk, err = c.u16("start disk number"); err != nil {
		return EOCD32{}, err
	}
	if eocd.EntriesOnDisk, err = c.u16("entries in CD disk"); err != nil {
		return EOCD32{}, err
	}
	if eocd.TotalEntries, err = c.u16("entries in CD disk"); err != nil {
		return EOCD32{}, err
	}
	if eocd.CDSize, err = c.u32("size of CD"); err != nil {
		return EOCD32{}, err
	}
	if eocd.CDOffset, err = c.u32("offset of CD"); err != nil {
		return EOCD32{}, err
	}
	if eocd.CommentLength, err = c.u16("comment length"); err != nil {
		return EOCD32{}, err
	}

	if eocd.Disk != 0 && !isSentinel16(eocd.Disk) {
		return EOCD32{}, fieldError("disk number")
	}
	if eocd.Disk != eocd.StartDisk {
		return EOCD32{}, fieldError("start disk number")
	}
	if eocd.EntriesOnDisk != eocd.TotalEntries {
		return EOCD32{}, fieldError("entries in CD disk")
	}

	if eocd.isZip64() {
		if !(eocd.CDSize == 0 || isSentinel32(eocd.CDSize)) {
			return EOCD32{}, fieldError("size of CD")
		}
		if !(eocd.CDOffset == 0 || isSentinel32(eocd.CDOffset)) {
			return EOCD32{}, fieldError("offset of CD")
		}
		if !(eocd.TotalEntries == 0 || isSentinel16(eocd.TotalEntries)) {
			return EOCD32{}, fieldError("entries in CD disk")
		}
	}

	return eocd, nil
}

// EOCD64Locator points to the absolute offset of the ZIP64 EOCD record.
type EOCD64Locator struct {
	EOCD64Disk uint32
	EOCDOffset int64
	TotalDisks uint32
}

// ParseEOCD64Locator decodes the fixed 20-byte ZIP64 EOCD locator.
func ParseEOCD64Locator(b []byte) (loc EOCD64Locator, err error) {
	defer recoverUnknown("ZIP64 EOCD locator", &err)

	c := newCursor(b)
	sig, err := c.u32("signature")
	if err != nil {
		return EOCD64Locator{}, err
	}
	if sig != SigEOCD64Locator {
		return EOCD64Locator{}, fieldError("signature")
	}

	if loc.EOCD64Disk, err = c.u32("start disk"); err != nil {
		return EOCD64Locator{}, err
	}
	offset, err := c.u64("offset of CD")
	if err != nil {
		return EOCD64Locator{}, err
	}
	loc.EOCDOffset = int64(offset)
	if loc.TotalDisks, err = c.u32("disks"); err != nil {
		return EOCD64Locator{}, err
	}

	if loc.EOCD64Disk != 0 {
		return EOCD64Locator{}, fieldError("start disk")
	}
	if loc.TotalDisks != 1 {
		return EOCD64Locator{}, fieldError("disks")
	}

	return loc, nil
}

// EOCD64 is the 56-byte (fixed portion) ZIP64 End of Central Directory record.
type EOCD64 struct {
	VersionMadeBy   uint16
	VersionNeeded   uint16
	Disk            uint32
	StartDisk       uint32
	EntriesOnDisk   uint64
	TotalEntries    uint64
	CDSize          uint64
	CDOffset        uint64
}

// Normalize reports the EOCD64 as the common EOCD shape.
func (e EOCD64) Normalize() EOCD {
	return EOCD{
		EntryCount: int64(e.TotalEntries),
		CDSize:     int64(e.CDSize),
		CDOffset:   int64(e.CDOffset),
		IsZip64:    true,
	}
}

// ParseEOCD64 decodes the fixed 56-byte ZIP64 EOCD record.
func ParseEOCD64(b []byte) (eocd EOCD64, err error) {
	defer recoverUnknown("EOCD64", &err)

	c := newCursor(b)
	sig, err := c.u32("signature")
	if err != nil {
		return EOCD64{}, err
	}
	if sig != SigEOCD64 {
		return EOCD64{}, fieldError("signature")
	}

	size, err := c.u64("size")
	if err != nil {
		return EOCD64{}, err
	}
	if size != EOCD64Size-12 {
		return EOCD64{}, fieldError("size")
	}

	if eocd.VersionMadeBy, err = c.u16("version made by"); err != nil {
		return EOCD64{}, err
	}
	if eocd.VersionNeeded, err = c.u16("version needed"); err != nil {
		return EOCD64{}, err
	}
	if eocd.VersionNeeded != 45 {
		return EOCD64{}, fieldError("version needed")
	}

	if eocd.Disk, err = c.u32("disk number"); err != nil {
		return EOCD64{}, err
	}
	if eocd.Disk != 0 {
		return EOCD64{}, fieldError("disk number")
	}

	if eocd.StartDisk, err = c.u32("start disk number"); err != nil {
		return EOCD64{}, err
	}
	if eocd.StartDisk != 0 {
		return EOCD64{}, fieldError("start disk number")
	}

	if eocd.EntriesOnDisk, err = c.u64("entries in CD"); err != nil {
		return EOCD64{}, err
	}
	if eocd.TotalEntries, err = c.u64("entries in CD"); err != nil {
		return EOCD64{}, err
	}
	if eocd.EntriesOnDisk != eocd.TotalEntries {
		return EOCD64{}, fieldError("entries in CD")
	}

	if eocd.CDSize, err = c.u64("size of CD"); err != nil {
		return EOCD64{}, err
	}
	if eocd.CDOffset, err = c.u64("offset of CD"); err != nil {
		return EOCD64{}, err
	}

	return eocd, nil
}
