// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package ziprecord

import "encoding/binary"

// cursor is a little-endian byte reader used by every record parser. Each
// accessor takes the field name that should appear in the RecordError
// message if the buffer runs short.
type cursor struct {
	b   []byte
	pos int
}

func newCursor(b []byte) *cursor { return &cursor{b: b} }

func (c *cursor) remaining() int { return len(c.b) - c.pos }

func (c *cursor) need(n int, field string) error {
	if c.remaining() < n {
		return incompleteError(field)
	}
	return nil
}

func (c *cursor) u16(field string) (uint16, error) {
	if err := c.need(2, field); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.b[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *cursor) u32(field string) (uint32, error) {
	if err := c.need(4, field); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.b[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *cursor) u64(field string) (uint64, error) {
	if err := c.need(8, field); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(c.b[c.pos:])
	c.pos += 8
	return v, nil
}

func (c *cursor) bytes(n int, field string) ([]byte, error) {
	if err := c.need(n, field); err != nil {
		return nil, err
	}
	v := c.b[c.pos : c.pos+n]
	c.pos += n
	return v, nil
}

func (c *cursor) skip(n int, field string) error {
	if err := c.need(n, field); err != nil {
		return err
	}
	c.pos += n
	return nil
}
