package conduit

import (
	"github.com/loggerhead/zaw/errors"
)

// cursor is the shared addressing logic of Writer and Reader: a byte region
// plus the current offset. The two roles differ only in direction.
type cursor struct {
	buf []byte
	off uint32
}

// alignUp rounds off up to the next multiple of align. align is a power of 2.
func alignUp(off, align uint32) uint32 {
	return (off + align - 1) &^ (align - 1)
}

// seek aligns the cursor for an access of the given width, bounds-checks it
// against capacity, and advances past it. On failure the cursor is left
// where it was. Returns the aligned offset of the access.
func (c *cursor) seek(op string, width, align uint32) (uint32, error) {
	off := alignUp(c.off, align)
	end := uint64(off) + uint64(width)
	if end > uint64(len(c.buf)) {
		return 0, errors.Bounds(errors.PhaseConduit, op, off, width, uint32(len(c.buf)))
	}
	c.off = uint32(end)
	return off, nil
}

// seekWide is seek for array payloads whose total width may overflow uint32.
func (c *cursor) seekWide(op string, width uint64, align uint32) (uint32, error) {
	off := alignUp(c.off, align)
	end := uint64(off) + width
	if end > uint64(len(c.buf)) {
		return 0, errors.Bounds(errors.PhaseConduit, op, off, uint32(width), uint32(len(c.buf)))
	}
	c.off = uint32(end)
	return off, nil
}

// Offset returns the current cursor position in bytes from region start.
func (c *cursor) Offset() uint32 {
	return c.off
}

// Capacity returns the channel region size in bytes.
func (c *cursor) Capacity() uint32 {
	return uint32(len(c.buf))
}

// Reset moves the cursor back to offset 0 for a new message.
func (c *cursor) Reset() {
	c.off = 0
}
