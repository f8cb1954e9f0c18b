package loopback

import (
	"github.com/loggerhead/zaw"
	"github.com/loggerhead/zaw/errors"
)

// Memory is an in-process linear memory: page-sized, growable, never
// shrinking. Grow always relocates the backing buffer.
type Memory struct {
	buf []byte
}

// NewMemory creates a memory of the given initial page count.
func NewMemory(pages uint32) *Memory {
	return &Memory{buf: make([]byte, pages*zaw.PageSize)}
}

// Read returns a view over [offset, offset+length). The view is valid until
// the next Grow.
func (m *Memory) Read(offset, length uint32) ([]byte, error) {
	if uint64(offset)+uint64(length) > uint64(len(m.buf)) {
		return nil, errors.Bounds(errors.PhaseChannel, "memoryRead", offset, length, uint32(len(m.buf)))
	}
	return m.buf[offset : offset+length], nil
}

// Size returns the current size in bytes.
func (m *Memory) Size() uint32 {
	return uint32(len(m.buf))
}

// Grow adds deltaPages pages and returns the previous size in pages. The
// backing buffer is reallocated, invalidating all previously returned views.
func (m *Memory) Grow(deltaPages uint32) (uint32, error) {
	prevPages := uint32(len(m.buf)) / zaw.PageSize
	next := make([]byte, len(m.buf)+int(deltaPages)*zaw.PageSize)
	copy(next, m.buf)
	m.buf = next
	return prevPages, nil
}
