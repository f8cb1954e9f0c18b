package conduit

import (
	"encoding/binary"
	"math"
)

// Writer serializes one message into a channel's byte region.
type Writer struct {
	cursor
}

// NewWriter creates a Writer over buf with the cursor at 0.
func NewWriter(buf []byte) *Writer {
	return &Writer{cursor{buf: buf}}
}

// Rebind points the Writer at a fresh region and resets the cursor. Used
// after linear memory growth invalidates the previous view.
func (w *Writer) Rebind(buf []byte) {
	w.buf = buf
	w.off = 0
}

func (w *Writer) WriteUint8(v uint8) error {
	off, err := w.seek("writeUint8", 1, 1)
	if err != nil {
		return err
	}
	w.buf[off] = v
	return nil
}

func (w *Writer) WriteUint32(v uint32) error {
	off, err := w.seek("writeUint32", 4, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(w.buf[off:], v)
	return nil
}

func (w *Writer) WriteInt32(v int32) error {
	off, err := w.seek("writeInt32", 4, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(w.buf[off:], uint32(v))
	return nil
}

func (w *Writer) WriteFloat32(v float32) error {
	off, err := w.seek("writeFloat32", 4, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(w.buf[off:], math.Float32bits(v))
	return nil
}

func (w *Writer) WriteFloat64(v float64) error {
	off, err := w.seek("writeFloat64", 8, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(w.buf[off:], math.Float64bits(v))
	return nil
}
