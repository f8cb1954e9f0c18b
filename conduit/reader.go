package conduit

import (
	"encoding/binary"
	"math"
)

// Reader deserializes one message from a channel's byte region.
type Reader struct {
	cursor
}

// NewReader creates a Reader over buf with the cursor at 0.
func NewReader(buf []byte) *Reader {
	return &Reader{cursor{buf: buf}}
}

// Rebind points the Reader at a fresh region and resets the cursor. Used
// after linear memory growth invalidates the previous view.
func (r *Reader) Rebind(buf []byte) {
	r.buf = buf
	r.off = 0
}

func (r *Reader) ReadUint8() (uint8, error) {
	off, err := r.seek("readUint8", 1, 1)
	if err != nil {
		return 0, err
	}
	return r.buf[off], nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	off, err := r.seek("readUint32", 4, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.buf[off:]), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	off, err := r.seek("readInt32", 4, 4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(r.buf[off:])), nil
}

func (r *Reader) ReadFloat32() (float32, error) {
	off, err := r.seek("readFloat32", 4, 4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(r.buf[off:])), nil
}

func (r *Reader) ReadFloat64() (float64, error) {
	off, err := r.seek("readFloat64", 8, 8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(r.buf[off:])), nil
}
