package conduit

import (
	"unsafe"

	"github.com/loggerhead/zaw/errors"
)

// Element is the set of scalar types that may appear in arrays. The wire
// width and alignment of an element follow the scalar rules: 1-byte raw,
// 4-byte at multiples of 4, 8-byte at multiples of 8.
type Element interface {
	~uint8 | ~uint32 | ~int32 | ~float32 | ~float64
}

func elemWidth[T Element]() uint32 {
	var zero T
	return uint32(unsafe.Sizeof(zero))
}

// view reinterprets n elements of the region starting at off. Valid only
// while the backing buffer is; linear memory growth invalidates it.
func view[T Element](buf []byte, off uint32, n uint32) []T {
	return unsafe.Slice((*T)(unsafe.Pointer(&buf[off])), n)
}

// InitArray writes the u32 length prefix, reserves space for length elements
// and returns a mutable view over the reserved region for direct population.
// A zero length still writes the prefix and returns an empty view.
func InitArray[T Element](w *Writer, length int) ([]T, error) {
	if length < 0 {
		return nil, errors.InvalidInput(errors.PhaseConduit, "negative array length")
	}
	if err := w.WriteUint32(uint32(length)); err != nil {
		return nil, err
	}
	if length == 0 {
		return []T{}, nil
	}
	width := elemWidth[T]()
	off, err := w.seekWide("initArray", uint64(width)*uint64(length), width)
	if err != nil {
		return nil, err
	}
	return view[T](w.buf, off, uint32(length)), nil
}

// CopyArray writes the length prefix then bulk-copies data into the channel.
func CopyArray[T Element](w *Writer, data []T) error {
	dst, err := InitArray[T](w, len(data))
	if err != nil {
		return err
	}
	copy(dst, data)
	return nil
}

// ReadArray reads the u32 length prefix and returns a zero-copy view over
// that many elements. The view aliases the channel region: it is valid until
// the channel is reset, reallocated, or the linear memory grows.
func ReadArray[T Element](r *Reader) ([]T, error) {
	length, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return []T{}, nil
	}
	width := elemWidth[T]()
	off, err := r.seekWide("readArray", uint64(width)*uint64(length), width)
	if err != nil {
		return nil, err
	}
	return view[T](r.buf, off, length), nil
}
