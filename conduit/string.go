package conduit

import (
	"strings"
	"unicode/utf8"
)

// String values layer on the byte-array primitives. The two encodings are
// distinct wire forms with no in-band tag; both sides must agree out of band
// which one an operation uses.

// WriteString encodes s as UTF-8 bytes with a u32 length prefix (byte count,
// not character count).
func (w *Writer) WriteString(s string) error {
	dst, err := InitArray[uint8](w, len(s))
	if err != nil {
		return err
	}
	copy(dst, s)
	return nil
}

// ReadString decodes a UTF-8 string written by WriteString.
func (r *Reader) ReadString() (string, error) {
	b, err := ReadArray[uint8](r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteLatin1 encodes one byte per character. Only code points 0-255 are
// representable; that restriction is the caller's responsibility per the
// wire contract. Higher code points are truncated to their low byte.
func (w *Writer) WriteLatin1(s string) error {
	dst, err := InitArray[uint8](w, utf8.RuneCountInString(s))
	if err != nil {
		return err
	}
	i := 0
	for _, c := range s {
		dst[i] = uint8(c)
		i++
	}
	return nil
}

// ReadLatin1 decodes a string written by WriteLatin1: each byte is one code
// point.
func (r *Reader) ReadLatin1() (string, error) {
	b, err := ReadArray[uint8](r)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		sb.WriteRune(rune(c))
	}
	return sb.String(), nil
}
