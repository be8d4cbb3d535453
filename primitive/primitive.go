/*
Package primitive implements the fixed-size scalar readers shared by the nuru
image and palette decoders.

All multi-byte integers in the nuru formats are stored big-endian. A Reader
never reads ahead of the value it is asked for so the underlying source is left
positioned immediately after the last value read.
*/
package primitive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrShortRead is returned when the source ends, or fails, before a
	// value has been completely read.
	ErrShortRead = errors.New("primitive: short read")

	// ErrWidth is returned by Int for widths other than 1 or 2.
	ErrWidth = errors.New("primitive: unsupported integer width")
)

// RGB is a 24-bit color triple.
type RGB struct {
	R, G, B uint8
}

// RGBA implements the color.Color interface.
func (c RGB) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

func upperNibble(b byte) byte {
	return b & 0xf0
}

func lowerNibble(b byte) byte {
	return b & 0x0f
}

// Reader reads nuru scalars from an underlying byte source.
type Reader struct {
	r   io.Reader
	off int64

	// Big enough for the largest fixed scalar, an RGB triple
	tmp [3]byte
}

// NewReader returns a new Reader reading from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Offset returns the number of bytes consumed from the source so far.
func (r *Reader) Offset() int64 {
	return r.off
}

func (r *Reader) readFull(b []byte) error {
	n, err := io.ReadFull(r.r, b)
	r.off += int64(n)
	switch err {
	case nil:
		return nil
	case io.EOF, io.ErrUnexpectedEOF:
		return ErrShortRead
	default:
		return fmt.Errorf("%w: %w", ErrShortRead, err)
	}
}

// Int reads an unsigned integer of width bytes, either 1 or 2. Two byte
// integers are decoded big-endian regardless of the host byte order.
func (r *Reader) Int(width int) (uint16, error) {
	switch width {
	case 1:
		v, err := r.Uint8()
		return uint16(v), err
	case 2:
		return r.Uint16()
	default:
		return 0, fmt.Errorf("%w: %d", ErrWidth, width)
	}
}

// Uint8 reads a single byte.
func (r *Reader) Uint8() (uint8, error) {
	if err := r.readFull(r.tmp[:1]); err != nil {
		return 0, err
	}
	return r.tmp[0], nil
}

// Uint16 reads a big-endian 16-bit integer.
func (r *Reader) Uint16() (uint16, error) {
	if err := r.readFull(r.tmp[:2]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(r.tmp[:2]), nil
}

// PackedColor reads a single byte holding a foreground color in the upper
// nibble and a background color in the lower nibble. Both are returned
// unscaled in the range 0-15.
func (r *Reader) PackedColor() (fg, bg uint8, err error) {
	if err = r.readFull(r.tmp[:1]); err != nil {
		return 0, 0, err
	}
	return upperNibble(r.tmp[0]) >> 4, lowerNibble(r.tmp[0]), nil
}

// RGB reads three bytes in R, G, B order.
func (r *Reader) RGB() (RGB, error) {
	if err := r.readFull(r.tmp[:3]); err != nil {
		return RGB{}, err
	}
	return RGB{r.tmp[0], r.tmp[1], r.tmp[2]}, nil
}

// FixedString reads exactly n raw bytes. The bytes are not required to be
// valid text.
func (r *Reader) FixedString(n int) ([]byte, error) {
	b := make([]byte, n)
	if err := r.readFull(b); err != nil {
		return nil, err
	}
	return b, nil
}
