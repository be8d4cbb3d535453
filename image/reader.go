package image

import (
	"errors"
	"fmt"
	"io"

	"github.com/bodgit/nuru/primitive"
)

var (
	ErrBadSignature            = errors.New("image: invalid signature")
	ErrHeader                  = errors.New("image: cannot read header")
	ErrUnsupportedGlyphMode    = errors.New("image: unsupported glyph mode")
	ErrUnsupportedColorMode    = errors.New("image: unsupported color mode")
	ErrUnsupportedMetadataMode = errors.New("image: unsupported metadata mode")
	ErrTooLarge                = errors.New("image: dimensions exceed limit")
	ErrCellRead                = errors.New("image: cannot read cell")
)

// CellError records which cell, and which field of that cell, could not be
// read.
type CellError struct {
	Index int
	Field string
	Err   error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("image: cannot read %s of cell %d: %v", e.Field, e.Index, e.Err)
}

func (e *CellError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCellRead.
func (e *CellError) Is(target error) bool {
	return target == ErrCellRead
}

type decoder struct {
	r *primitive.Reader

	header Header
	cells  []Cell
}

func (d *decoder) readSignature() error {
	b, err := d.r.FixedString(len(Signature))
	if err != nil {
		return fmt.Errorf("%w: signature: %w", ErrHeader, err)
	}
	if string(b) != Signature {
		return ErrBadSignature
	}
	d.header.Signature = Signature
	return nil
}

func (d *decoder) readHeader() error {
	if err := d.readSignature(); err != nil {
		return err
	}

	fields := []struct {
		name string
		dst  *uint8
	}{
		{"version", &d.header.Version},
		{"glyph mode", (*uint8)(&d.header.GlyphMode)},
		{"color mode", (*uint8)(&d.header.ColorMode)},
		{"metadata mode", (*uint8)(&d.header.MetadataMode)},
	}
	for _, f := range fields {
		v, err := d.r.Uint8()
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrHeader, f.name, err)
		}
		*f.dst = v
	}

	var err error
	if d.header.Cols, err = d.r.Uint16(); err != nil {
		return fmt.Errorf("%w: cols: %w", ErrHeader, err)
	}
	if d.header.Rows, err = d.r.Uint16(); err != nil {
		return fmt.Errorf("%w: rows: %w", ErrHeader, err)
	}

	fields = []struct {
		name string
		dst  *uint8
	}{
		{"ch key", &d.header.CharKey},
		{"fg key", &d.header.FGKey},
		{"bg key", &d.header.BGKey},
	}
	for _, f := range fields {
		v, err := d.r.Uint8()
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrHeader, f.name, err)
		}
		*f.dst = v
	}

	names := []struct {
		name string
		dst  *[nameLength]byte
	}{
		{"glyph palette", &d.header.GlyphPalette},
		{"color palette", &d.header.ColorPalette},
	}
	for _, n := range names {
		b, err := d.r.FixedString(nameLength)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrHeader, n.name, err)
		}
		copy(n.dst[:], b)
	}

	return nil
}

func (d *decoder) validate() error {
	if _, err := d.header.CellSize(); err != nil {
		return err
	}
	if d.header.NumCells() > MaxCells {
		return fmt.Errorf("%w: %w: %d x %d cells", ErrHeader, ErrTooLarge, d.header.Cols, d.header.Rows)
	}
	return nil
}

func (d *decoder) readGlyph(c *Cell) (err error) {
	switch d.header.GlyphMode {
	case GlyphNone:
		c.Glyph = space
	case GlyphASCII, GlyphPalette:
		c.Glyph, err = d.r.Int(1)
	case GlyphUnicode:
		c.Glyph, err = d.r.Int(2)
	default:
		err = ErrUnsupportedGlyphMode
	}
	return
}

func (d *decoder) readColor(c *Cell) (err error) {
	switch d.header.ColorMode {
	case ColorNone:
		c.FG, c.BG = 0, 0
	case Color4Bit:
		c.FG, c.BG, err = d.r.PackedColor()
	case Color8Bit, ColorPalette:
		if c.FG, err = d.r.Uint8(); err != nil {
			return
		}
		c.BG, err = d.r.Uint8()
	default:
		err = ErrUnsupportedColorMode
	}
	return
}

func (d *decoder) readMetadata(c *Cell) (err error) {
	switch d.header.MetadataMode {
	case MetadataNone:
		c.Metadata = 0
	case Metadata1Byte:
		c.Metadata, err = d.r.Int(1)
	case Metadata2Byte:
		c.Metadata, err = d.r.Int(2)
	default:
		err = ErrUnsupportedMetadataMode
	}
	return
}

func (d *decoder) readCells() error {
	cells := make([]Cell, int(d.header.NumCells()))

	fields := []struct {
		name string
		read func(*Cell) error
	}{
		{"glyph", d.readGlyph},
		{"color", d.readColor},
		{"metadata", d.readMetadata},
	}

	for i := range cells {
		for _, f := range fields {
			if err := f.read(&cells[i]); err != nil {
				return &CellError{Index: i, Field: f.name, Err: err}
			}
		}
	}

	d.cells = cells
	return nil
}

func (d *decoder) decode(r io.Reader, headerOnly bool) error {
	d.r = primitive.NewReader(r)

	if err := d.readHeader(); err != nil {
		return err
	}

	if err := d.validate(); err != nil {
		return err
	}

	if headerOnly {
		return nil
	}

	return d.readCells()
}

// Decode reads a nuru image from r. On failure no partially decoded image is
// returned. Decode reads exactly as many bytes as the header and cells
// require; callers reading from a file should wrap it in a bufio.Reader.
func Decode(r io.Reader) (*Image, error) {
	var d decoder
	if err := d.decode(r, false); err != nil {
		return nil, err
	}
	return &Image{
		Header: d.header,
		cells:  d.cells,
	}, nil
}

// DecodeHeader returns the header of a nuru image without decoding the
// cells.
func DecodeHeader(r io.Reader) (Header, error) {
	var d decoder
	if err := d.decode(r, true); err != nil {
		return Header{}, err
	}
	return d.header, nil
}
