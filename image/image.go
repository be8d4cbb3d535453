/*
Package image implements a nuru image decoder.

A nuru image is a grid of character cells. The file is written as a 32 byte
header followed by one record per cell in row-major order. Each record is made
of up to three fields, the presence and width of which are determined by the
glyph, color and metadata modes in the header:

	glyph     none: 0, ascii: 1, unicode: 2, palette: 1 byte(s)
	color     none: 0, 4bit: 1, 8bit: 2, palette: 2 byte(s)
	metadata  none: 0, 1byte: 1, 2byte: 2 byte(s)

All multi-byte integers are big-endian.
*/
package image

import (
	"bytes"
	"errors"
	"fmt"
)

const (
	// Signature is the magic string at the start of every image file.
	Signature    = "NURUIMG"
	nameLength   = 7
	headerLength = 32

	// MaxCells is the largest number of cells the decoder will allocate.
	MaxCells = 1 << 26

	space = 0x20
)

// GlyphMode defines how the glyph of each cell is stored.
type GlyphMode uint8

// Glyph modes
const (
	GlyphNone    GlyphMode = 0
	GlyphASCII   GlyphMode = 1
	GlyphUnicode GlyphMode = 2
	GlyphPalette GlyphMode = 129
)

// Size returns the number of bytes used by the glyph field of a cell.
func (m GlyphMode) Size() (int, error) {
	switch m {
	case GlyphNone:
		return 0, nil
	case GlyphASCII, GlyphPalette:
		return 1, nil
	case GlyphUnicode:
		return 2, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedGlyphMode, uint8(m))
	}
}

func (m GlyphMode) String() string {
	switch m {
	case GlyphNone:
		return "none"
	case GlyphASCII:
		return "ascii"
	case GlyphUnicode:
		return "unicode"
	case GlyphPalette:
		return "palette"
	default:
		return fmt.Sprintf("GlyphMode(%d)", uint8(m))
	}
}

// ColorMode defines how the colors of each cell are stored.
type ColorMode uint8

// Color modes
const (
	ColorNone    ColorMode = 0
	Color4Bit    ColorMode = 1
	Color8Bit    ColorMode = 2
	ColorPalette ColorMode = 130
)

// Size returns the number of bytes used by the color fields of a cell.
func (m ColorMode) Size() (int, error) {
	switch m {
	case ColorNone:
		return 0, nil
	case Color4Bit:
		return 1, nil
	case Color8Bit, ColorPalette:
		return 2, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedColorMode, uint8(m))
	}
}

func (m ColorMode) String() string {
	switch m {
	case ColorNone:
		return "none"
	case Color4Bit:
		return "4bit"
	case Color8Bit:
		return "8bit"
	case ColorPalette:
		return "palette"
	default:
		return fmt.Sprintf("ColorMode(%d)", uint8(m))
	}
}

// MetadataMode defines how much metadata is stored with each cell.
type MetadataMode uint8

// Metadata modes
const (
	MetadataNone  MetadataMode = 0
	Metadata1Byte MetadataMode = 1
	Metadata2Byte MetadataMode = 2
)

// Size returns the number of bytes used by the metadata field of a cell.
func (m MetadataMode) Size() (int, error) {
	switch m {
	case MetadataNone:
		return 0, nil
	case Metadata1Byte:
		return 1, nil
	case Metadata2Byte:
		return 2, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedMetadataMode, uint8(m))
	}
}

func (m MetadataMode) String() string {
	switch m {
	case MetadataNone:
		return "none"
	case Metadata1Byte:
		return "1byte"
	case Metadata2Byte:
		return "2byte"
	default:
		return fmt.Sprintf("MetadataMode(%d)", uint8(m))
	}
}

// Header holds the fixed fields at the start of an image file.
type Header struct {
	Signature    string
	Version      uint8
	GlyphMode    GlyphMode
	ColorMode    ColorMode
	MetadataMode MetadataMode
	Cols         uint16
	Rows         uint16

	// Keys mark transparent or default glyphs and colors
	CharKey uint8
	FGKey   uint8
	BGKey   uint8

	// Names of the palettes used by the palette glyph and color modes
	GlyphPalette [nameLength]byte
	ColorPalette [nameLength]byte
}

// NumCells returns the number of cells in the grid. The product is computed
// in 64 bits so 65535 x 65535 cannot wrap.
func (h Header) NumCells() int64 {
	return int64(h.Cols) * int64(h.Rows)
}

// CellSize returns the size in bytes of each cell record.
func (h Header) CellSize() (int, error) {
	g, err := h.GlyphMode.Size()
	if err != nil {
		return 0, err
	}
	c, err := h.ColorMode.Size()
	if err != nil {
		return 0, err
	}
	m, err := h.MetadataMode.Size()
	if err != nil {
		return 0, err
	}
	return g + c + m, nil
}

func trimName(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(bytes.TrimRight(b, " "))
}

// GlyphPaletteName returns the glyph palette reference with any padding
// removed.
func (h Header) GlyphPaletteName() string {
	return trimName(h.GlyphPalette[:])
}

// ColorPaletteName returns the color palette reference with any padding
// removed.
func (h Header) ColorPaletteName() string {
	return trimName(h.ColorPalette[:])
}

// Cell is a single element of the grid.
type Cell struct {
	Glyph    uint16
	FG       uint8
	BG       uint8
	Metadata uint16
}

// Image is a decoded nuru image.
type Image struct {
	Header

	cells []Cell
}

// ErrReleased is returned when releasing an image more than once.
var ErrReleased = errors.New("image: already released")

// Cell returns the cell at the given column and row. It returns false if the
// position lies outside the grid or the image has been released.
func (m *Image) Cell(col, row int) (*Cell, bool) {
	if col < 0 || row < 0 || col >= int(m.Cols) || row >= int(m.Rows) {
		return nil, false
	}
	idx := row*int(m.Cols) + col
	if idx >= len(m.cells) {
		return nil, false
	}
	return &m.cells[idx], true
}

// Cells returns all cells in row-major order.
func (m *Image) Cells() []Cell {
	return m.cells
}

// Len returns the number of cells held by the image.
func (m *Image) Len() int {
	return len(m.cells)
}

// Release drops the cells held by the image. Releasing an image twice
// returns ErrReleased.
func (m *Image) Release() error {
	if m == nil || m.cells == nil {
		return ErrReleased
	}
	m.cells = nil
	return nil
}
