package image

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/bodgit/nuru/primitive"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	glyphModes    = []GlyphMode{GlyphNone, GlyphASCII, GlyphUnicode, GlyphPalette}
	colorModes    = []ColorMode{ColorNone, Color4Bit, Color8Bit, ColorPalette}
	metadataModes = []MetadataMode{MetadataNone, Metadata1Byte, Metadata2Byte}
)

func newHeader(g GlyphMode, c ColorMode, m MetadataMode, cols, rows uint16) Header {
	h := Header{
		Signature:    Signature,
		Version:      1,
		GlyphMode:    g,
		ColorMode:    c,
		MetadataMode: m,
		Cols:         cols,
		Rows:         rows,
	}
	copy(h.GlyphPalette[:], "glyphs")
	copy(h.ColorPalette[:], "colors")
	return h
}

func writeHeader(b *bytes.Buffer, h Header) {
	b.WriteString(h.Signature)
	b.Write([]byte{h.Version, uint8(h.GlyphMode), uint8(h.ColorMode), uint8(h.MetadataMode)})
	binary.Write(b, binary.BigEndian, h.Cols)
	binary.Write(b, binary.BigEndian, h.Rows)
	b.Write([]byte{h.CharKey, h.FGKey, h.BGKey})
	b.Write(h.GlyphPalette[:])
	b.Write(h.ColorPalette[:])
}

func writeCell(b *bytes.Buffer, h Header, c Cell) {
	switch h.GlyphMode {
	case GlyphASCII, GlyphPalette:
		b.WriteByte(byte(c.Glyph))
	case GlyphUnicode:
		binary.Write(b, binary.BigEndian, c.Glyph)
	}
	switch h.ColorMode {
	case Color4Bit:
		b.WriteByte(c.FG<<4 | c.BG&0x0f)
	case Color8Bit, ColorPalette:
		b.Write([]byte{c.FG, c.BG})
	}
	switch h.MetadataMode {
	case Metadata1Byte:
		b.WriteByte(byte(c.Metadata))
	case Metadata2Byte:
		binary.Write(b, binary.BigEndian, c.Metadata)
	}
}

func encode(h Header, cells []Cell) []byte {
	b := new(bytes.Buffer)
	writeHeader(b, h)
	for _, c := range cells {
		writeCell(b, h, c)
	}
	return b.Bytes()
}

// testCells returns cells whose values fit in the narrowest field widths
func testCells(n int) []Cell {
	cells := make([]Cell, n)
	for i := range cells {
		cells[i] = Cell{
			Glyph:    uint16('A' + i),
			FG:       uint8(i % 16),
			BG:       uint8(15 - i%16),
			Metadata: uint16(0x80 + i),
		}
	}
	return cells
}

// expected masks off the fields a mode does not store
func expected(h Header, in []Cell) []Cell {
	out := make([]Cell, len(in))
	for i, c := range in {
		if h.GlyphMode == GlyphNone {
			c.Glyph = ' '
		}
		if h.ColorMode == ColorNone {
			c.FG, c.BG = 0, 0
		}
		if h.MetadataMode == MetadataNone {
			c.Metadata = 0
		}
		out[i] = c
	}
	return out
}

func TestDecodeAllModes(t *testing.T) {
	const cols, rows = 3, 2
	trailer := []byte("TRAIL")

	for _, g := range glyphModes {
		for _, c := range colorModes {
			for _, m := range metadataModes {
				h := newHeader(g, c, m, cols, rows)
				t.Run(fmt.Sprintf("%s/%s/%s", g, c, m), func(t *testing.T) {
					cells := testCells(cols * rows)
					data := encode(h, cells)

					gs, _ := g.Size()
					cs, _ := c.Size()
					ms, _ := m.Size()
					size, err := h.CellSize()
					require.NoError(t, err)
					assert.Equal(t, gs+cs+ms, size)
					assert.Equal(t, headerLength+cols*rows*size, len(data))

					r := bytes.NewReader(append(data, trailer...))
					img, err := Decode(r)
					require.NoError(t, err)

					// Exactly the cell bytes are consumed
					assert.Equal(t, len(trailer), r.Len())

					if diff := cmp.Diff(expected(h, cells), img.Cells()); diff != "" {
						t.Errorf("cells mismatch (-want +got):\n%s", diff)
					}
					if diff := cmp.Diff(h, img.Header); diff != "" {
						t.Errorf("header mismatch (-want +got):\n%s", diff)
					}
				})
			}
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	h := newHeader(GlyphUnicode, Color8Bit, Metadata2Byte, 4, 3)
	data := encode(h, testCells(12))
	size, err := h.CellSize()
	require.NoError(t, err)

	for n := 0; n < len(data); n++ {
		img, err := Decode(bytes.NewReader(data[:n]))
		require.Error(t, err, "length %d", n)
		assert.Nil(t, img)
		assert.ErrorIs(t, err, primitive.ErrShortRead)

		if n < headerLength {
			assert.ErrorIs(t, err, ErrHeader)
			continue
		}

		var ce *CellError
		require.True(t, errors.As(err, &ce))
		assert.ErrorIs(t, err, ErrCellRead)
		assert.Equal(t, (n-headerLength)/size, ce.Index)

		var field string
		switch k := (n - headerLength) % size; {
		case k < 2:
			field = "glyph"
		case k < 4:
			field = "color"
		default:
			field = "metadata"
		}
		assert.Equal(t, field, ce.Field)
	}
}

func TestDecodeNoneScenario(t *testing.T) {
	h := newHeader(GlyphNone, ColorNone, MetadataNone, 2, 1)
	img, err := Decode(bytes.NewReader(encode(h, nil)))
	require.NoError(t, err)

	want := []Cell{
		{Glyph: ' '},
		{Glyph: ' '},
	}
	assert.Equal(t, want, img.Cells())
}

func TestDecodeBigEndian(t *testing.T) {
	b := new(bytes.Buffer)
	writeHeader(b, newHeader(GlyphUnicode, ColorNone, Metadata2Byte, 0x0001, 0x0001))
	b.Write([]byte{0x01, 0x02, 0x03, 0x04})

	img, err := Decode(b)
	require.NoError(t, err)
	c, ok := img.Cell(0, 0)
	require.True(t, ok)
	assert.Equal(t, uint16(0x0102), c.Glyph)
	assert.Equal(t, uint16(0x0304), c.Metadata)
}

func TestDecodeBadSignature(t *testing.T) {
	data := encode(newHeader(GlyphASCII, ColorNone, MetadataNone, 1, 1), testCells(1))
	copy(data, "NURUXXX")

	img, err := Decode(bytes.NewReader(data))
	assert.Nil(t, img)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestDecodeUnsupportedModes(t *testing.T) {
	tests := []struct {
		name string
		h    Header
		err  error
	}{
		{
			name: "glyph",
			h:    newHeader(3, ColorNone, MetadataNone, 1, 1),
			err:  ErrUnsupportedGlyphMode,
		},
		{
			name: "color",
			h:    newHeader(GlyphNone, 129, MetadataNone, 1, 1),
			err:  ErrUnsupportedColorMode,
		},
		{
			name: "metadata",
			h:    newHeader(GlyphNone, ColorNone, 3, 1, 1),
			err:  ErrUnsupportedMetadataMode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Plenty of payload so only the mode can be at fault
			data := append(encode(tt.h, nil), make([]byte, 16)...)
			img, err := Decode(bytes.NewReader(data))
			assert.Nil(t, img)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestDecodeTooLarge(t *testing.T) {
	h := newHeader(GlyphNone, ColorNone, MetadataNone, 0xffff, 0xffff)
	assert.Equal(t, int64(65535*65535), h.NumCells())

	img, err := Decode(bytes.NewReader(encode(h, nil)))
	assert.Nil(t, img)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.ErrorIs(t, err, ErrHeader)
}

func TestDecodeHeader(t *testing.T) {
	h := newHeader(GlyphPalette, ColorPalette, Metadata1Byte, 10, 20)
	h.CharKey, h.FGKey, h.BGKey = '#', 7, 9

	// No cell data at all
	r := bytes.NewReader(encode(h, nil))
	got, err := DecodeHeader(r)
	require.NoError(t, err)
	assert.Equal(t, h, got)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, "glyphs", got.GlyphPaletteName())
	assert.Equal(t, "colors", got.ColorPaletteName())
}

func TestPaletteNames(t *testing.T) {
	var h Header
	copy(h.GlyphPalette[:], "abc    ")
	copy(h.ColorPalette[:], "full777")
	assert.Equal(t, "abc", h.GlyphPaletteName())
	assert.Equal(t, "full777", h.ColorPaletteName())

	h = Header{}
	assert.Equal(t, "", h.GlyphPaletteName())
}

func TestCell(t *testing.T) {
	const cols, rows = 4, 3
	h := newHeader(GlyphUnicode, Color8Bit, Metadata2Byte, cols, rows)
	cells := testCells(cols * rows)
	img, err := Decode(bytes.NewReader(encode(h, cells)))
	require.NoError(t, err)
	assert.Equal(t, cols*rows, img.Len())

	for row := -1; row <= rows+1; row++ {
		for col := -1; col <= cols+1; col++ {
			c, ok := img.Cell(col, row)
			inside := col >= 0 && row >= 0 && col < cols && row < rows
			assert.Equal(t, inside, ok, "col %d row %d", col, row)
			if inside {
				assert.Equal(t, cells[row*cols+col], *c)
			} else {
				assert.Nil(t, c)
			}
		}
	}
}

func TestRelease(t *testing.T) {
	h := newHeader(GlyphASCII, ColorNone, MetadataNone, 2, 2)
	img, err := Decode(bytes.NewReader(encode(h, testCells(4))))
	require.NoError(t, err)

	require.NoError(t, img.Release())
	_, ok := img.Cell(0, 0)
	assert.False(t, ok)
	assert.Equal(t, 0, img.Len())
	assert.ErrorIs(t, img.Release(), ErrReleased)

	var nilImage *Image
	assert.ErrorIs(t, nilImage.Release(), ErrReleased)
}

func TestReleaseEmpty(t *testing.T) {
	img, err := Decode(bytes.NewReader(encode(newHeader(GlyphNone, ColorNone, MetadataNone, 0, 5), nil)))
	require.NoError(t, err)
	assert.Equal(t, 0, img.Len())
	assert.NoError(t, img.Release())
	assert.ErrorIs(t, img.Release(), ErrReleased)
}

func TestModeStrings(t *testing.T) {
	assert.Equal(t, "unicode", GlyphUnicode.String())
	assert.Equal(t, "GlyphMode(7)", GlyphMode(7).String())
	assert.Equal(t, "palette", ColorPalette.String())
	assert.Equal(t, "2byte", Metadata2Byte.String())
}
