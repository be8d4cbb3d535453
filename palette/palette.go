/*
Package palette implements a nuru palette decoder.

A nuru palette is a 16 byte header followed by exactly 256 entries. The type
byte in the header selects the layout of every entry:

	color 8bit     1 byte, an 8-bit color index
	glyph unicode  2 bytes, a big-endian code point
	color rgb      3 bytes, red, green and blue

Any other type has no entries at all.
*/
package palette

import (
	"fmt"

	"github.com/bodgit/nuru/primitive"
)

const (
	// Signature is the magic string at the start of every palette file.
	Signature = "NURUPAL"

	// NumEntries is the fixed number of entries in a palette.
	NumEntries = 256

	userDataLength = 4
)

// Type selects the layout of the palette entries.
type Type uint8

// Palette types
const (
	TypeNone         Type = 0
	TypeColor8Bit    Type = 1
	TypeGlyphUnicode Type = 2
	TypeColorRGB     Type = 3
)

// EntrySize returns the size in bytes of each entry, zero for types that
// carry no entries.
func (t Type) EntrySize() int {
	switch t {
	case TypeColor8Bit:
		return 1
	case TypeGlyphUnicode:
		return 2
	case TypeColorRGB:
		return 3
	default:
		return 0
	}
}

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeColor8Bit:
		return "color8bit"
	case TypeGlyphUnicode:
		return "glyphunicode"
	case TypeColorRGB:
		return "colorrgb"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// RGB is a 24-bit color entry.
type RGB = primitive.RGB

// Entries is implemented by the three entry tables. Exactly one of them is
// held by a palette, selected by its type.
type Entries interface {
	Type() Type
}

// ColorIndices holds the entries of a TypeColor8Bit palette.
type ColorIndices [NumEntries]uint8

// Type implements the Entries interface.
func (*ColorIndices) Type() Type { return TypeColor8Bit }

// Glyphs holds the entries of a TypeGlyphUnicode palette.
type Glyphs [NumEntries]uint16

// Type implements the Entries interface.
func (*Glyphs) Type() Type { return TypeGlyphUnicode }

// Colors holds the entries of a TypeColorRGB palette.
type Colors [NumEntries]RGB

// Type implements the Entries interface.
func (*Colors) Type() Type { return TypeColorRGB }

// Header holds the fixed fields at the start of a palette file.
type Header struct {
	Signature string
	Version   uint8
	Type      Type

	CharKey uint8
	FGKey   uint8
	BGKey   uint8

	UserData [userDataLength]byte
}

// Palette is a decoded nuru palette.
type Palette struct {
	Header

	// Entries is nil when the header type is not recognized
	Entries Entries
}

// Empty reports whether the palette has no entries.
func (p *Palette) Empty() bool {
	return p.Entries == nil
}

// ColorIndex returns entry i of a TypeColor8Bit palette. It returns false if
// the palette holds another type of entry.
func (p *Palette) ColorIndex(i uint8) (uint8, bool) {
	e, ok := p.Entries.(*ColorIndices)
	if !ok {
		return 0, false
	}
	return e[i], true
}

// Glyph returns entry i of a TypeGlyphUnicode palette. It returns false if
// the palette holds another type of entry.
func (p *Palette) Glyph(i uint8) (uint16, bool) {
	e, ok := p.Entries.(*Glyphs)
	if !ok {
		return 0, false
	}
	return e[i], true
}

// RGB returns entry i of a TypeColorRGB palette. It returns false if the
// palette holds another type of entry.
func (p *Palette) RGB(i uint8) (RGB, bool) {
	e, ok := p.Entries.(*Colors)
	if !ok {
		return RGB{}, false
	}
	return e[i], true
}
