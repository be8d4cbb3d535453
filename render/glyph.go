package render

import (
	"unicode"
	"unicode/utf8"

	nui "github.com/bodgit/nuru/image"
	"github.com/bodgit/nuru/palette"
	"golang.org/x/text/encoding/charmap"
)

const space = ' '

func printable(r rune) rune {
	if !utf8.ValidRune(r) || !unicode.IsPrint(r) {
		return space
	}
	return r
}

// Glyph returns the rune to draw for a cell. Bytes above 0x7f in ASCII mode
// are mapped through code page 437. Palette mode looks the byte up in the
// glyph palette, falling back to the byte itself if there is no usable
// palette. A glyph matching the non-zero character key and anything that is
// not printable is returned as a space.
func Glyph(h nui.Header, c nui.Cell, glyphs *palette.Palette) rune {
	if h.GlyphMode != nui.GlyphNone && h.CharKey != 0 && c.Glyph == uint16(h.CharKey) {
		return space
	}

	switch h.GlyphMode {
	case nui.GlyphASCII:
		b := byte(c.Glyph)
		if b >= utf8.RuneSelf {
			return printable(charmap.CodePage437.DecodeByte(b))
		}
		return printable(rune(b))
	case nui.GlyphUnicode:
		return printable(rune(c.Glyph))
	case nui.GlyphPalette:
		if glyphs != nil {
			if g, ok := glyphs.Glyph(uint8(c.Glyph)); ok {
				return printable(rune(g))
			}
		}
		return printable(rune(c.Glyph))
	default:
		return space
	}
}
