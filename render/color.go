package render

import (
	"image/color"

	nui "github.com/bodgit/nuru/image"
	"github.com/bodgit/nuru/palette"
)

// ANSI is one of the 16 standard terminal colors.
type ANSI uint8

var ansiColors = [16]color.RGBA{
	{0x00, 0x00, 0x00, 0xff},
	{0xcd, 0x00, 0x00, 0xff},
	{0x00, 0xcd, 0x00, 0xff},
	{0xcd, 0xcd, 0x00, 0xff},
	{0x00, 0x00, 0xee, 0xff},
	{0xcd, 0x00, 0xcd, 0xff},
	{0x00, 0xcd, 0xcd, 0xff},
	{0xe5, 0xe5, 0xe5, 0xff},
	{0x7f, 0x7f, 0x7f, 0xff},
	{0xff, 0x00, 0x00, 0xff},
	{0x00, 0xff, 0x00, 0xff},
	{0xff, 0xff, 0x00, 0xff},
	{0x5c, 0x5c, 0xff, 0xff},
	{0xff, 0x00, 0xff, 0xff},
	{0x00, 0xff, 0xff, 0xff},
	{0xff, 0xff, 0xff, 0xff},
}

// RGBA implements the color.Color interface.
func (c ANSI) RGBA() (r, g, b, a uint32) {
	return ansiColors[c&0x0f].RGBA()
}

// Xterm is one of the 256 xterm colors.
type Xterm uint8

var cubeLevels = [6]uint8{0x00, 0x5f, 0x87, 0xaf, 0xd7, 0xff}

func xtermColor(i uint8) color.RGBA {
	switch {
	case i < 16:
		return ansiColors[i]
	case i < 232:
		i -= 16
		return color.RGBA{cubeLevels[i/36], cubeLevels[i/6%6], cubeLevels[i%6], 0xff}
	default:
		v := 8 + (i-232)*10
		return color.RGBA{v, v, v, 0xff}
	}
}

// RGBA implements the color.Color interface.
func (c Xterm) RGBA() (r, g, b, a uint32) {
	return xtermColor(uint8(c)).RGBA()
}

// Xterm256 is the xterm palette as a color.Palette.
var Xterm256 = func() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = xtermColor(uint8(i))
	}
	return p
}()

func keyed(key, v uint8) bool {
	return key != 0 && key == v
}

func resolve(h nui.Header, v uint8, colors *palette.Palette) color.Color {
	switch h.ColorMode {
	case nui.Color4Bit:
		return ANSI(v)
	case nui.Color8Bit:
		return Xterm(v)
	case nui.ColorPalette:
		if colors != nil {
			if i, ok := colors.ColorIndex(v); ok {
				return Xterm(i)
			}
			if c, ok := colors.RGB(v); ok {
				return c
			}
		}
		return Xterm(v)
	default:
		return nil
	}
}

// Colors returns the foreground and background colors of a cell. A nil color
// means the default color should be used, either because the image has no
// colors or because the value matches the non-zero key in the header. The
// concrete type is ANSI, Xterm or palette.RGB depending on the color mode.
func Colors(h nui.Header, c nui.Cell, colors *palette.Palette) (fg, bg color.Color) {
	if !keyed(h.FGKey, c.FG) {
		fg = resolve(h, c.FG, colors)
	}
	if !keyed(h.BGKey, c.BG) {
		bg = resolve(h, c.BG, colors)
	}
	return
}
