/*
Package render draws decoded nuru images, either as text with ANSI escape
sequences for display in a terminal, or as a raster image.
*/
package render

import (
	"bufio"
	"fmt"
	"image/color"
	"io"

	nui "github.com/bodgit/nuru/image"
	"github.com/bodgit/nuru/palette"
)

// Options control how an image is rendered.
type Options struct {
	// Color enables escape sequences; without it only glyphs are written
	Color bool

	// Width clips each row to at most this many columns if non-zero
	Width int

	GlyphPalette *palette.Palette
	ColorPalette *palette.Palette
}

func sgr(c color.Color, background bool) string {
	base := 30
	if background {
		base = 40
	}
	switch c := c.(type) {
	case ANSI:
		if c < 8 {
			return fmt.Sprintf("%d", base+int(c))
		}
		return fmt.Sprintf("%d", base+60+int(c&0x07))
	case Xterm:
		return fmt.Sprintf("%d;5;%d", base+8, uint8(c))
	case palette.RGB:
		return fmt.Sprintf("%d;2;%d;%d;%d", base+8, c.R, c.G, c.B)
	case nil:
		return fmt.Sprintf("%d", base+9)
	default:
		r, g, b, _ := c.RGBA()
		return fmt.Sprintf("%d;2;%d;%d;%d", base+8, r>>8, g>>8, b>>8)
	}
}

type terminal struct {
	w    *bufio.Writer
	opts Options

	fg, bg color.Color
	dirty  bool
}

func (t *terminal) setColors(fg, bg color.Color) {
	if !t.opts.Color {
		return
	}
	// Each row starts with the default colors, both nil
	if fg == t.fg && bg == t.bg {
		return
	}
	fmt.Fprintf(t.w, "\x1b[%s;%sm", sgr(fg, false), sgr(bg, true))
	t.fg, t.bg, t.dirty = fg, bg, true
}

func (t *terminal) endRow() {
	if t.dirty {
		t.w.WriteString("\x1b[0m")
		t.fg, t.bg, t.dirty = nil, nil, false
	}
	t.w.WriteByte('\n')
}

// Terminal writes m to w one row per line.
func Terminal(w io.Writer, m *nui.Image, opts Options) error {
	t := terminal{
		w:    bufio.NewWriter(w),
		opts: opts,
	}

	cols := int(m.Cols)
	if opts.Width > 0 && opts.Width < cols {
		cols = opts.Width
	}

	for row := 0; row < int(m.Rows); row++ {
		for col := 0; col < cols; col++ {
			c, ok := m.Cell(col, row)
			if !ok {
				return fmt.Errorf("render: no cell at %d,%d", col, row)
			}
			fg, bg := Colors(m.Header, *c, opts.ColorPalette)
			t.setColors(fg, bg)
			t.w.WriteRune(Glyph(m.Header, *c, opts.GlyphPalette))
		}
		t.endRow()
	}

	return t.w.Flush()
}
