package render

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"

	nui "github.com/bodgit/nuru/image"
	"github.com/bodgit/nuru/palette"
	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var errFormat = errors.New("render: unsupported output format")

var (
	face = basicfont.Face7x13

	// CellWidth and CellHeight are the size in pixels of each cell when
	// rasterized at a scale of 1
	CellWidth  = face.Advance
	CellHeight = face.Height

	defaultFG color.Color = ansiColors[7]
	defaultBG color.Color = ansiColors[0]
)

// RasterOptions control how an image is rasterized.
type RasterOptions struct {
	// Scale enlarges each pixel, values less than 2 leave the image as is
	Scale int

	GlyphPalette *palette.Palette
	ColorPalette *palette.Palette
}

// Rasterize draws every cell of m as a block of CellWidth by CellHeight
// pixels, the background filled and the glyph drawn on top.
func Rasterize(m *nui.Image, opts RasterOptions) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, int(m.Cols)*CellWidth, int(m.Rows)*CellHeight))

	d := font.Drawer{
		Dst:  dst,
		Face: face,
	}

	for row := 0; row < int(m.Rows); row++ {
		for col := 0; col < int(m.Cols); col++ {
			c, ok := m.Cell(col, row)
			if !ok {
				continue
			}

			fg, bg := Colors(m.Header, *c, opts.ColorPalette)
			if fg == nil {
				fg = defaultFG
			}
			if bg == nil {
				bg = defaultBG
			}

			x, y := col*CellWidth, row*CellHeight
			r := image.Rect(x, y, x+CellWidth, y+CellHeight)
			draw.Draw(dst, r, image.NewUniform(bg), image.Point{}, draw.Src)

			g := Glyph(m.Header, *c, opts.GlyphPalette)
			if g == space {
				continue
			}
			d.Src = image.NewUniform(fg)
			d.Dot = fixed.P(x, y+face.Ascent)
			d.DrawString(string(g))
		}
	}

	if opts.Scale < 2 {
		return dst
	}

	b := dst.Bounds()
	scaled := image.NewRGBA(image.Rect(0, 0, b.Dx()*opts.Scale, b.Dy()*opts.Scale))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), dst, b, draw.Src, nil)
	return scaled
}

// Quantize reduces m to a palette of at most n colors.
func Quantize(m image.Image, n int) *image.Paletted {
	q := quantize.MedianCutQuantizer{}
	b := m.Bounds()
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, n), m))
	draw.Draw(pm, b, m, b.Min, draw.Src)
	return pm
}

// Encode writes m to w in the given format, either "png" or "bmp".
func Encode(w io.Writer, m image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(w, m)
	case "bmp":
		return bmp.Encode(w, m)
	default:
		return errFormat
	}
}
