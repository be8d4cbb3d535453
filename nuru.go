/*
Package nuru is a library for loading, indexing and resolving nuru
character-grid images and their palettes.

The binary formats themselves are decoded by the image and palette
sub-packages; this package handles the files around them.
*/
package nuru

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	nui "github.com/bodgit/nuru/image"
	"github.com/bodgit/nuru/palette"
)

const (
	// ImageExt is the file extension of nuru images.
	ImageExt = ".nui"

	// PaletteExt is the file extension of nuru palettes.
	PaletteExt = ".nup"
)

var (
	// ErrPaletteNotFound is returned when a palette referenced by an image
	// cannot be located.
	ErrPaletteNotFound = errors.New("nuru: palette not found")

	errNoCatalog = errors.New("nuru: no catalog")
)

type Nuru struct {
	catalog     *Catalog
	logger      *log.Logger
	paletteDirs []string
}

// New returns a Nuru using the given catalog, which may be nil, and logger.
// Any paletteDirs are searched for palettes the catalog doesn't know about.
func New(catalog *Catalog, logger *log.Logger, paletteDirs ...string) *Nuru {
	return &Nuru{
		catalog:     catalog,
		logger:      logger,
		paletteDirs: paletteDirs,
	}
}

// LoadImage decodes the image in file.
func (n *Nuru) LoadImage(file string) (*nui.Image, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := nui.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return m, nil
}

// LoadPalette decodes the palette in file.
func (n *Nuru) LoadPalette(file string) (*palette.Palette, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := palette.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return p, nil
}

func (n *Nuru) findPalette(name, dir string) (string, error) {
	if n.catalog != nil {
		file, err := n.catalog.FindPalette(name)
		if err != nil {
			return "", err
		}
		if file != "" {
			return file, nil
		}
	}

	for _, d := range append([]string{dir}, n.paletteDirs...) {
		file := filepath.Join(d, name+PaletteExt)
		if info, err := os.Stat(file); err == nil && info.Mode().IsRegular() {
			return file, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrPaletteNotFound, name)
}

func (n *Nuru) resolvePalette(name, dir string, accept ...palette.Type) (*palette.Palette, error) {
	if name == "" {
		return nil, nil
	}

	file, err := n.findPalette(name, dir)
	if err != nil {
		return nil, err
	}

	p, err := n.LoadPalette(file)
	if err != nil {
		return nil, err
	}

	for _, t := range accept {
		if p.Type == t {
			return p, nil
		}
	}
	n.logger.Printf("Palette \"%s\" in \"%s\" has unexpected type %s\n", name, file, p.Type)

	return p, nil
}

// ResolvePalettes loads the glyph and color palettes referenced by m. Palettes
// are looked up in the catalog, then in dir and finally in the palette
// directories. A palette is only resolved if the corresponding mode of m
// uses one and it is named.
func (n *Nuru) ResolvePalettes(m *nui.Image, dir string) (glyphs, colors *palette.Palette, err error) {
	if m.GlyphMode == nui.GlyphPalette {
		if glyphs, err = n.resolvePalette(m.GlyphPaletteName(), dir, palette.TypeGlyphUnicode); err != nil {
			return nil, nil, err
		}
	}

	if m.ColorMode == nui.ColorPalette {
		if colors, err = n.resolvePalette(m.ColorPaletteName(), dir, palette.TypeColor8Bit, palette.TypeColorRGB); err != nil {
			return nil, nil, err
		}
	}

	return glyphs, colors, nil
}
