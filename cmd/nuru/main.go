package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/nuru"
	nui "github.com/bodgit/nuru/image"
	"github.com/bodgit/nuru/palette"
	"github.com/bodgit/nuru/render"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
	"golang.org/x/text/unicode/runenames"
)

const defaultDB = "nuru.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// openNuru returns a Nuru with the catalog opened. Unless create is set the
// catalog is only opened if it already exists.
func openNuru(c *cli.Context, create bool) (*nuru.Nuru, func(), error) {
	var catalog *nuru.Catalog
	closer := func() {}

	db := c.String("db")
	if _, err := os.Stat(db); create || err == nil {
		var err error
		if catalog, err = nuru.NewCatalog(db); err != nil {
			return nil, nil, err
		}
		closer = func() { catalog.Close() }
	}

	return nuru.New(catalog, newLogger(c), c.StringSlice("palette-dir")...), closer, nil
}

func isPalette(file string) (bool, error) {
	if ext := filepath.Ext(file); ext == nuru.PaletteExt || ext == nuru.ImageExt {
		return ext == nuru.PaletteExt, nil
	}

	// Sniff the signature for anything else
	f, err := os.Open(file)
	if err != nil {
		return false, err
	}
	defer f.Close()

	b := make([]byte, len(palette.Signature))
	if _, err := io.ReadFull(f, b); err != nil {
		return false, err
	}
	return string(b) == palette.Signature, nil
}

func printImageHeader(w io.Writer, h nui.Header) {
	size, _ := h.CellSize()
	fmt.Fprintf(w, "Version:        %d\n", h.Version)
	fmt.Fprintf(w, "Glyph mode:     %s\n", h.GlyphMode)
	fmt.Fprintf(w, "Color mode:     %s\n", h.ColorMode)
	fmt.Fprintf(w, "Metadata mode:  %s\n", h.MetadataMode)
	fmt.Fprintf(w, "Size:           %d x %d (%d cells, %d bytes each)\n", h.Cols, h.Rows, h.NumCells(), size)
	fmt.Fprintf(w, "Keys:           ch=%d fg=%d bg=%d\n", h.CharKey, h.FGKey, h.BGKey)
	fmt.Fprintf(w, "Glyph palette:  %q\n", h.GlyphPaletteName())
	fmt.Fprintf(w, "Color palette:  %q\n", h.ColorPaletteName())
}

func printPaletteHeader(w io.Writer, h palette.Header) {
	fmt.Fprintf(w, "Version:        %d\n", h.Version)
	fmt.Fprintf(w, "Type:           %s\n", h.Type)
	fmt.Fprintf(w, "Keys:           ch=%d fg=%d bg=%d\n", h.CharKey, h.FGKey, h.BGKey)
	fmt.Fprintf(w, "User data:      % X\n", h.UserData[:])
}

func info(c *cli.Context) error {
	n, closer, err := openNuru(c, false)
	if err != nil {
		return err
	}
	defer closer()

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	for i, file := range c.Args().Slice() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s:\n", file)

		pal, err := isPalette(file)
		if err != nil {
			return err
		}

		if pal {
			p, err := n.LoadPalette(file)
			if err != nil {
				return err
			}
			printPaletteHeader(w, p.Header)
			continue
		}

		m, err := n.LoadImage(file)
		if err != nil {
			return err
		}
		printImageHeader(w, m.Header)
		m.Release()
	}

	return nil
}

func dumpPalette(c *cli.Context) error {
	n, closer, err := openNuru(c, false)
	if err != nil {
		return err
	}
	defer closer()

	p, err := n.LoadPalette(c.Args().First())
	if err != nil {
		return err
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	printPaletteHeader(w, p.Header)

	switch e := p.Entries.(type) {
	case *palette.ColorIndices:
		for i, v := range e {
			fmt.Fprintf(w, "%3d: %3d\n", i, v)
		}
	case *palette.Glyphs:
		h := nui.Header{GlyphMode: nui.GlyphUnicode}
		for i, v := range e {
			fmt.Fprintf(w, "%3d: U+%04X %c %s\n", i, v, render.Glyph(h, nui.Cell{Glyph: v}, nil), runenames.Name(rune(v)))
		}
	case *palette.Colors:
		for i, v := range e {
			fmt.Fprintf(w, "%3d: #%02X%02X%02X\n", i, v.R, v.G, v.B)
		}
	default:
		fmt.Fprintln(w, "No entries")
	}

	return nil
}

func useColor(c *cli.Context) (bool, error) {
	switch mode := c.String("color"); mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		return term.IsTerminal(int(os.Stdout.Fd())), nil
	default:
		return false, fmt.Errorf("invalid color mode %q", mode)
	}
}

func cat(c *cli.Context) error {
	color, err := useColor(c)
	if err != nil {
		return err
	}

	width := c.Int("width")
	if width == 0 && term.IsTerminal(int(os.Stdout.Fd())) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = w
		}
	}

	n, closer, err := openNuru(c, false)
	if err != nil {
		return err
	}
	defer closer()

	for _, file := range c.Args().Slice() {
		m, err := n.LoadImage(file)
		if err != nil {
			return err
		}

		glyphs, colors, err := n.ResolvePalettes(m, filepath.Dir(file))
		if err != nil {
			return err
		}

		if err := render.Terminal(os.Stdout, m, render.Options{
			Color:        color,
			Width:        width,
			GlyphPalette: glyphs,
			ColorPalette: colors,
		}); err != nil {
			return err
		}
		m.Release()
	}

	return nil
}

func export(c *cli.Context) error {
	input, output := c.Args().Get(0), c.Args().Get(1)

	format := c.String("format")
	if format == "" {
		format = strings.ToLower(strings.TrimPrefix(filepath.Ext(output), "."))
	}

	n, closer, err := openNuru(c, false)
	if err != nil {
		return err
	}
	defer closer()

	m, err := n.LoadImage(input)
	if err != nil {
		return err
	}
	defer m.Release()

	glyphs, colors, err := n.ResolvePalettes(m, filepath.Dir(input))
	if err != nil {
		return err
	}

	raster := render.Rasterize(m, render.RasterOptions{
		Scale:        c.Int("scale"),
		GlyphPalette: glyphs,
		ColorPalette: colors,
	})

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()

	if n := c.Int("colors"); n > 0 {
		err = render.Encode(f, render.Quantize(raster, n), format)
	} else {
		err = render.Encode(f, raster, format)
	}
	if err != nil {
		return err
	}

	return f.Close()
}

func scan(c *cli.Context) error {
	n, closer, err := openNuru(c, true)
	if err != nil {
		return err
	}
	defer closer()

	return n.Scan(c.Args().First())
}

func list(c *cli.Context) error {
	catalog, err := nuru.NewCatalog(c.String("db"))
	if err != nil {
		return err
	}
	defer catalog.Close()

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	palettes, err := catalog.Palettes()
	if err != nil {
		return err
	}
	for _, p := range palettes {
		fmt.Fprintf(w, "palette  %-7s  %-12s  %s\n", p.Name, p.Header.Type, p.Path)
	}

	images, err := catalog.Images()
	if err != nil {
		return err
	}
	for _, i := range images {
		fmt.Fprintf(w, "image    %5dx%-5d %s/%s/%s  %s\n", i.Header.Cols, i.Header.Rows, i.Header.GlyphMode, i.Header.ColorMode, i.Header.MetadataMode, i.Path)
	}

	return nil
}

// requireArgs wraps action, showing the command help if fewer than n
// arguments were given and turning any error into an exit code.
func requireArgs(n int, action cli.ActionFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() < n {
			cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
		}
		if err := action(c); err != nil {
			if errors.Is(err, nuru.ErrPaletteNotFound) {
				return cli.NewExitError(fmt.Errorf("%w (try --palette-dir or scan)", err), 1)
			}
			return cli.NewExitError(err, 1)
		}
		return nil
	}
}

func main() {
	app := cli.NewApp()

	app.Name = "nuru"
	app.Usage = "nuru character-grid image utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"NURU_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to catalog database",
		},
		&cli.StringSliceFlag{
			Name:    "palette-dir",
			EnvVars: []string{"NURU_PALETTE_DIR"},
			Usage:   "additional directory to search for palettes",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "info",
			Usage:     "Show the header of images and palettes",
			ArgsUsage: "FILE...",
			Action:    requireArgs(1, info),
		},
		{
			Name:      "palette",
			Usage:     "List the entries of a palette",
			ArgsUsage: "FILE",
			Action:    requireArgs(1, dumpPalette),
		},
		{
			Name:      "cat",
			Usage:     "Draw images on the terminal",
			ArgsUsage: "FILE...",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "color",
					Value: "auto",
					Usage: "use colors: auto, always or never",
				},
				&cli.IntFlag{
					Name:  "width",
					Usage: "clip images to this many columns, defaults to the terminal width",
				},
			},
			Action: requireArgs(1, cat),
		},
		{
			Name:      "export",
			Usage:     "Rasterize an image to PNG or BMP",
			ArgsUsage: "FILE OUTPUT",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "format",
					Usage: "output format, png or bmp, defaults to the output extension",
				},
				&cli.IntFlag{
					Name:  "scale",
					Value: 1,
					Usage: "enlarge the output by this factor",
				},
				&cli.IntFlag{
					Name:  "colors",
					Usage: "reduce the output to at most this many colors",
				},
			},
			Action: requireArgs(2, export),
		},
		{
			Name:      "scan",
			Usage:     "Scan a directory and add images and palettes to the catalog",
			ArgsUsage: "DIRECTORY",
			Action:    requireArgs(1, scan),
		},
		{
			Name:   "ls",
			Usage:  "List the contents of the catalog",
			Action: requireArgs(0, list),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
