package nuru

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	nui "github.com/bodgit/nuru/image"
	"github.com/bodgit/nuru/palette"
	_ "github.com/mattn/go-sqlite3"
)

const paletteNameLength = 7

// Catalog is an index of image and palette files kept in a SQLite database.
// It is used to resolve the palettes referenced by name from an image.
type Catalog struct {
	db *sql.DB
}

// ImageRecord is an image file known to the catalog.
type ImageRecord struct {
	Path   string
	SHA1   string
	Header nui.Header
}

// PaletteRecord is a palette file known to the catalog.
type PaletteRecord struct {
	Path   string
	SHA1   string
	Name   string
	Header palette.Header
}

// NewCatalog opens, creating if necessary, the catalog database in file.
func NewCatalog(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	// Scan workers write concurrently, SQLite only allows one writer
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS palette (id INTEGER PRIMARY KEY NOT NULL, path TEXT NOT NULL UNIQUE, sha1 TEXT NOT NULL, name TEXT NOT NULL, version INTEGER NOT NULL, type INTEGER NOT NULL, ch_key INTEGER NOT NULL, fg_key INTEGER NOT NULL, bg_key INTEGER NOT NULL, userdata BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE INDEX IF NOT EXISTS palette_name ON palette (name)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS image (id INTEGER PRIMARY KEY NOT NULL, path TEXT NOT NULL UNIQUE, sha1 TEXT NOT NULL, version INTEGER NOT NULL, glyph_mode INTEGER NOT NULL, color_mode INTEGER NOT NULL, mdata_mode INTEGER NOT NULL, cols INTEGER NOT NULL, rows INTEGER NOT NULL, ch_key INTEGER NOT NULL, fg_key INTEGER NOT NULL, bg_key INTEGER NOT NULL, glyph_palette BLOB NOT NULL, color_palette BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// PaletteName returns the name an image uses to reference the palette stored
// in file, the base name without extension cut to seven bytes.
func PaletteName(file string) string {
	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	if len(name) > paletteNameLength {
		name = name[:paletteNameLength]
	}
	return name
}

// AddPalette stores or updates the palette at path, returning its id.
func (c *Catalog) AddPalette(path, sha string, h palette.Header) (int64, error) {
	var id int64
	switch err := c.db.QueryRow("SELECT id FROM palette WHERE path = ?", path).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := c.db.Exec("INSERT INTO palette (path, sha1, name, version, type, ch_key, fg_key, bg_key, userdata) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", path, sha, PaletteName(path), h.Version, uint8(h.Type), h.CharKey, h.FGKey, h.BGKey, h.UserData[:])
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		if _, err := c.db.Exec("UPDATE palette SET sha1 = ?, version = ?, type = ?, ch_key = ?, fg_key = ?, bg_key = ?, userdata = ? WHERE id = ?", sha, h.Version, uint8(h.Type), h.CharKey, h.FGKey, h.BGKey, h.UserData[:], id); err != nil {
			return 0, err
		}
		return id, nil
	default:
		return 0, err
	}
}

// AddImage stores or updates the image at path, returning its id.
func (c *Catalog) AddImage(path, sha string, h nui.Header) (int64, error) {
	var id int64
	switch err := c.db.QueryRow("SELECT id FROM image WHERE path = ?", path).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := c.db.Exec("INSERT INTO image (path, sha1, version, glyph_mode, color_mode, mdata_mode, cols, rows, ch_key, fg_key, bg_key, glyph_palette, color_palette) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", path, sha, h.Version, uint8(h.GlyphMode), uint8(h.ColorMode), uint8(h.MetadataMode), h.Cols, h.Rows, h.CharKey, h.FGKey, h.BGKey, h.GlyphPalette[:], h.ColorPalette[:])
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		if _, err := c.db.Exec("UPDATE image SET sha1 = ?, version = ?, glyph_mode = ?, color_mode = ?, mdata_mode = ?, cols = ?, rows = ?, ch_key = ?, fg_key = ?, bg_key = ?, glyph_palette = ?, color_palette = ? WHERE id = ?", sha, h.Version, uint8(h.GlyphMode), uint8(h.ColorMode), uint8(h.MetadataMode), h.Cols, h.Rows, h.CharKey, h.FGKey, h.BGKey, h.GlyphPalette[:], h.ColorPalette[:], id); err != nil {
			return 0, err
		}
		return id, nil
	default:
		return 0, err
	}
}

// FindPalette returns the path of a palette with the given name, or an empty
// string if there is none.
func (c *Catalog) FindPalette(name string) (string, error) {
	var path string
	switch err := c.db.QueryRow("SELECT path FROM palette WHERE name = ? ORDER BY id LIMIT 1", name).Scan(&path); err {
	case sql.ErrNoRows:
		return "", nil
	case nil:
		return path, nil
	default:
		return "", err
	}
}

// Images returns every image in the catalog ordered by path.
func (c *Catalog) Images() ([]ImageRecord, error) {
	rows, err := c.db.Query("SELECT path, sha1, version, glyph_mode, color_mode, mdata_mode, cols, rows, ch_key, fg_key, bg_key, glyph_palette, color_palette FROM image ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ImageRecord
	for rows.Next() {
		var r ImageRecord
		var glyphPalette, colorPalette []byte
		r.Header.Signature = nui.Signature
		if err := rows.Scan(&r.Path, &r.SHA1, &r.Header.Version, &r.Header.GlyphMode, &r.Header.ColorMode, &r.Header.MetadataMode, &r.Header.Cols, &r.Header.Rows, &r.Header.CharKey, &r.Header.FGKey, &r.Header.BGKey, &glyphPalette, &colorPalette); err != nil {
			return nil, err
		}
		copy(r.Header.GlyphPalette[:], glyphPalette)
		copy(r.Header.ColorPalette[:], colorPalette)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Palettes returns every palette in the catalog ordered by path.
func (c *Catalog) Palettes() ([]PaletteRecord, error) {
	rows, err := c.db.Query("SELECT path, sha1, name, version, type, ch_key, fg_key, bg_key, userdata FROM palette ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PaletteRecord
	for rows.Next() {
		var r PaletteRecord
		var userData []byte
		r.Header.Signature = palette.Signature
		if err := rows.Scan(&r.Path, &r.SHA1, &r.Name, &r.Header.Version, &r.Header.Type, &r.Header.CharKey, &r.Header.FGKey, &r.Header.BGKey, &userData); err != nil {
			return nil, err
		}
		copy(r.Header.UserData[:], userData)
		records = append(records, r)
	}
	return records, rows.Err()
}
