package palette

import (
	"errors"
	"fmt"
	"io"

	"github.com/bodgit/nuru/primitive"
)

var (
	ErrBadSignature = errors.New("palette: invalid signature")
	ErrHeader       = errors.New("palette: cannot read header")
	ErrEntryRead    = errors.New("palette: cannot read entry")
)

// EntryError records which entry could not be read.
type EntryError struct {
	Index int
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("palette: cannot read entry %d: %v", e.Index, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrEntryRead.
func (e *EntryError) Is(target error) bool {
	return target == ErrEntryRead
}

type decoder struct {
	r *primitive.Reader

	header  Header
	entries Entries
}

func (d *decoder) readHeader() error {
	b, err := d.r.FixedString(len(Signature))
	if err != nil {
		return fmt.Errorf("%w: signature: %w", ErrHeader, err)
	}
	if string(b) != Signature {
		return ErrBadSignature
	}
	d.header.Signature = Signature

	fields := []struct {
		name string
		dst  *uint8
	}{
		{"version", &d.header.Version},
		{"type", (*uint8)(&d.header.Type)},
		{"ch key", &d.header.CharKey},
		{"fg key", &d.header.FGKey},
		{"bg key", &d.header.BGKey},
	}
	for _, f := range fields {
		v, err := d.r.Uint8()
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrHeader, f.name, err)
		}
		*f.dst = v
	}

	if b, err = d.r.FixedString(userDataLength); err != nil {
		return fmt.Errorf("%w: user data: %w", ErrHeader, err)
	}
	copy(d.header.UserData[:], b)

	return nil
}

func (d *decoder) readEntries() error {
	switch d.header.Type {
	case TypeColor8Bit:
		e := new(ColorIndices)
		for i := range e {
			v, err := d.r.Uint8()
			if err != nil {
				return &EntryError{Index: i, Err: err}
			}
			e[i] = v
		}
		d.entries = e
	case TypeGlyphUnicode:
		e := new(Glyphs)
		for i := range e {
			v, err := d.r.Uint16()
			if err != nil {
				return &EntryError{Index: i, Err: err}
			}
			e[i] = v
		}
		d.entries = e
	case TypeColorRGB:
		e := new(Colors)
		for i := range e {
			v, err := d.r.RGB()
			if err != nil {
				return &EntryError{Index: i, Err: err}
			}
			e[i] = v
		}
		d.entries = e
	default:
		// Unknown types carry no entries and consume nothing
		d.entries = nil
	}
	return nil
}

func (d *decoder) decode(r io.Reader, headerOnly bool) error {
	d.r = primitive.NewReader(r)

	if err := d.readHeader(); err != nil {
		return err
	}

	if headerOnly {
		return nil
	}

	return d.readEntries()
}

// Decode reads a nuru palette from r. A palette with an unrecognized type is
// returned without entries rather than as an error.
func Decode(r io.Reader) (*Palette, error) {
	var d decoder
	if err := d.decode(r, false); err != nil {
		return nil, err
	}
	return &Palette{
		Header:  d.header,
		Entries: d.entries,
	}, nil
}

// DecodeHeader returns the header of a nuru palette without decoding the
// entries.
func DecodeHeader(r io.Reader) (Header, error) {
	var d decoder
	if err := d.decode(r, true); err != nil {
		return Header{}, err
	}
	return d.header, nil
}
