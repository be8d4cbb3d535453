package nuru

import (
	"bufio"
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	nui "github.com/bodgit/nuru/image"
	"github.com/bodgit/nuru/palette"
)

const scanWorkers = 10

func (n *Nuru) findFiles(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal file
			if !info.Mode().IsRegular() {
				return nil
			}

			switch filepath.Ext(file) {
			case ImageExt, PaletteExt:
			default:
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (n *Nuru) indexFile(file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	h := sha1.New()
	r := bufio.NewReader(io.TeeReader(f, h))

	var imageHeader nui.Header
	var paletteHeader palette.Header

	switch filepath.Ext(file) {
	case ImageExt:
		imageHeader, err = nui.DecodeHeader(r)
	case PaletteExt:
		paletteHeader, err = palette.DecodeHeader(r)
	default:
		return nil
	}
	if err != nil {
		n.logger.Printf("Skipping \"%s\": %v\n", file, err)
		return nil
	}

	// Hash the remainder of the file
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	sha := fmt.Sprintf("%X", h.Sum(nil))

	switch filepath.Ext(file) {
	case ImageExt:
		if _, err := n.catalog.AddImage(file, sha, imageHeader); err != nil {
			return err
		}
		n.logger.Printf("Indexed image \"%s\" (%dx%d, %s/%s/%s)\n", file, imageHeader.Cols, imageHeader.Rows, imageHeader.GlyphMode, imageHeader.ColorMode, imageHeader.MetadataMode)
	case PaletteExt:
		if _, err := n.catalog.AddPalette(file, sha, paletteHeader); err != nil {
			return err
		}
		n.logger.Printf("Indexed palette \"%s\" as \"%s\" (%s)\n", file, PaletteName(file), paletteHeader.Type)
	}

	return nil
}

func (n *Nuru) fileWorker(ctx context.Context, in <-chan string) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			if err := n.indexFile(file); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks the directory tree at path and adds every image and palette
// found to the catalog. Files that cannot be decoded are logged and skipped.
func (n *Nuru) Scan(path string) error {
	if n.catalog == nil {
		return errNoCatalog
	}

	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := n.findFiles(ctx, dir)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < scanWorkers; i++ {
		errc, err := n.fileWorker(ctx, files)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
