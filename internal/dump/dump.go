// Package dump writes recognized TXTR/AUDO entries from a parsed archive
// index out to a directory tree for offline inspection, per spec.md §4.7.
package dump

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/archtool/gmpatch/internal/asset"
	"github.com/archtool/gmpatch/internal/container"
	"github.com/archtool/gmpatch/internal/patcherr"
)

// Dump walks idx and writes every TXTR entry to "<outDir>/txtr/NNNN.png"
// and every AUDO entry to "<outDir>/audo/NNNN.<ext>", where ext follows
// from the entry's classified codec. src provides random access to the
// original archive bytes.
func Dump(idx *container.Index, src io.ReaderAt, outDir string) error {
	if chunk := idx.Section(container.SectionTXTR); chunk != nil {
		if err := dumpChunk(chunk, src, outDir, "txtr", txtrExt); err != nil {
			return err
		}
	}
	if chunk := idx.Section(container.SectionAUDO); chunk != nil {
		if err := dumpChunk(chunk, src, outDir, "audo", audoExt); err != nil {
			return err
		}
	}
	return nil
}

func txtrExt(e container.Entry) string { return asset.PNG.Extension() }

func audoExt(e container.Entry) string { return e.Audo.Type.Extension() }

func dumpChunk(chunk *container.Chunk, src io.ReaderAt, outDir, subdir string, ext func(container.Entry) string) error {
	dir := filepath.Join(outDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return patcherr.Wrap("creating dump directory", err)
	}

	for i, entry := range chunk.Entries {
		offset, size, err := entryRange(entry)
		if err != nil {
			return err
		}

		name := fmt.Sprintf("%04d%s", i, ext(entry))
		path := filepath.Join(dir, name)
		if err := dumpEntry(src, offset, size, path); err != nil {
			return patcherr.WithEntry(patcherr.Io, chunk.Section.String(), i,
				fmt.Sprintf("dumping entry to %s: %s", path, err.Error()))
		}
	}
	return nil
}

func entryRange(e container.Entry) (offset, size int64, err error) {
	switch {
	case e.Txtr != nil:
		return e.Txtr.Offset, e.Txtr.Size, nil
	case e.Audo != nil:
		return e.Audo.Offset, e.Audo.Size, nil
	default:
		return 0, 0, patcherr.New(patcherr.InvalidFormat, "entry has no dumpable payload")
	}
}

func dumpEntry(src io.ReaderAt, offset, size int64, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, io.NewSectionReader(src, offset, size))
	return err
}
