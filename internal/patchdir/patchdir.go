// Package patchdir builds a patch list from a directory of replacement
// files, mirroring the dumper's own layout: "<dir>/txtr/NNNN.<ext>" and
// "<dir>/audo/NNNN.<ext>", per spec.md §4.8/§6. It is an out-of-core-scope
// companion to the planner: it never touches the archive, only the
// replacement directory and the already-parsed index, which it uses to
// skip files whose index has no matching entry.
package patchdir

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/archtool/gmpatch/internal/asset"
	"github.com/archtool/gmpatch/internal/container"
	"github.com/archtool/gmpatch/internal/patch"
	"github.com/archtool/gmpatch/internal/patcherr"
)

var entryFileName = regexp.MustCompile(`^(\d+)\.[^.]+$`)

// Build walks dir/txtr and dir/audo, recognizes files named NNNN.<ext>
// (other names are ignored), and returns the patches they describe
// against idx. The returned patches are ordered by section then entry
// index so that Plan.Apply's ordering rules (no double patch, single
// pass) hold trivially.
func Build(dir string, idx *container.Index) ([]patch.Patch, error) {
	var patches []patch.Patch

	if txtrPatches, err := buildTxtr(filepath.Join(dir, "txtr"), idx); err != nil {
		return nil, err
	} else {
		patches = append(patches, txtrPatches...)
	}

	if audoPatches, err := buildAudo(filepath.Join(dir, "audo"), idx); err != nil {
		return nil, err
	} else {
		patches = append(patches, audoPatches...)
	}

	return patches, nil
}

func buildTxtr(dir string, idx *container.Index) ([]patch.Patch, error) {
	files, err := indexedFiles(dir)
	if err != nil {
		return nil, err
	}

	chunk := idx.Section(container.SectionTXTR)

	var patches []patch.Patch
	for _, f := range files {
		if chunk == nil || f.index >= len(chunk.Entries) {
			continue
		}
		p, err := BuildTxtrPatch(f.index, f.path)
		if err != nil {
			return nil, err
		}
		patches = append(patches, p)
	}
	return patches, nil
}

func buildAudo(dir string, idx *container.Index) ([]patch.Patch, error) {
	files, err := indexedFiles(dir)
	if err != nil {
		return nil, err
	}

	chunk := idx.Section(container.SectionAUDO)

	var patches []patch.Patch
	for _, f := range files {
		if chunk == nil || f.index >= len(chunk.Entries) {
			continue
		}
		p, err := BuildAudoPatch(f.index, f.path)
		if err != nil {
			return nil, err
		}
		patches = append(patches, p)
	}
	return patches, nil
}

// BuildTxtrPatch builds a single TXTR replacement patch from a standalone
// PNG file, sniffing its dimensions and size the same way the directory
// walker does. It is also used directly by the apply-patch CLI subcommand.
func BuildTxtrPatch(entryIndex int, path string) (patch.Patch, error) {
	r, err := os.Open(path)
	if err != nil {
		return patch.Patch{}, patcherr.Wrap("opening replacement texture", err)
	}
	info, err := asset.SniffPNG(r)
	r.Close()
	if err != nil {
		return patch.Patch{}, patcherr.WithEntry(patcherr.InvalidFormat, "TXTR", entryIndex,
			"error parsing replacement PNG: "+err.Error())
	}

	return patch.Patch{
		Section:    container.SectionTXTR,
		EntryIndex: entryIndex,
		Type:       asset.PNG,
		Size:       info.FileSize,
		SrcFile:    path,
		Width:      info.Width,
		Height:     info.Height,
	}, nil
}

// BuildAudoPatch builds a single AUDO replacement patch from a standalone
// audio file, classifying it by magic bytes the same way the directory
// walker does. It is also used directly by the apply-patch CLI subcommand.
func BuildAudoPatch(entryIndex int, path string) (patch.Patch, error) {
	header := make([]byte, 12)
	n, err := readHeader(path, header)
	if err != nil {
		return patch.Patch{}, patcherr.Wrap("reading replacement audio header", err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return patch.Patch{}, patcherr.Wrap("statting replacement audio file", err)
	}

	return patch.Patch{
		Section:    container.SectionAUDO,
		EntryIndex: entryIndex,
		Type:       asset.ClassifyAudio(header[:n]),
		Size:       stat.Size(),
		SrcFile:    path,
	}, nil
}

func readHeader(path string, buf []byte) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return 0, err
	}
	return n, nil
}

type indexedFile struct {
	index int
	path  string
}

// indexedFiles lists dir's entries whose name matches NNNN.<ext>, sorted
// by index. A missing directory yields no files, not an error: a
// replacement set may only touch one of txtr/audo.
func indexedFiles(dir string) ([]indexedFile, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, patcherr.Wrap("reading replacement directory", err)
	}

	var files []indexedFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := entryFileName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		files = append(files, indexedFile{index: n, path: filepath.Join(dir, e.Name())})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].index < files[j].index })
	return files, nil
}
