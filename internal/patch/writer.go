package patch

import (
	"io"
	"os"

	"github.com/archtool/gmpatch/internal/container"
	"github.com/archtool/gmpatch/internal/patcherr"
)

// Write streams a rewritten archive for plan, reading unpatched bytes from
// src and replacement data from each patch's SrcData/SrcFile, and commits
// the result to dstPath via a temp-file-then-rename, per spec.md §4.6. src
// must be the original archive the plan was built from.
func Write(plan *Plan, src io.ReaderAt, dstPath string) error {
	tmpPath := dstPath + ".tmp"

	tmp, err := os.Create(tmpPath)
	if err != nil {
		return patcherr.Wrap("opening temp file", err)
	}

	if werr := writeArchive(plan, src, tmp); werr != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return werr
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return patcherr.Wrap("closing temp file", err)
	}

	// Removed first so renaming works identically whether or not the
	// target filesystem allows replacing an open/existing file.
	if err := os.Remove(dstPath); err != nil && !os.IsNotExist(err) {
		os.Remove(tmpPath)
		return patcherr.Wrap("removing original archive", err)
	}
	if err := os.Rename(tmpPath, dstPath); err != nil {
		os.Remove(tmpPath)
		return patcherr.Wrap("renaming temp file into place", err)
	}
	return nil
}

func writeArchive(plan *Plan, src io.ReaderAt, dst *os.File) error {
	formSize := plan.FormSize()
	if err := writeHdr(dst, "FORM", formSize); err != nil {
		return err
	}

	for i := range plan.Chunks {
		chunk := &plan.Chunks[i]

		if _, err := dst.Seek(chunk.Offset, io.SeekStart); err != nil {
			return patcherr.Wrap("seeking to chunk offset", err)
		}
		if err := writeHdr(dst, chunk.Section.String(), chunk.PayloadSize); err != nil {
			return err
		}

		var err error
		switch chunk.Section {
		case container.SectionTXTR:
			err = writeTXTR(chunk, src, dst)
		case container.SectionAUDO:
			err = writeAUDO(chunk, src, dst)
		default:
			err = copyRange(src, chunk.Original.Offset, dst, chunk.Offset, chunk.PayloadSize+container.ChunkHeaderSize)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// writeHdr writes an 8-byte chunk header: a 4-character section tag
// followed by a little-endian u32 payload size.
func writeHdr(w io.WriteSeeker, tag string, size int64) error {
	var buf [container.ChunkHeaderSize]byte
	if len(tag) != 4 {
		return patcherr.New(patcherr.InvalidFormat, "section tag must be 4 characters: "+tag)
	}
	if size > container.MaxInt32 {
		return patcherr.WithSection(patcherr.Unsupported, tag, "section size out of range")
	}
	copy(buf[0:4], tag)
	putU32LEBuf(buf[4:8], uint32(size))
	_, err := w.Write(buf[:])
	if err != nil {
		return patcherr.Wrap("writing chunk header", err)
	}
	return nil
}

func putU32LEBuf(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// writeTXTR writes a TXTR section body: entry count, the reconstructed
// info-offset table, the per-entry info descriptors, then each entry's PNG
// payload (patched data or a bitwise copy of the original).
//
// The info table's offsets follow the original layout: the first info
// descriptor sits immediately after the count and offset table, i.e. at
// chunk_offset + 12 + 4*count, with each subsequent descriptor 12 bytes
// further along.
func writeTXTR(chunk *PlannedChunk, src io.ReaderAt, dst *os.File) error {
	count := uint32(len(chunk.Entries))
	var buf [12]byte

	putU32LEBuf(buf[0:4], count)
	if _, err := dst.Write(buf[0:4]); err != nil {
		return patcherr.Wrap("writing TXTR entry count", err)
	}

	infoBase := chunk.Offset + container.ChunkHeaderSize + 4 + 4*int64(count)
	for i := range chunk.Entries {
		putU32LEBuf(buf[0:4], uint32(infoBase+int64(i)*container.TxtrInfoSize))
		if _, err := dst.Write(buf[0:4]); err != nil {
			return patcherr.Wrap("writing TXTR info offset", err)
		}
	}

	for i := range chunk.Entries {
		entry := &chunk.Entries[i]
		txtr := entry.Source.Txtr
		putU32LEBuf(buf[0:4], txtr.Unknown1)
		putU32LEBuf(buf[4:8], txtr.Unknown2)
		putU32LEBuf(buf[8:12], uint32(entry.Offset))
		if _, err := dst.Write(buf[:]); err != nil {
			return patcherr.Wrap("writing TXTR info descriptor", err)
		}
	}

	for i := range chunk.Entries {
		entry := &chunk.Entries[i]
		if entry.Patch != nil {
			if err := seekAndWritePatchData(dst, entry.Offset, entry.Patch); err != nil {
				return err
			}
		} else if err := copyRange(src, entry.Source.Txtr.Offset, dst, entry.Offset, entry.Size); err != nil {
			return err
		}
	}

	return nil
}

// writeAUDO writes an AUDO section body: entry count, the reconstructed
// blob-offset table (each pointing at the blob's 4-byte size prefix, 4
// bytes before the blob data), then each entry's size-prefixed blob.
func writeAUDO(chunk *PlannedChunk, src io.ReaderAt, dst *os.File) error {
	count := uint32(len(chunk.Entries))
	var buf [4]byte

	putU32LEBuf(buf[:], count)
	if _, err := dst.Write(buf[:]); err != nil {
		return patcherr.Wrap("writing AUDO entry count", err)
	}

	for i := range chunk.Entries {
		entry := &chunk.Entries[i]
		putU32LEBuf(buf[:], uint32(entry.Offset-4))
		if _, err := dst.Write(buf[:]); err != nil {
			return patcherr.Wrap("writing AUDO blob offset", err)
		}
	}

	for i := range chunk.Entries {
		entry := &chunk.Entries[i]
		if entry.Patch != nil {
			if _, err := dst.Seek(entry.Offset-4, io.SeekStart); err != nil {
				return patcherr.Wrap("seeking to AUDO blob", err)
			}
			putU32LEBuf(buf[:], uint32(entry.Patch.Size))
			if _, err := dst.Write(buf[:]); err != nil {
				return patcherr.Wrap("writing AUDO blob size prefix", err)
			}
			if err := writePatchData(dst, entry.Patch); err != nil {
				return err
			}
		} else if err := copyRange(src, entry.Source.Audo.Offset-4, dst, entry.Offset-4, entry.Size+4); err != nil {
			return err
		}
	}

	return nil
}

func seekAndWritePatchData(dst *os.File, offset int64, p *Patch) error {
	if _, err := dst.Seek(offset, io.SeekStart); err != nil {
		return patcherr.Wrap("seeking to patch data", err)
	}
	return writePatchData(dst, p)
}

// writePatchData writes a patch's replacement bytes, from memory or from a
// file on disk, to the current position of dst.
func writePatchData(dst *os.File, p *Patch) error {
	if p.SrcData != nil {
		if _, err := dst.Write(p.SrcData); err != nil {
			return patcherr.Wrap("writing patch data", err)
		}
		return nil
	}

	f, err := os.Open(p.SrcFile)
	if err != nil {
		return patcherr.Wrap("opening patch source file", err)
	}
	defer f.Close()

	if _, err := io.Copy(dst, f); err != nil {
		return patcherr.Wrap("copying patch source file", err)
	}
	return nil
}

// copyRange copies n bytes from src at srcOff to dst at dstOff, seeking dst
// first; src is read via ReadAt so no seek state is disturbed.
func copyRange(src io.ReaderAt, srcOff int64, dst *os.File, dstOff, n int64) error {
	if _, err := dst.Seek(dstOff, io.SeekStart); err != nil {
		return patcherr.Wrap("seeking destination", err)
	}
	if _, err := io.Copy(dst, io.NewSectionReader(src, srcOff, n)); err != nil {
		return patcherr.Wrap("copying archive bytes", err)
	}
	return nil
}
