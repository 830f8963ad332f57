package container

import (
	"io"

	"github.com/archtool/gmpatch/internal/patcherr"
)

// Parse reads the FORM header at the start of r and iterates its chunks,
// dispatching SPRT/TXTR/AUDO payloads to their specialized readers. r must
// support random access (seeking backwards for TPAG/string/PNG/audio
// payloads scattered throughout the section).
func Parse(r io.ReadSeeker) (*Index, error) {
	var hdr [FormHeaderSize]byte
	if err := readExact(r, 0, hdr[:]); err != nil {
		return nil, patcherr.Wrap("reading FORM header", err)
	}
	if string(hdr[0:4]) != "FORM" {
		return nil, patcherr.New(patcherr.InvalidFormat, "unsupported file magic, expected FORM")
	}
	formSize := int64(readU32LE(hdr[4:8]))
	end := formSize + FormHeaderSize

	idx := &Index{}
	offset := int64(FormHeaderSize)

	for offset < end {
		var chdr [ChunkHeaderSize]byte
		if err := readExact(r, offset, chdr[:]); err != nil {
			return nil, patcherr.Wrap("reading chunk header", err)
		}

		section, ok := ParseSection(chdr[0:4])
		if !ok {
			return nil, patcherr.New(patcherr.Unsupported,
				"unsupported section magic: "+string(chdr[0:4]))
		}

		size := int64(readU32LE(chdr[4:8]))
		if size > MaxInt32-ChunkHeaderSize {
			return nil, errInvalid(section, "section size out of range: %d", size)
		}
		if offset+ChunkHeaderSize+size > end {
			return nil, errInvalid(section, "section overflows file: offset=%d size=%d end=%d", offset, size, end)
		}

		chunk := Chunk{
			Section:     section,
			Offset:      offset,
			PayloadSize: size,
		}

		payloadStart := offset + ChunkHeaderSize
		var err error
		switch section {
		case SectionSPRT:
			chunk.Entries, err = readSPRT(r, payloadStart)
		case SectionTXTR:
			chunk.Entries, err = readTXTR(r, payloadStart, section)
		case SectionAUDO:
			chunk.Entries, err = readAUDO(r, payloadStart)
		}
		if err != nil {
			return nil, err
		}

		idx.Chunks = append(idx.Chunks, chunk)
		offset += ChunkHeaderSize + size
	}

	return idx, nil
}

// readExact seeks to off and reads exactly len(buf) bytes into buf.
func readExact(r io.ReadSeeker, off int64, buf []byte) error {
	if _, err := r.Seek(off, io.SeekStart); err != nil {
		return err
	}
	_, err := io.ReadFull(r, buf)
	return err
}

// readU32At reads a little-endian uint32 at the given absolute offset.
func readU32At(r io.ReadSeeker, off int64) (uint32, error) {
	var b [4]byte
	if err := readExact(r, off, b[:]); err != nil {
		return 0, err
	}
	return readU32LE(b[:]), nil
}
