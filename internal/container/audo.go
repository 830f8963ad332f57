package container

import (
	"io"

	"github.com/archtool/gmpatch/internal/asset"
	"github.com/archtool/gmpatch/internal/patcherr"
)

// readAUDO resolves an AUDO section's entry table: per-entry blob offsets,
// each pointing at a u32le size prefix followed by WAVE/OGG data.
func readAUDO(r io.ReadSeeker, payloadStart int64) ([]Entry, error) {
	count, err := readU32At(r, payloadStart)
	if err != nil {
		return nil, patcherr.Wrap("reading AUDO entry count", err)
	}

	entries := make([]Entry, count)
	for i := uint32(0); i < count; i++ {
		slotOffset := payloadStart + 4 + int64(i)*4
		blobOffset, err := readU32At(r, slotOffset)
		if err != nil {
			return nil, patcherr.Wrap("reading AUDO blob offset", err)
		}

		size, err := readU32At(r, int64(blobOffset))
		if err != nil {
			return nil, patcherr.Wrap("reading AUDO blob size", err)
		}

		hdrSize := size
		if hdrSize > 12 {
			hdrSize = 12
		}
		header := make([]byte, hdrSize)
		if err := readExact(r, int64(blobOffset)+4, header); err != nil {
			return nil, patcherr.Wrap("reading AUDO blob header", err)
		}

		entries[i] = Entry{Audo: &AudoEntry{
			Type:   asset.ClassifyAudio(header),
			Offset: int64(blobOffset) + 4,
			Size:   int64(size),
		}}
	}
	return entries, nil
}
