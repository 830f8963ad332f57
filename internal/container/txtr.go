package container

import (
	"io"

	"github.com/archtool/gmpatch/internal/asset"
	"github.com/archtool/gmpatch/internal/patcherr"
)

// readTXTR resolves a TXTR section's entry table: per-entry info
// descriptors followed by the PNG sniff of each embedded image.
func readTXTR(r io.ReadSeeker, payloadStart int64, section Section) ([]Entry, error) {
	count, err := readU32At(r, payloadStart)
	if err != nil {
		return nil, patcherr.Wrap("reading TXTR entry count", err)
	}

	entries := make([]Entry, count)
	for i := uint32(0); i < count; i++ {
		slotOffset := payloadStart + 4 + int64(i)*4
		infoOffset, err := readU32At(r, slotOffset)
		if err != nil {
			return nil, patcherr.Wrap("reading TXTR info offset", err)
		}

		var info [TxtrInfoSize]byte
		if err := readExact(r, int64(infoOffset), info[:]); err != nil {
			return nil, patcherr.Wrap("reading TXTR info descriptor", err)
		}

		unknown1 := readU32LE(info[0:4])
		if unknown1 > 1 {
			return nil, patcherr.WithEntry(patcherr.InvalidFormat, section.String(), int(i),
				"unexpected value of non-reverse-engineered field: unknown1")
		}
		unknown2 := readU32LE(info[4:8])
		if unknown2 > 0 {
			return nil, patcherr.WithEntry(patcherr.InvalidFormat, section.String(), int(i),
				"unexpected value of non-reverse-engineered field: unknown2")
		}

		payloadOffset := readU32LE(info[8:12])
		if payloadOffset > MaxInt32 {
			return nil, patcherr.WithEntry(patcherr.InvalidFormat, section.String(), int(i),
				"payload offset out of range")
		}

		if _, err := r.Seek(int64(payloadOffset), io.SeekStart); err != nil {
			return nil, patcherr.Wrap("seeking to TXTR payload", err)
		}
		png, err := asset.SniffPNG(r)
		if err != nil {
			return nil, patcherr.WithEntry(patcherr.InvalidFormat, section.String(), int(i),
				"error parsing embedded PNG: "+err.Error())
		}

		entries[i] = Entry{Txtr: &TxtrEntry{
			Unknown1: unknown1,
			Unknown2: unknown2,
			Width:    png.Width,
			Height:   png.Height,
			Offset:   int64(payloadOffset),
			Size:     png.FileSize,
		}}
	}
	return entries, nil
}
