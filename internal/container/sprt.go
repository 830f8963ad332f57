package container

import (
	"io"

	"github.com/archtool/gmpatch/internal/patcherr"
)

// readSPRT resolves a SPRT section's entry table. payloadStart is the
// absolute file offset of the section's 32-bit entry count.
func readSPRT(r io.ReadSeeker, payloadStart int64) ([]Entry, error) {
	count, err := readU32At(r, payloadStart)
	if err != nil {
		return nil, patcherr.Wrap("reading SPRT entry count", err)
	}

	entries := make([]Entry, count)
	for i := uint32(0); i < count; i++ {
		slotOffset := payloadStart + 4 + int64(i)*4
		recordOffset, err := readU32At(r, slotOffset)
		if err != nil {
			return nil, patcherr.Wrap("reading SPRT entry offset", err)
		}

		sprt, err := readSprtRecord(r, int64(recordOffset), SectionSPRT, int(i))
		if err != nil {
			return nil, err
		}
		entries[i] = Entry{Sprt: sprt}
	}
	return entries, nil
}

// readSprtRecord reads one 80-byte sprite record at recordOffset: its name
// string and its ordered TPAG rectangles.
func readSprtRecord(r io.ReadSeeker, recordOffset int64, section Section, index int) (*SprtEntry, error) {
	var hdr [SprtHeaderSize]byte
	if err := readExact(r, recordOffset, hdr[:]); err != nil {
		return nil, patcherr.Wrap("reading sprite record header", err)
	}

	nameStringOffset := readU32LE(hdr[0:4])
	if nameStringOffset < 4 || nameStringOffset > MaxInt32 {
		return nil, patcherr.WithEntry(patcherr.InvalidFormat, section.String(), index,
			"sprite name_string_offset out of range")
	}

	tpagCount := readU32LE(hdr[76:80])
	if tpagCount > MaxInt32 {
		return nil, patcherr.WithEntry(patcherr.InvalidFormat, section.String(), index,
			"sprite tpag_count out of range")
	}

	tpag := make([]TPAG, tpagCount)
	for i := uint32(0); i < tpagCount; i++ {
		slotOffset := recordOffset + SprtHeaderSize + int64(i)*4
		tpagOffset, err := readU32At(r, slotOffset)
		if err != nil {
			return nil, patcherr.Wrap("reading TPAG offset", err)
		}

		var buf [TpagRecordSize]byte
		if err := readExact(r, int64(tpagOffset), buf[:]); err != nil {
			return nil, patcherr.Wrap("reading TPAG record", err)
		}
		tpag[i] = TPAG{
			X:         readU16LE(buf[0:2]),
			Y:         readU16LE(buf[2:4]),
			Width:     readU16LE(buf[4:6]),
			Height:    readU16LE(buf[6:8]),
			TxtrIndex: readU16LE(buf[20:22]),
		}
	}

	name, err := readLengthPrefixedString(r, int64(nameStringOffset)-4)
	if err != nil {
		return nil, err
	}

	return &SprtEntry{Name: name, TPAG: tpag}, nil
}

// readLengthPrefixedString reads a u32le length followed by that many
// bytes, starting at off.
func readLengthPrefixedString(r io.ReadSeeker, off int64) (string, error) {
	length, err := readU32At(r, off)
	if err != nil {
		return "", patcherr.Wrap("reading string length", err)
	}
	if length == 0xFFFFFFFF {
		return "", patcherr.New(patcherr.InvalidFormat, "string length too big")
	}

	buf := make([]byte, length)
	if err := readExact(r, off+4, buf); err != nil {
		return "", patcherr.Wrap("reading string data", err)
	}
	return string(buf), nil
}
