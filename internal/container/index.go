package container

import "github.com/archtool/gmpatch/internal/asset"

// TPAG is an immutable texture-page rectangle: a sprite's location on a
// TXTR entry.
type TPAG struct {
	X, Y, Width, Height uint16
	TxtrIndex           uint16
}

// SprtEntry is a sprite record: a name and its ordered TPAG rectangles.
type SprtEntry struct {
	Name string
	TPAG []TPAG
}

// TxtrEntry is a TXTR section entry: the reserved fields plus the embedded
// PNG's on-disk location and parsed dimensions.
type TxtrEntry struct {
	Unknown1 uint32
	Unknown2 uint32
	Width    int
	Height   int
	Offset   int64 // absolute file offset of the embedded PNG payload
	Size     int64 // PNG payload size in bytes
}

// AudoEntry is an AUDO section entry. Offset points past the 4-byte size
// prefix of the blob, per spec.md §3.
type AudoEntry struct {
	Type   asset.Type
	Offset int64
	Size   int64
}

// Entry is a per-chunk entry record, tagged by which of the three mutable
// section kinds produced it. Exactly one of Txtr/Audo/Sprt is non-nil,
// mirroring spec.md DESIGN NOTES §9's preference for a discriminated
// struct over one interface implementation per variant.
type Entry struct {
	Txtr *TxtrEntry
	Audo *AudoEntry
	Sprt *SprtEntry
}

// Chunk is a chunk descriptor: the section tag, its header's file offset,
// its payload size (excluding the 8-byte chunk header), and — for
// SPRT/TXTR/AUDO — its ordered entries. Every other section has no
// entries and is treated as an opaque byte range.
type Chunk struct {
	Section     Section
	Offset      int64 // offset of the 8-byte chunk header within the file
	PayloadSize int64 // excludes the 8-byte header
	Entries     []Entry
}

// Index is the full parsed structure of a FORM archive: an ordered
// sequence of chunk descriptors. It is read-only once built by Parse.
type Index struct {
	Chunks []Chunk
}

// Section returns the first chunk with the given section tag, or nil.
func (idx *Index) Section(s Section) *Chunk {
	for i := range idx.Chunks {
		if idx.Chunks[i].Section == s {
			return &idx.Chunks[i]
		}
	}
	return nil
}
