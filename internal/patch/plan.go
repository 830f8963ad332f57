package patch

import (
	"fmt"

	"github.com/archtool/gmpatch/internal/asset"
	"github.com/archtool/gmpatch/internal/container"
	"github.com/archtool/gmpatch/internal/patcherr"
)

// PlannedEntry mirrors a container.Entry but carries the entry's new
// offset/size and, if a patch produced the change, a pointer to it. Source
// keeps a read-only reference to the original entry so the writer can fall
// back to a bitwise copy of unpatched bytes.
type PlannedEntry struct {
	Offset int64
	Size   int64
	Patch  *Patch
	Source container.Entry
}

// PlannedChunk mirrors a container.Chunk with updated section-level offset
// and payload size, plus its planned entries. Original keeps the source
// chunk around for opaque bulk-copy of sections the writer never
// reconstructs field-by-field.
type PlannedChunk struct {
	Section     container.Section
	Offset      int64
	PayloadSize int64
	Entries     []PlannedEntry
	Original    container.Chunk
}

// Plan is the planned index: a mirror of the parsed index that the
// planner mutates as patches are applied, then hands to the writer.
type Plan struct {
	Chunks []PlannedChunk
}

// NewPlan builds the identity plan for idx: every chunk and entry keeps
// its parsed offset and size, with no patch attached.
func NewPlan(idx *container.Index) *Plan {
	p := &Plan{Chunks: make([]PlannedChunk, len(idx.Chunks))}
	for i, c := range idx.Chunks {
		pc := PlannedChunk{
			Section:     c.Section,
			Offset:      c.Offset,
			PayloadSize: c.PayloadSize,
			Entries:     make([]PlannedEntry, len(c.Entries)),
			Original:    c,
		}
		for j, e := range c.Entries {
			pc.Entries[j] = PlannedEntry{
				Offset: entryOffset(e),
				Size:   entrySize(e),
				Source: e,
			}
		}
		p.Chunks[i] = pc
	}
	return p
}

func entryOffset(e container.Entry) int64 {
	switch {
	case e.Txtr != nil:
		return e.Txtr.Offset
	case e.Audo != nil:
		return e.Audo.Offset
	default:
		return 0
	}
}

func entrySize(e container.Entry) int64 {
	switch {
	case e.Txtr != nil:
		return e.Txtr.Size
	case e.Audo != nil:
		return e.Audo.Size
	default:
		return 0
	}
}

// sectionIndex finds the index into p.Chunks of the chunk for a section
// tag, or -1.
func (p *Plan) sectionIndex(s container.Section) int {
	for i := range p.Chunks {
		if p.Chunks[i].Section == s {
			return i
		}
	}
	return -1
}

// FormSize computes the FORM header's declared size: the sum, over every
// planned chunk, of its payload size plus the 8-byte chunk header.
func (p *Plan) FormSize() int64 {
	var total int64
	for _, c := range p.Chunks {
		total += c.PayloadSize + container.ChunkHeaderSize
	}
	return total
}

// Apply validates and applies a single patch against the plan, per
// spec.md §4.5. Patches must be applied in order; applying the same
// (section, entry) twice fails.
func (p *Plan) Apply(pch Patch) error {
	section := pch.Section.String()

	switch pch.Section {
	case container.SectionTXTR, container.SectionAUDO:
		return p.applyEntryPatch(pch)

	case container.SectionSPRT:
		return p.applySprtPatch(pch)

	default:
		return patcherr.WithSection(patcherr.Unsupported, section,
			fmt.Sprintf("can't patch %s (not implemented)", section))
	}
}

// applyEntryPatch handles TXTR/AUDO patches: validate, compute the size
// delta, update the entry, and cascade the delta through later entries in
// the same chunk and through later movable chunks.
func (p *Plan) applyEntryPatch(pch Patch) error {
	section := pch.Section.String()
	idx := p.sectionIndex(pch.Section)
	if idx < 0 {
		return patcherr.WithSection(patcherr.PatchConflict, section,
			fmt.Sprintf("archive contains no %s section", section))
	}
	chunk := &p.Chunks[idx]

	if pch.EntryIndex < 0 || pch.EntryIndex >= len(chunk.Entries) {
		return patcherr.WithEntry(patcherr.PatchConflict, section, pch.EntryIndex,
			fmt.Sprintf("patch index out of range: %d >= %d", pch.EntryIndex, len(chunk.Entries)))
	}
	entry := &chunk.Entries[pch.EntryIndex]

	if entry.Patch != nil {
		return patcherr.WithEntry(patcherr.PatchConflict, section, pch.EntryIndex,
			"entry is already patched")
	}

	entryType, err := entryAssetType(entry.Source)
	if err != nil {
		return err
	}
	if entryType != pch.Type {
		return patcherr.WithEntry(patcherr.PatchConflict, section, pch.EntryIndex,
			fmt.Sprintf("type mismatch: entry type = %s, patch type = %s", entryType, pch.Type))
	}

	if pch.Section == container.SectionTXTR {
		txtr := entry.Source.Txtr
		if txtr.Width != pch.Width || txtr.Height != pch.Height {
			return patcherr.WithEntry(patcherr.PatchConflict, section, pch.EntryIndex,
				fmt.Sprintf("sprite dimensions mismatch: entry dimensions = %dx%d, patch dimensions = %dx%d",
					txtr.Width, txtr.Height, pch.Width, pch.Height))
		}
	}

	delta := pch.Size - entry.Size
	oldOffset := entry.Offset

	entry.Size = pch.Size
	pchCopy := pch
	entry.Patch = &pchCopy
	chunk.PayloadSize += delta

	for i := range chunk.Entries {
		if chunk.Entries[i].Offset > oldOffset {
			chunk.Entries[i].Offset += delta
		}
	}

	return p.cascade(idx+1, delta)
}

// cascade shifts every chunk at or after index i, and each of its entries,
// by delta. Only TXTR and AUDO chunks can be moved: if any chunk at or
// after i is another section, it fails with Unsupported. A zero delta
// moves nothing and never fails.
func (p *Plan) cascade(i int, delta int64) error {
	if delta == 0 {
		return nil
	}
	for ; i < len(p.Chunks); i++ {
		chunk := &p.Chunks[i]
		switch chunk.Section {
		case container.SectionTXTR, container.SectionAUDO:
			// movable
		default:
			return patcherr.WithSection(patcherr.Unsupported, chunk.Section.String(),
				fmt.Sprintf("can't move %s section (not implemented)", chunk.Section))
		}

		chunk.Offset += delta
		for j := range chunk.Entries {
			chunk.Entries[j].Offset += delta
		}
	}
	return nil
}

// applySprtPatch validates a SPRT patch's coordinate assertions against
// the archive's TPAG table. It never writes; a mismatch aborts the whole
// patch set.
func (p *Plan) applySprtPatch(pch Patch) error {
	section := pch.Section.String()
	idx := p.sectionIndex(container.SectionSPRT)
	if idx < 0 {
		return patcherr.WithSection(patcherr.PatchConflict, section,
			fmt.Sprintf("archive contains no %s section", section))
	}
	chunk := &p.Chunks[idx]

	var found *container.SprtEntry
	for i := range chunk.Entries {
		if s := chunk.Entries[i].Source.Sprt; s != nil && s.Name == pch.SpriteName {
			found = s
			break
		}
	}
	if found == nil {
		return patcherr.WithSection(patcherr.PatchConflict, section,
			fmt.Sprintf("can't find sprite %s in game archive", pch.SpriteName))
	}

	for _, check := range pch.SprtChecks {
		if check.TpagIndex < 0 || check.TpagIndex >= len(found.TPAG) {
			return patcherr.WithSection(patcherr.PatchConflict, section,
				fmt.Sprintf("Sprite %s index out of range: %d >= %d",
					pch.SpriteName, check.TpagIndex, len(found.TPAG)))
		}
		got := found.TPAG[check.TpagIndex]
		if got.X != check.X || got.Y != check.Y || got.Width != check.Width ||
			got.Height != check.Height || got.TxtrIndex != check.TxtrIndex {
			return patcherr.WithSection(patcherr.PatchConflict, section,
				fmt.Sprintf("Sprite %s %d has incompatible coordinates. patch: x=%d y=%d width=%d height=%d txtr_index=%d, "+
					"game archive: x=%d y=%d width=%d height=%d txtr_index=%d",
					pch.SpriteName, check.TpagIndex, check.X, check.Y, check.Width, check.Height, check.TxtrIndex,
					got.X, got.Y, got.Width, got.Height, got.TxtrIndex))
		}
	}

	return nil
}

func entryAssetType(e container.Entry) (asset.Type, error) {
	switch {
	case e.Txtr != nil:
		return asset.PNG, nil
	case e.Audo != nil:
		return e.Audo.Type, nil
	default:
		return asset.Unknown, patcherr.New(patcherr.PatchConflict, "entry has no recognized type")
	}
}
