// Package patch implements the patch planner and archive writer described
// in spec.md §4.5–§4.6: validating a sequence of patches against a parsed
// container.Index, cascading the offset/size deltas they produce, and
// streaming a rewritten archive that preserves every unpatched byte.
package patch

import (
	"github.com/archtool/gmpatch/internal/asset"
	"github.com/archtool/gmpatch/internal/container"
)

// SprtCheck is one sprite-coordinate assertion carried by a SPRT patch.
// SPRT patches never rewrite bytes — they only validate that the archive's
// TPAG coordinates still match what the caller's replacement sprite atlas
// expects.
type SprtCheck struct {
	TpagIndex           int
	X, Y, Width, Height uint16
	TxtrIndex           uint16
}

// Patch is a request to replace a TXTR/AUDO entry's bytes, or to validate
// a SPRT entry's coordinates. It is a tagged union discriminated by
// Section: only the fields relevant to that section are meaningful.
type Patch struct {
	Section container.Section

	// TXTR/AUDO selector.
	EntryIndex int

	// SPRT selector.
	SpriteName string

	// Declared type of the replacement data (TXTR/AUDO only).
	Type asset.Type

	// Declared size of the replacement data in bytes (TXTR/AUDO only).
	Size int64

	// Replacement data source: exactly one of SrcData/SrcFile is set.
	SrcData []byte
	SrcFile string

	// TXTR validation metadata: replacement image dimensions.
	Width, Height int

	// SPRT validation metadata: expected coordinates per referenced TPAG.
	SprtChecks []SprtCheck
}
