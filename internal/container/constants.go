// Package container parses the FORM archive's chunked binary
// layout: the outer FORM header, the per-section chunk headers, and the
// SPRT/TXTR/AUDO section bodies. It has no knowledge of patches; it only
// knows how to read (and, via Index, describe) what is already on disk.
package container

import (
	"encoding/binary"
	"fmt"

	"github.com/archtool/gmpatch/internal/patcherr"
)

// Section identifies a chunk's four-CC tag.
type Section int

const (
	SectionEnd Section = iota
	SectionGEN8
	SectionOPTN
	SectionEXTN
	SectionSOND
	SectionSPRT
	SectionBGND
	SectionPATH
	SectionSCPT
	SectionSHDR
	SectionFONT
	SectionTMLN
	SectionOBJT
	SectionROOM
	SectionDAFL
	SectionTPAG
	SectionCODE
	SectionVARI
	SectionFUNC
	SectionSTRG
	SectionTXTR
	SectionAUDO
	SectionAGRP
	SectionLANG
	SectionGLOB
	SectionEMBI
	SectionTGIN
)

var sectionNames = map[Section]string{
	SectionEnd:  "END",
	SectionGEN8: "GEN8",
	SectionOPTN: "OPTN",
	SectionEXTN: "EXTN",
	SectionSOND: "SOND",
	SectionSPRT: "SPRT",
	SectionBGND: "BGND",
	SectionPATH: "PATH",
	SectionSCPT: "SCPT",
	SectionSHDR: "SHDR",
	SectionFONT: "FONT",
	SectionTMLN: "TMLN",
	SectionOBJT: "OBJT",
	SectionROOM: "ROOM",
	SectionDAFL: "DAFL",
	SectionTPAG: "TPAG",
	SectionCODE: "CODE",
	SectionVARI: "VARI",
	SectionFUNC: "FUNC",
	SectionSTRG: "STRG",
	SectionTXTR: "TXTR",
	SectionAUDO: "AUDO",
	SectionAGRP: "AGRP",
	SectionLANG: "LANG",
	SectionGLOB: "GLOB",
	SectionEMBI: "EMBI",
	SectionTGIN: "TGIN",
}

var sectionByName = func() map[string]Section {
	m := make(map[string]Section, len(sectionNames))
	for s, name := range sectionNames {
		m[name] = s
	}
	return m
}()

// String returns the four-character tag, e.g. "TXTR".
func (s Section) String() string {
	if name, ok := sectionNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseSection resolves a 4-byte ASCII magic to a Section. Unrecognized
// magics return (SectionEnd, false).
func ParseSection(magic []byte) (Section, bool) {
	s, ok := sectionByName[string(magic)]
	return s, ok
}

// Structural sizes, named exactly as spec.md §6 names them.
const (
	FormHeaderSize  = 8  // "FORM" + u32le form_size
	ChunkHeaderSize = 8  // 4-byte magic + u32le payload_size
	TxtrInfoSize    = 12 // unknown1, unknown2, payload_offset (u32le each)
	TpagRecordSize  = 22 // x,y,width,height (u16le) ... txtr_index at byte 20
	SprtHeaderSize  = 80 // fixed sprite record header
)

// MaxInt32 is the signed 32-bit bound the original format clamps offsets
// and sizes to, even though the wire encoding is unsigned 32-bit.
const MaxInt32 = 1<<31 - 1

// readU32LE decodes a little-endian uint32 from the first 4 bytes of b.
func readU32LE(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

// readU16LE decodes a little-endian uint16 from the first 2 bytes of b.
func readU16LE(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }

// errInvalid is a convenience constructor for InvalidFormat errors scoped
// to a section.
func errInvalid(section Section, format string, args ...any) *patcherr.Error {
	return patcherr.WithSection(patcherr.InvalidFormat, section.String(), fmt.Sprintf(format, args...))
}
