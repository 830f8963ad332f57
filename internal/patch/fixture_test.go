package patch

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/archtool/gmpatch/internal/container"
)

func u16le(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func buildPNG(width, height int) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(width))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(height))
	ihdr[8] = 8
	ihdr[9] = 6
	writeChunk(&buf, "IHDR", ihdr)
	writeChunk(&buf, "IDAT", []byte{0x01, 0x02, 0x03})
	writeChunk(&buf, "IEND", nil)
	return buf.Bytes()
}

func writeChunk(buf *bytes.Buffer, kind string, data []byte) {
	buf.Write(binary.BigEndian.AppendUint32(nil, uint32(len(data))))
	body := append([]byte(kind), data...)
	buf.Write(body)
	buf.Write(binary.BigEndian.AppendUint32(nil, crc32.ChecksumIEEE(body)))
}

func buildWAVBlob(size int) []byte {
	blob := make([]byte, size)
	copy(blob[0:4], "RIFF")
	if size >= 12 {
		copy(blob[8:12], "WAVE")
	}
	return blob
}

// buildFixture builds a synthetic FORM archive: a TXTR chunk with two PNG
// entries, a STRG chunk (opaque, non-movable; only when withStrg is set),
// and an AUDO chunk with two WAVE entries. The STRG chunk sits between
// TXTR and AUDO so tests can
// exercise the cascade-across-unsupported-section failure.
func buildFixture(withStrg bool) (data []byte, png0, png1 []byte, wav0, wav1 []byte) {
	var buf bytes.Buffer
	buf.Write(make([]byte, container.FormHeaderSize))

	png0 = buildPNG(64, 64)
	png1 = buildPNG(32, 16)

	txtrHdrOff := buf.Len()
	buf.Write(make([]byte, container.ChunkHeaderSize))
	txtrPayloadStart := buf.Len()
	buf.Write(u32le(2))
	offsetTablePos := buf.Len()
	buf.Write(make([]byte, 8))

	info0Pos := buf.Len()
	buf.Write(make([]byte, container.TxtrInfoSize))
	info1Pos := buf.Len()
	buf.Write(make([]byte, container.TxtrInfoSize))

	png0Pos := buf.Len()
	buf.Write(png0)
	png1Pos := buf.Len()
	buf.Write(png1)

	b := buf.Bytes()
	copy(b[offsetTablePos:], u32le(uint32(info0Pos)))
	copy(b[offsetTablePos+4:], u32le(uint32(info1Pos)))
	copy(b[info0Pos+8:], u32le(uint32(png0Pos)))
	copy(b[info1Pos+8:], u32le(uint32(png1Pos)))
	copy(b[txtrHdrOff:], []byte("TXTR"))
	copy(b[txtrHdrOff+4:], u32le(uint32(buf.Len()-txtrPayloadStart)))

	if withStrg {
		strgHdrOff := buf.Len()
		buf.Write(make([]byte, container.ChunkHeaderSize))
		strgPayload := []byte("opaque string table data")
		buf.Write(strgPayload)
		b = buf.Bytes()
		copy(b[strgHdrOff:], []byte("STRG"))
		copy(b[strgHdrOff+4:], u32le(uint32(len(strgPayload))))
	}

	wav0 = buildWAVBlob(20)
	wav1 = buildWAVBlob(16)

	audoHdrOff := buf.Len()
	buf.Write(make([]byte, container.ChunkHeaderSize))
	audoPayloadStart := buf.Len()
	buf.Write(u32le(2))
	audoOffsetTablePos := buf.Len()
	buf.Write(make([]byte, 8))

	blob0Pos := buf.Len()
	buf.Write(u32le(uint32(len(wav0))))
	buf.Write(wav0)
	blob1Pos := buf.Len()
	buf.Write(u32le(uint32(len(wav1))))
	buf.Write(wav1)

	b = buf.Bytes()
	copy(b[audoOffsetTablePos:], u32le(uint32(blob0Pos)))
	copy(b[audoOffsetTablePos+4:], u32le(uint32(blob1Pos)))
	copy(b[audoHdrOff:], []byte("AUDO"))
	copy(b[audoHdrOff+4:], u32le(uint32(buf.Len()-audoPayloadStart)))

	formSize := buf.Len() - container.FormHeaderSize
	b = buf.Bytes()
	copy(b[0:4], []byte("FORM"))
	copy(b[4:8], u32le(uint32(formSize)))

	return buf.Bytes(), png0, png1, wav0, wav1
}

// buildSprtFixture builds a FORM archive with one TXTR entry (64x64) and a
// SPRT chunk holding a single sprite, "player", whose only TPAG rectangle
// references TXTR entry 0 at its full 64x64 extent. It mirrors spec.md §8
// Scenario 5's sprite-coordinate shape.
func buildSprtFixture() (data []byte, png0 []byte) {
	var buf bytes.Buffer
	buf.Write(make([]byte, container.FormHeaderSize))

	png0 = buildPNG(64, 64)

	txtrHdrOff := buf.Len()
	buf.Write(make([]byte, container.ChunkHeaderSize))
	txtrPayloadStart := buf.Len()
	buf.Write(u32le(1))
	offsetTablePos := buf.Len()
	buf.Write(make([]byte, 4))
	infoPos := buf.Len()
	buf.Write(make([]byte, container.TxtrInfoSize))
	pngPos := buf.Len()
	buf.Write(png0)

	b := buf.Bytes()
	copy(b[offsetTablePos:], u32le(uint32(infoPos)))
	copy(b[infoPos+8:], u32le(uint32(pngPos)))
	copy(b[txtrHdrOff:], []byte("TXTR"))
	copy(b[txtrHdrOff+4:], u32le(uint32(buf.Len()-txtrPayloadStart)))

	sprtHdrOff := buf.Len()
	buf.Write(make([]byte, container.ChunkHeaderSize))
	sprtPayloadStart := buf.Len()
	buf.Write(u32le(1))
	sprtOffsetTablePos := buf.Len()
	buf.Write(make([]byte, 4))

	recordPos := buf.Len()
	buf.Write(make([]byte, container.SprtHeaderSize))
	tpagOffsetTablePos := buf.Len()
	buf.Write(make([]byte, 4))

	tpagPos := buf.Len()
	tpag := make([]byte, container.TpagRecordSize)
	copy(tpag[0:2], u16le(0))
	copy(tpag[2:4], u16le(0))
	copy(tpag[4:6], u16le(64))
	copy(tpag[6:8], u16le(64))
	copy(tpag[20:22], u16le(0))
	buf.Write(tpag)

	name := "player"
	buf.Write(u32le(uint32(len(name))))
	namePos := buf.Len()
	buf.Write([]byte(name))

	b = buf.Bytes()
	copy(b[sprtOffsetTablePos:], u32le(uint32(recordPos)))
	copy(b[recordPos:], u32le(uint32(namePos)))
	copy(b[recordPos+76:], u32le(1))
	copy(b[tpagOffsetTablePos:], u32le(uint32(tpagPos)))
	copy(b[sprtHdrOff:], []byte("SPRT"))
	copy(b[sprtHdrOff+4:], u32le(uint32(buf.Len()-sprtPayloadStart)))

	formSize := buf.Len() - container.FormHeaderSize
	b = buf.Bytes()
	copy(b[0:4], []byte("FORM"))
	copy(b[4:8], u32le(uint32(formSize)))

	return buf.Bytes(), png0
}
