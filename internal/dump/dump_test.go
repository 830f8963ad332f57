package dump

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/archtool/gmpatch/internal/container"
)

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
	writeChunk(&buf, "IHDR", ihdr)
	writeChunk(&buf, "IDAT", []byte{1, 2, 3})
	writeChunk(&buf, "IEND", nil)
	return buf.Bytes()
}

func writeChunk(buf *bytes.Buffer, kind string, data []byte) {
	buf.Write(binary.BigEndian.AppendUint32(nil, uint32(len(data))))
	body := append([]byte(kind), data...)
	buf.Write(body)
	buf.Write(binary.BigEndian.AppendUint32(nil, crc32.ChecksumIEEE(body)))
}

// buildFixture builds a FORM archive with one TXTR entry and two AUDO
// entries (a WAVE and an OGG), matching spec.md §8 Scenario 6's shape.
func buildFixture() []byte {
	var buf bytes.Buffer
	buf.Write(make([]byte, container.FormHeaderSize))

	png0 := buildPNG(16, 16)

	txtrHdrOff := buf.Len()
	buf.Write(make([]byte, container.ChunkHeaderSize))
	txtrPayloadStart := buf.Len()
	buf.Write(u32le(1))
	offsetPos := buf.Len()
	buf.Write(make([]byte, 4))
	infoPos := buf.Len()
	buf.Write(make([]byte, container.TxtrInfoSize))
	pngPos := buf.Len()
	buf.Write(png0)

	b := buf.Bytes()
	copy(b[offsetPos:], u32le(uint32(infoPos)))
	copy(b[infoPos+8:], u32le(uint32(pngPos)))
	copy(b[txtrHdrOff:], []byte("TXTR"))
	copy(b[txtrHdrOff+4:], u32le(uint32(buf.Len()-txtrPayloadStart)))

	wav := make([]byte, 20)
	copy(wav[0:4], "RIFF")
	copy(wav[8:12], "WAVE")
	ogg := make([]byte, 16)
	copy(ogg[0:4], "OggS")

	audoHdrOff := buf.Len()
	buf.Write(make([]byte, container.ChunkHeaderSize))
	audoPayloadStart := buf.Len()
	buf.Write(u32le(2))
	audoOffsetPos := buf.Len()
	buf.Write(make([]byte, 8))
	blob0Pos := buf.Len()
	buf.Write(u32le(uint32(len(wav))))
	buf.Write(wav)
	blob1Pos := buf.Len()
	buf.Write(u32le(uint32(len(ogg))))
	buf.Write(ogg)

	b = buf.Bytes()
	copy(b[audoOffsetPos:], u32le(uint32(blob0Pos)))
	copy(b[audoOffsetPos+4:], u32le(uint32(blob1Pos)))
	copy(b[audoHdrOff:], []byte("AUDO"))
	copy(b[audoHdrOff+4:], u32le(uint32(buf.Len()-audoPayloadStart)))

	formSize := buf.Len() - container.FormHeaderSize
	b = buf.Bytes()
	copy(b[0:4], []byte("FORM"))
	copy(b[4:8], u32le(uint32(formSize)))

	return buf.Bytes()
}

func TestDump(t *testing.T) {
	data := buildFixture()
	idx, err := container.Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	outDir := t.TempDir()
	if err := Dump(idx, bytes.NewReader(data), outDir); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}

	wantFiles := []string{
		filepath.Join(outDir, "txtr", "0000.png"),
		filepath.Join(outDir, "audo", "0000.wav"),
		filepath.Join(outDir, "audo", "0001.ogg"),
	}
	for _, f := range wantFiles {
		if _, err := os.Stat(f); err != nil {
			t.Errorf("expected dumped file %s: %v", f, err)
		}
	}

	txtrEntry := idx.Section(container.SectionTXTR).Entries[0].Txtr
	got, err := os.ReadFile(filepath.Join(outDir, "txtr", "0000.png"))
	if err != nil {
		t.Fatalf("reading dumped PNG: %v", err)
	}
	want := data[txtrEntry.Offset : txtrEntry.Offset+txtrEntry.Size]
	if !bytes.Equal(got, want) {
		t.Errorf("dumped PNG bytes do not match source entry bytes")
	}
}
