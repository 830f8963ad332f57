// Package asset holds the small collaborators used to classify and measure
// replacement/embedded asset files: a PNG dimension/size sniffer and a
// WAVE/OGG magic-byte classifier. Neither ever decodes pixel or audio
// samples — both only walk container-level structure.
package asset

import (
	"encoding/binary"
	"io"

	"github.com/archtool/gmpatch/internal/patcherr"
)

// pngSignature is the fixed 8-byte PNG file signature.
var pngSignature = [8]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// PNGInfo is what the engine needs from an embedded or replacement PNG:
// its on-disk size and its pixel dimensions.
type PNGInfo struct {
	FileSize int64
	Width    int
	Height   int
}

// SniffPNG reads a PNG image's dimensions and total encoded byte size from
// r, which must be positioned at the start of the PNG signature. The file
// size is derived by walking the chunk stream (8-byte signature plus every
// length-prefixed chunk through IEND), not by relying on any surrounding
// container's own offsets — a PNG is self-delimiting.
func SniffPNG(r io.ReadSeeker) (PNGInfo, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return PNGInfo{}, patcherr.Wrap("seeking PNG start", err)
	}

	var sig [8]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return PNGInfo{}, patcherr.New(patcherr.InvalidFormat, "truncated PNG signature")
	}
	if sig != pngSignature {
		return PNGInfo{}, patcherr.New(patcherr.InvalidFormat, "invalid PNG signature")
	}

	size := int64(len(sig))
	var width, height int
	seenIHDR := false

	var hdr [8]byte
	for {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return PNGInfo{}, patcherr.New(patcherr.InvalidFormat, "truncated PNG chunk header")
		}
		length := binary.BigEndian.Uint32(hdr[0:4])
		kind := string(hdr[4:8])
		size += 8 + int64(length) + 4 // length+type header, data, CRC

		if kind == "IHDR" {
			var ihdr [8]byte
			if _, err := io.ReadFull(r, ihdr[:]); err != nil {
				return PNGInfo{}, patcherr.New(patcherr.InvalidFormat, "truncated PNG IHDR")
			}
			width = int(binary.BigEndian.Uint32(ihdr[0:4]))
			height = int(binary.BigEndian.Uint32(ihdr[4:8]))
			seenIHDR = true
			if _, err := r.Seek(int64(length)-8+4, io.SeekCurrent); err != nil {
				return PNGInfo{}, patcherr.Wrap("seeking past PNG IHDR", err)
			}
		} else {
			if _, err := r.Seek(int64(length)+4, io.SeekCurrent); err != nil {
				return PNGInfo{}, patcherr.Wrap("seeking past PNG chunk", err)
			}
		}

		if kind == "IEND" {
			break
		}
	}

	if !seenIHDR || width <= 0 || height <= 0 {
		return PNGInfo{}, patcherr.New(patcherr.InvalidFormat, "PNG missing valid IHDR")
	}

	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return PNGInfo{}, patcherr.Wrap("restoring PNG position", err)
	}

	return PNGInfo{FileSize: size, Width: width, Height: height}, nil
}
