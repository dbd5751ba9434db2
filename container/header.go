// Package container implements the on-disk framing around four
// entropy-coded payloads (luma, chroma, palette, indices) that together
// describe one compressed DXT1 texture.
package container

import (
	"encoding/binary"
	"errors"
)

// HeaderSize is the fixed byte length of an encoded Header.
const HeaderSize = 48

// PayloadCount is the number of entropy-coded payloads following the
// header: luma, chroma, palette, indices, in that order.
const PayloadCount = 4

// FrequencyTableSymbols is the width of the per-payload frequency table
// prefixing each payload's tANS stream. It is wider than the core coder's
// 256-symbol default; the planes this module encodes and decodes are
// byte-valued, so only entries 0..255 are nonzero in the payloads it builds.
const FrequencyTableSymbols = 512

// FrequencyTableBytes is the serialized size of one frequency table: one
// uint32 per symbol.
const FrequencyTableBytes = FrequencyTableSymbols * 4

// ErrBadContainer is returned by Decode and Validate when the header or the
// surrounding byte buffer is internally inconsistent.
var ErrBadContainer = errors.New("container: malformed header or payload sizing")

// Header is the fixed 48-byte preamble at the start of every encoded
// texture. All fields are little-endian.
type Header struct {
	Width        uint32
	Height       uint32
	PaletteBytes uint64
	YCmpSz       uint64
	ChromaCmpSz  uint64
	PaletteSz    uint64
	IndicesSz    uint64
}

// NumBlocks returns the number of 4x4 DXT1 blocks the header's dimensions
// imply.
func (h Header) NumBlocks() int {
	return int(h.Width) / 4 * (int(h.Height) / 4)
}

// Validate reports ErrBadContainer if the header describes an image that
// cannot be valid: non-multiple-of-4 dimensions, or a zero-length field that
// must be positive for any real texture.
func (h Header) Validate() error {
	if h.Width == 0 || h.Height == 0 {
		return ErrBadContainer
	}

	if h.Width%4 != 0 || h.Height%4 != 0 {
		return ErrBadContainer
	}

	if h.PaletteBytes == 0 || h.PaletteBytes%4 != 0 {
		return ErrBadContainer
	}

	if h.YCmpSz == 0 || h.ChromaCmpSz == 0 || h.PaletteSz == 0 || h.IndicesSz == 0 {
		return ErrBadContainer
	}

	return nil
}

// EncodedSize returns the total byte length of a container whose header is
// h: the header itself, plus four frequency tables, plus the four payload
// stream lengths the header records.
func (h Header) EncodedSize() int {
	return HeaderSize + PayloadCount*FrequencyTableBytes +
		int(h.YCmpSz) + int(h.ChromaCmpSz) + int(h.PaletteSz) + int(h.IndicesSz)
}

func (h Header) marshal(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], h.Width)
	binary.LittleEndian.PutUint32(dst[4:8], h.Height)
	binary.LittleEndian.PutUint64(dst[8:16], h.PaletteBytes)
	binary.LittleEndian.PutUint64(dst[16:24], h.YCmpSz)
	binary.LittleEndian.PutUint64(dst[24:32], h.ChromaCmpSz)
	binary.LittleEndian.PutUint64(dst[32:40], h.PaletteSz)
	binary.LittleEndian.PutUint64(dst[40:48], h.IndicesSz)
}

func unmarshalHeader(src []byte) Header {
	return Header{
		Width:        binary.LittleEndian.Uint32(src[0:4]),
		Height:       binary.LittleEndian.Uint32(src[4:8]),
		PaletteBytes: binary.LittleEndian.Uint64(src[8:16]),
		YCmpSz:       binary.LittleEndian.Uint64(src[16:24]),
		ChromaCmpSz:  binary.LittleEndian.Uint64(src[24:32]),
		PaletteSz:    binary.LittleEndian.Uint64(src[32:40]),
		IndicesSz:    binary.LittleEndian.Uint64(src[40:48]),
	}
}
