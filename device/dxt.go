package device

import "encoding/binary"

// BlockBytes is the size of one DXT1 block: two RGB565 endpoints plus a
// 32-bit, 2-bit-per-pixel index grid.
const BlockBytes = 8

// assembleBlock packs two RGB565 endpoints and a 32-bit index grid into the
// 8-byte DXT1 block layout used by Foereaper-GoMapViewer's decoder and the
// wider DXT1 convention: c0, c1 little-endian uint16, then the index grid
// little-endian uint32.
func assembleBlock(dst []byte, c0, c1 uint16, indexGrid uint32) {
	binary.LittleEndian.PutUint16(dst[0:2], c0)
	binary.LittleEndian.PutUint16(dst[2:4], c1)
	binary.LittleEndian.PutUint32(dst[4:8], indexGrid)
}

// unpack565 expands an RGB565 color to 8-bit-per-channel RGB.
func unpack565(c uint16) (r, g, b byte) {
	r = byte((c >> 11 & 0x1F) << 3)
	g = byte((c >> 5 & 0x3F) << 2)
	b = byte((c & 0x1F) << 3)
	return
}

// colorPalette builds DXT1's 4-entry interpolated color table from the two
// block endpoints, the way every DXT1 decoder (e.g.
// other_examples/Foereaper-GoMapViewer__dxt.go) derives its per-pixel
// lookup table.
func colorPalette(c0, c1 uint16) [4][3]byte {
	r0, g0, b0 := unpack565(c0)
	r1, g1, b1 := unpack565(c1)

	lerp := func(a, b byte, num, den int) byte {
		return byte((int(a)*(den-num) + int(b)*num) / den)
	}

	return [4][3]byte{
		{r0, g0, b0},
		{r1, g1, b1},
		{lerp(r0, r1, 1, 3), lerp(g0, g1, 1, 3), lerp(b0, b1, 1, 3)},
		{lerp(r0, r1, 2, 3), lerp(g0, g1, 2, 3), lerp(b0, b1, 2, 3)},
	}
}

// expandBlockRGB decodes one 8-byte DXT1 block into 16 RGB triples in
// row-major 4x4 order, for the uncompressed-output decode path.
func expandBlockRGB(block []byte) [16][3]byte {
	c0 := binary.LittleEndian.Uint16(block[0:2])
	c1 := binary.LittleEndian.Uint16(block[2:4])
	indices := binary.LittleEndian.Uint32(block[4:8])
	palette := colorPalette(c0, c1)

	var out [16][3]byte

	for p := 0; p < 16; p++ {
		idx := (indices >> uint(2*p)) & 0x3
		out[p] = palette[idx]
	}

	return out
}
