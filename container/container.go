package container

import "encoding/binary"

// Payload is one entropy-coded plane: its 512-entry frequency table plus
// the interleaved tANS byte stream it governs.
type Payload struct {
	Freqs  [FrequencyTableSymbols]uint32
	Stream []byte
}

// Container is a fully decoded texture frame: the header plus its four
// payloads in luma, chroma, palette, indices order.
type Container struct {
	Header  Header
	Luma    Payload
	Chroma  Payload
	Palette Payload
	Indices Payload
}

// Encode serializes c into its on-disk byte representation. The header's
// *CmpSz and PaletteBytes fields are taken from c.Header; Encode does not
// recompute them from the payload stream lengths, so callers must keep
// them consistent (internal/histbuild builds headers from the payload
// lengths directly, so this only matters for handwritten test fixtures).
func Encode(c Container) []byte {
	buf := make([]byte, c.Header.EncodedSize())
	c.Header.marshal(buf[:HeaderSize])
	off := HeaderSize

	for _, p := range []Payload{c.Luma, c.Chroma, c.Palette, c.Indices} {
		off += writeFreqTable(buf[off:], p.Freqs)
		off += copy(buf[off:], p.Stream)
	}

	return buf
}

// Decode parses data into a Container, validating the header and that the
// buffer's length exactly matches what the header's size fields imply.
func Decode(data []byte) (Container, error) {
	if len(data) < HeaderSize {
		return Container{}, ErrBadContainer
	}

	h := unmarshalHeader(data[:HeaderSize])

	if err := h.Validate(); err != nil {
		return Container{}, err
	}

	if len(data) != h.EncodedSize() {
		return Container{}, ErrBadContainer
	}

	off := HeaderSize
	sizes := []uint64{h.YCmpSz, h.ChromaCmpSz, h.PaletteSz, h.IndicesSz}
	payloads := make([]Payload, PayloadCount)

	for i, sz := range sizes {
		var p Payload
		off += readFreqTable(data[off:], &p.Freqs)
		p.Stream = data[off : off+int(sz)]
		off += int(sz)
		payloads[i] = p
	}

	return Container{
		Header:  h,
		Luma:    payloads[0],
		Chroma:  payloads[1],
		Palette: payloads[2],
		Indices: payloads[3],
	}, nil
}

func writeFreqTable(dst []byte, freqs [FrequencyTableSymbols]uint32) int {
	for i, f := range freqs {
		binary.LittleEndian.PutUint32(dst[i*4:i*4+4], f)
	}

	return FrequencyTableBytes
}

func readFreqTable(src []byte, freqs *[FrequencyTableSymbols]uint32) int {
	for i := range freqs {
		freqs[i] = binary.LittleEndian.Uint32(src[i*4 : i*4+4])
	}

	return FrequencyTableBytes
}
