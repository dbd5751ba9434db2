package container

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func makePayload(streamLen int, fill byte) Payload {
	var p Payload
	for i := range p.Freqs {
		p.Freqs[i] = uint32(i % 7)
	}
	p.Stream = make([]byte, streamLen)
	for i := range p.Stream {
		p.Stream[i] = fill
	}
	return p
}

func TestEncodeDecodeRoundTrip128x128(t *testing.T) {
	luma := makePayload(1024, 0xA5)
	chroma := makePayload(2048, 0x3C)
	palette := makePayload(256, 0x11)
	indices := makePayload(1024, 0x99)

	h := Header{
		Width:        128,
		Height:       128,
		PaletteBytes: uint64(len(palette.Stream)),
		YCmpSz:       uint64(len(luma.Stream)),
		ChromaCmpSz:  uint64(len(chroma.Stream)),
		PaletteSz:    uint64(len(palette.Stream)),
		IndicesSz:    uint64(len(indices.Stream)),
	}

	c := Container{Header: h, Luma: luma, Chroma: chroma, Palette: palette, Indices: indices}
	data := Encode(c)

	require.Len(t, data, h.EncodedSize())

	got, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, h, got.Header)
	require.Equal(t, luma.Stream, got.Luma.Stream)
	require.Equal(t, chroma.Stream, got.Chroma.Stream)
	require.Equal(t, palette.Stream, got.Palette.Stream)
	require.Equal(t, indices.Stream, got.Indices.Stream)
	require.Equal(t, luma.Freqs, got.Luma.Freqs)
}

func TestDecodeRejectsTruncatedBuffer(t *testing.T) {
	luma := makePayload(64, 1)
	h := Header{Width: 16, Height: 16, PaletteBytes: 4, YCmpSz: 64, ChromaCmpSz: 64, PaletteSz: 4, IndicesSz: 16}
	c := Container{Header: h, Luma: luma, Chroma: makePayload(64, 2), Palette: makePayload(4, 3), Indices: makePayload(16, 4)}
	data := Encode(c)

	_, err := Decode(data[:len(data)-1])
	require.ErrorIs(t, err, ErrBadContainer)
}

func TestValidateRejectsNonMultipleOf4Dimensions(t *testing.T) {
	h := Header{Width: 15, Height: 128, PaletteBytes: 4, YCmpSz: 1, ChromaCmpSz: 1, PaletteSz: 1, IndicesSz: 1}
	require.ErrorIs(t, h.Validate(), ErrBadContainer)
}

func TestValidateRejectsZeroSizes(t *testing.T) {
	h := Header{Width: 128, Height: 128, PaletteBytes: 4, YCmpSz: 0, ChromaCmpSz: 1, PaletteSz: 1, IndicesSz: 1}
	require.ErrorIs(t, h.Validate(), ErrBadContainer)
}

func TestNumBlocks(t *testing.T) {
	h := Header{Width: 128, Height: 128}
	require.Equal(t, 32*32, h.NumBlocks())
}
