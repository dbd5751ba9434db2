// Package histbuild holds the encode-side helpers the tests use to build
// container payloads: building a normalized table from raw symbol data, and
// packing the interleaved tANS stream a container.Payload carries.
package histbuild

import (
	"encoding/binary"

	"github.com/kafemoka/GST/ans"
	"github.com/kafemoka/GST/container"
	"github.com/kafemoka/GST/device"
)

// EncodePlane builds a container.Payload for raw: a histogram over raw's
// byte values, normalized to ans.TableSize, tANS-encoded with
// device.Lanes-way interleaving, and prefixed with the per-lane final
// states decodePlane (in package device) expects to find there.
func EncodePlane(raw []byte) (container.Payload, error) {
	var p container.Payload

	if len(raw)%device.Lanes != 0 {
		return p, device.ErrMalformedPlane
	}

	hist := make([]int, container.FrequencyTableSymbols)
	for _, b := range raw {
		hist[b]++
	}

	norm, err := ans.NormalizeHistogram(hist, container.FrequencyTableSymbols, ans.TableSize)
	if err != nil {
		return p, err
	}

	symbols := make([]int, len(raw))
	for i, b := range raw {
		symbols[i] = int(b)
	}

	streams := ans.SplitRoundRobin(symbols, device.Lanes)
	tables := make([]*ans.Table, device.Lanes)

	for j := range tables {
		tbl, err := ans.BuildTable(norm, ans.TableSize)
		if err != nil {
			return p, err
		}
		tables[j] = tbl
	}

	states, data, err := ans.EncodeInterleaved(tables, streams)
	if err != nil {
		return p, err
	}

	for i, f := range norm {
		p.Freqs[i] = uint32(f)
	}

	stateBytes := make([]byte, device.Lanes*4)
	for j, s := range states {
		binary.LittleEndian.PutUint32(stateBytes[j*4:j*4+4], s)
	}

	p.Stream = append(stateBytes, data...)
	return p, nil
}

// BuildContainer assembles a synthetic but internally consistent
// container.Container of widthBlocks x heightBlocks DXT1 blocks, useful for
// exercising the decode pipeline and scheduler without a real encoder.
// paletteEntries must make paletteEntries*4 a multiple of device.Lanes, and
// widthBlocks*heightBlocks must itself be a multiple of device.Lanes.
func BuildContainer(widthBlocks, heightBlocks, paletteEntries int) (container.Header, container.Container, error) {
	n := widthBlocks * heightBlocks

	y := make([]byte, 2*n)
	chroma := make([]byte, 4*n)
	indices := make([]byte, n)
	palette := make([]byte, paletteEntries*4)

	for i := 0; i < n; i++ {
		y[i] = byte(120 + i%20)
		y[n+i] = byte(160 + i%20)
		chroma[i] = byte(128 + i%5)
		chroma[n+i] = byte(128 - i%5)
		chroma[2*n+i] = byte(130 + i%7)
		chroma[3*n+i] = byte(126 - i%3)
		indices[i] = byte(i % paletteEntries)
	}

	for e := 0; e < paletteEntries; e++ {
		binary.LittleEndian.PutUint32(palette[e*4:e*4+4], uint32(0x01230000+e))
	}

	luma, err := EncodePlane(y)
	if err != nil {
		return container.Header{}, container.Container{}, err
	}

	chromaPayload, err := EncodePlane(chroma)
	if err != nil {
		return container.Header{}, container.Container{}, err
	}

	palettePayload, err := EncodePlane(palette)
	if err != nil {
		return container.Header{}, container.Container{}, err
	}

	indicesPayload, err := EncodePlane(indices)
	if err != nil {
		return container.Header{}, container.Container{}, err
	}

	h := container.Header{
		Width:        uint32(widthBlocks * 4),
		Height:       uint32(heightBlocks * 4),
		PaletteBytes: uint64(len(palette)),
		YCmpSz:       uint64(len(luma.Stream)),
		ChromaCmpSz:  uint64(len(chromaPayload.Stream)),
		PaletteSz:    uint64(len(palettePayload.Stream)),
		IndicesSz:    uint64(len(indicesPayload.Stream)),
	}

	c := container.Container{
		Header:  h,
		Luma:    luma,
		Chroma:  chromaPayload,
		Palette: palettePayload,
		Indices: indicesPayload,
	}

	return h, c, nil
}
