package device

import (
	"encoding/binary"
	"errors"

	"github.com/kafemoka/GST/ans"
	"github.com/kafemoka/GST/container"
)

// Lanes is the interleave factor every container payload is encoded with.
// It must match ans.DefaultInterleave; CPUQueue does not negotiate a
// per-payload factor, matching the fixed-at-build-time contract of
// ans.EncodeInterleaved/DecodeInterleaved.
const Lanes = ans.DefaultInterleave

// ErrMalformedPlane is returned when a decoded plane's symbol count can't
// be evenly divided across Lanes, or when an indices entry selects a
// palette slot outside the palette's bounds.
var ErrMalformedPlane = errors.New("device: malformed plane data")

// CPUQueue is a synchronous, CPU-only reference implementation of Queue. It
// runs every submission inline and returns an already-completed Event, so
// callers that only need correctness (tests, environments without an
// accelerator) can use it as a drop-in for a real device queue.
//
// Lanes overrides the interleave width DecodeDXT/DecodeRGB decode each
// plane with, matching gtc.Options.InterleaveFactor. The zero value uses
// Lanes, the package default.
type CPUQueue struct {
	Lanes int
}

func (q CPUQueue) lanes() int {
	if q.Lanes > 0 {
		return q.Lanes
	}
	return Lanes
}

func (CPUQueue) BaseAddressAlignment() int { return BaseAddressAlignment }

func (CPUQueue) EnqueueCopy(dst, src []byte, wait []Event) (Event, error) {
	if err := WaitAll(wait); err != nil {
		return nil, err
	}

	copy(dst, src)
	return readyEvent{}, nil
}

func (CPUQueue) EnqueueKernel(fn func() error, wait []Event) (Event, error) {
	if err := WaitAll(wait); err != nil {
		return nil, err
	}

	return readyEvent{err: fn()}, nil
}

// RequiredScratchMem reports the number of bytes of device-side scratch a
// decode of hdr needs: one reconstructed byte per input coefficient across
// the Y and chroma planes, plus one expanded RGBA8 framebuffer-sized region
// for the uncompressed-output path.
func RequiredScratchMem(hdr container.Header) int {
	n := hdr.NumBlocks()
	return 2*n + 4*n + int(hdr.Width)*int(hdr.Height)*4
}

// DecodeDXT runs the full contract-only reconstruction pipeline and returns
// the resulting DXT1 block stream: tANS-decode the four planes, spatially
// reconstruct Y/chroma via the inverse block transform, expand the
// palette-coded index grid, and assemble 8-byte DXT1 blocks in raster
// block order.
func (q CPUQueue) DecodeDXT(hdr container.Header, c container.Container) ([]byte, error) {
	n := hdr.NumBlocks()
	lanes := q.lanes()

	y, err := decodePlane(c.Luma, 2*n, lanes)
	if err != nil {
		return nil, err
	}

	chroma, err := decodePlane(c.Chroma, 4*n, lanes)
	if err != nil {
		return nil, err
	}

	palette, err := decodePlane(c.Palette, int(hdr.PaletteBytes), lanes)
	if err != nil {
		return nil, err
	}

	indices, err := decodePlane(c.Indices, n, lanes)
	if err != nil {
		return nil, err
	}

	y0 := reconstructChannel(y[0:n])
	y1 := reconstructChannel(y[n : 2*n])
	co0 := reconstructChannel(chroma[0:n])
	cg0 := reconstructChannel(chroma[n : 2*n])
	co1 := reconstructChannel(chroma[2*n : 3*n])
	cg1 := reconstructChannel(chroma[3*n : 4*n])

	paletteCount := len(palette) / 4
	if paletteCount == 0 {
		return nil, ErrMalformedPlane
	}

	out := make([]byte, n*BlockBytes)

	for i := 0; i < n; i++ {
		sel := int(indices[i])
		if sel >= paletteCount {
			return nil, ErrMalformedPlane
		}

		indexGrid := binary.LittleEndian.Uint32(palette[sel*4 : sel*4+4])

		r0, g0, b0 := ycocgToRGB(y0[i], co0[i], cg0[i])
		r1, g1, b1 := ycocgToRGB(y1[i], co1[i], cg1[i])
		c0 := packRGB565(r0, g0, b0)
		c1 := packRGB565(r1, g1, b1)

		assembleBlock(out[i*BlockBytes:(i+1)*BlockBytes], c0, c1, indexGrid)
	}

	return out, nil
}

// DecodeRGB runs DecodeDXT and then expands each assembled DXT1 block into
// per-pixel RGB writes, producing W*H*3 bytes.
func (q CPUQueue) DecodeRGB(hdr container.Header, c container.Container) ([]byte, error) {
	dxt, err := q.DecodeDXT(hdr, c)
	if err != nil {
		return nil, err
	}

	w, h := int(hdr.Width), int(hdr.Height)
	out := make([]byte, w*h*3)
	blocksPerRow := w / 4

	for blockIdx := 0; blockIdx*BlockBytes < len(dxt); blockIdx++ {
		bx := blockIdx % blocksPerRow
		by := blockIdx / blocksPerRow
		block := expandBlockRGB(dxt[blockIdx*BlockBytes : (blockIdx+1)*BlockBytes])

		for p := 0; p < 16; p++ {
			px := bx*4 + p%4
			py := by*4 + p/4
			off := (py*w + px) * 3
			out[off], out[off+1], out[off+2] = block[p][0], block[p][1], block[p][2]
		}
	}

	return out, nil
}

// RunDecode runs DecodeDXT through whatever Queue implementation q is. When
// q is itself a CPUQueue, lanes (matching gtc.Options.InterleaveFactor)
// overrides whatever Lanes q was constructed with, so the option reaches
// the decode even when a caller passed a bare CPUQueue{} rather than
// letting RunDecode construct its own fallback. A real accelerator binding
// exposing its own DecodeDXT method is left to decide its lane width for
// itself. q == nil also falls back to a lanes-configured CPUQueue.
func RunDecode(q Queue, hdr container.Header, c container.Container, lanes int) ([]byte, error) {
	if cq, ok := q.(CPUQueue); ok {
		cq.Lanes = lanes
		return cq.DecodeDXT(hdr, c)
	}

	if d, ok := q.(interface {
		DecodeDXT(container.Header, container.Container) ([]byte, error)
	}); ok {
		return d.DecodeDXT(hdr, c)
	}

	return CPUQueue{Lanes: lanes}.DecodeDXT(hdr, c)
}

// RunDecodeRGB mirrors RunDecode for the uncompressed-output path.
func RunDecodeRGB(q Queue, hdr container.Header, c container.Container, lanes int) ([]byte, error) {
	if cq, ok := q.(CPUQueue); ok {
		cq.Lanes = lanes
		return cq.DecodeRGB(hdr, c)
	}

	if d, ok := q.(interface {
		DecodeRGB(container.Header, container.Container) ([]byte, error)
	}); ok {
		return d.DecodeRGB(hdr, c)
	}

	return CPUQueue{Lanes: lanes}.DecodeRGB(hdr, c)
}

// decodePlane rebuilds a payload's tANS table from its stored, already
// normalized frequency table, then recovers total symbols (which must be
// lanes-divisible) via interleaved decode and flattens them back to the
// plane's original byte order.
func decodePlane(p container.Payload, total, lanes int) ([]byte, error) {
	if total == 0 || total%lanes != 0 {
		return nil, ErrMalformedPlane
	}

	normalized := make([]int, container.FrequencyTableSymbols)
	for i, f := range p.Freqs {
		normalized[i] = int(f)
	}

	tbl, err := ans.BuildTable(normalized, ans.TableSize)
	if err != nil {
		return nil, ErrMalformedPlane
	}

	tables := make([]*ans.Table, lanes)
	for j := range tables {
		tables[j] = tbl
	}

	if len(p.Stream) < lanes*4 {
		return nil, ErrMalformedPlane
	}

	states := make([]uint32, lanes)
	for j := 0; j < lanes; j++ {
		states[j] = binary.LittleEndian.Uint32(p.Stream[j*4 : j*4+4])
	}

	l := total / lanes
	decoded, err := ans.DecodeInterleaved(tables, states, p.Stream[lanes*4:], l)
	if err != nil {
		return nil, ErrMalformedPlane
	}

	flat := ans.JoinRoundRobin(decoded)
	out := make([]byte, total)

	for i, s := range flat {
		out[i] = byte(s)
	}

	return out, nil
}
