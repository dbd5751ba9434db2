package ans

import (
	"errors"

	"github.com/kafemoka/GST/bitio"
)

// DefaultInterleave is the number of cooperating encoder/decoder lanes used
// when a caller does not override it via an interleave_factor option. tANS
// decode speed on a wide SIMD lane scales with how many independent streams
// can be advanced per iteration, so production use favors a wider factor
// than what a correctness test needs to exercise.
const DefaultInterleave = 32

// ErrStreamCountMismatch is returned when the number of symbol streams
// handed to the interleaved coder does not match the number of tables (or
// states) it was constructed with.
var ErrStreamCountMismatch = errors.New("ans: interleaved stream count mismatch")

// EncodeInterleaved runs N independent tANS encoders, one per entry in
// tables, round-robin over a shared bitio.Writer: for symbol index i from 0
// to L-1, every encoder encodes its i-th symbol, in descending rank order,
// before the group moves on to i+1. Descending rank on encode is what lets
// DecodeInterleaved, walking the reversed word stream, advance its decoders
// in ascending rank. All N streams in symbolStreams must have equal length L.
//
// The decoded order DecodeInterleaved recovers is the reverse of the order
// symbols were encoded in; callers that need the original order reverse it
// themselves.
func EncodeInterleaved(tables []*Table, symbolStreams [][]int) (states []uint32, data []byte, err error) {
	n := len(tables)

	if len(symbolStreams) != n {
		return nil, nil, ErrStreamCountMismatch
	}

	l := 0

	if n > 0 {
		l = len(symbolStreams[0])
	}

	for _, s := range symbolStreams {
		if len(s) != l {
			return nil, nil, ErrStreamCountMismatch
		}
	}

	encoders := make([]*Encoder, n)

	for j, tbl := range tables {
		encoders[j] = NewEncoder(tbl)
	}

	w := bitio.NewWriter()

	for i := 0; i < l; i++ {
		for j := n - 1; j >= 0; j-- {
			if err := encoders[j].Encode(symbolStreams[j][i], w); err != nil {
				return nil, nil, err
			}
		}
	}

	states = make([]uint32, n)

	for j, e := range encoders {
		states[j] = e.State()
	}

	return states, w.Bytes(), nil
}

// DecodeInterleaved mirrors EncodeInterleaved: given the N tables, the final
// encoder states it reported, the emitted byte stream, and the per-stream
// symbol count l, it recovers all N streams in reverse-of-encode order.
//
// tANS decode runs in the opposite direction from encode, so the caller's
// byte stream is consumed as if its 16-bit words had been emitted in
// reverse order; DecodeInterleaved performs that reversal internally.
func DecodeInterleaved(tables []*Table, states []uint32, data []byte, l int) ([][]int, error) {
	n := len(tables)

	if len(states) != n {
		return nil, ErrStreamCountMismatch
	}

	r := bitio.NewReader(reverseWords(data))
	decoders := make([]*Decoder, n)

	for j, tbl := range tables {
		decoders[j] = NewDecoder(tbl, states[j])
	}

	out := make([][]int, n)

	for j := range out {
		out[j] = make([]int, l)
	}

	for i := 0; i < l; i++ {
		for j := 0; j < n; j++ {
			sym, err := decoders[j].Decode(r)
			if err != nil {
				return nil, err
			}

			out[j][i] = sym
		}
	}

	return out, nil
}

// SplitRoundRobin distributes flat, a sequence of L = n*l symbols in their
// original logical order, across n lanes the way a container payload's
// encode side feeds EncodeInterleaved: lane j receives flat[i*n+j] at
// position i. len(flat) must be a multiple of n.
func SplitRoundRobin(flat []int, n int) [][]int {
	l := len(flat) / n
	out := make([][]int, n)

	for j := range out {
		out[j] = make([]int, l)
	}

	for i := 0; i < l; i++ {
		for j := 0; j < n; j++ {
			out[j][i] = flat[i*n+j]
		}
	}

	return out
}

// JoinRoundRobin inverts SplitRoundRobin applied to DecodeInterleaved's
// output: decoded holds each lane's symbols in reverse-of-encode order;
// JoinRoundRobin restores the original flat, logically-ordered sequence.
func JoinRoundRobin(decoded [][]int) []int {
	n := len(decoded)

	if n == 0 {
		return nil
	}

	l := len(decoded[0])
	flat := make([]int, n*l)

	for j, lane := range decoded {
		for i, sym := range lane {
			k := l - 1 - i
			flat[k*n+j] = sym
		}
	}

	return flat
}

// reverseWords returns a copy of data with its sequence of 16-bit
// little-endian words reversed, leaving each word's own byte order intact.
func reverseWords(data []byte) []byte {
	out := make([]byte, len(data))
	nWords := len(data) / 2

	for i := 0; i < nWords; i++ {
		src := i * 2
		dst := (nWords - 1 - i) * 2
		out[dst] = data[src]
		out[dst+1] = data[src+1]
	}

	return out
}
