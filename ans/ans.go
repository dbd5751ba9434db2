// Package ans implements a table-based asymmetric numeral system (tANS)
// entropy coder with a fixed table size and a range-packed symbol layout:
// within the table, all of the slots assigned to symbol 0 precede all of
// the slots assigned to symbol 1, and so on. This differs deliberately from
// the spread-table layouts used by FSE-style coders, and from the rANS
// reciprocal-division coder in this module's ancestry; both interleave
// symbols across the table to improve cache behaviour, which the format
// this package implements does not permit.
package ans

import "errors"

// TableSize is the fixed tANS table size M. Every normalized histogram sums
// to exactly this value, and every encoder/decoder state lives in [M, b*M).
const TableSize = 2048

// log2TableSize is TableSize's base-2 logarithm, used to split an encoder
// state into its table-index and quotient halves.
const log2TableSize = 11

// wordBase is b, the renormalization radix: one 16-bit bitio word.
const wordBase = 1 << 16

// DefaultAlphabetCap bounds the alphabet NormalizeHistogram accepts when
// called through Normalize, matching the core coder's contract. Container
// frequency tables carry a wider, 512-symbol alphabet and call
// NormalizeHistogram directly with a larger cap, as internal/histbuild's
// EncodePlane does.
const DefaultAlphabetCap = 256

var (
	// ErrEmptyHistogram is returned when every input frequency is zero.
	ErrEmptyHistogram = errors.New("ans: histogram has zero total frequency")

	// ErrAlphabetTooLarge is returned when the histogram's alphabet exceeds
	// the caller's cap.
	ErrAlphabetTooLarge = errors.New("ans: alphabet exceeds maximum size")

	// ErrUndersizedTable is returned by Encode when an encoder state would
	// exceed 2*b*M, which indicates the table is too small for the symbol
	// frequencies actually observed.
	ErrUndersizedTable = errors.New("ans: encoder state overflow, table undersized")

	// ErrMalformedStream is returned by Decode when the underlying bit
	// reader underflows, or when decoding lands on a table slot that was
	// never assigned a nonzero frequency.
	ErrMalformedStream = errors.New("ans: malformed tANS stream")
)
