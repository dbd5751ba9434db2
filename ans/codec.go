package ans

import "github.com/kafemoka/GST/bitio"

// Encoder holds a single tANS coder's running state. Its zero value is not
// usable; construct it with NewEncoder against a built Table.
type Encoder struct {
	table *Table
	x     uint32
}

// NewEncoder creates an Encoder for table, initialized to state M, the
// bottom of the valid state range.
func NewEncoder(table *Table) *Encoder {
	return &Encoder{table: table, x: uint32(table.m)}
}

// State returns the encoder's current state, to be carried out-of-band
// alongside the encoded stream (e.g. in a container payload header) so a
// decoder can resume from it.
func (e *Encoder) State() uint32 {
	return e.x
}

// Encode advances the encoder by one symbol, renormalizing through w as
// needed. Returns ErrUndersizedTable if the resulting state would exceed
// 2*b*M, which means the table's frequencies are too skewed for its size.
func (e *Encoder) Encode(symbol int, w *bitio.Writer) error {
	freq := e.table.FreqOf(symbol)
	cum := e.table.CumOf(symbol)

	for e.x >= uint32(wordBase*freq) {
		w.WriteBits(e.x&0xFFFF, 16)
		e.x >>= 16
	}

	e.x = (e.x/uint32(freq))<<log2TableSize + uint32(cum) + e.x%uint32(freq)

	if e.x >= uint32(2*wordBase*e.table.m) {
		return ErrUndersizedTable
	}

	return nil
}

// Decoder holds a single tANS coder's running decode state.
type Decoder struct {
	table *Table
	x     uint32
}

// NewDecoder creates a Decoder for table, resuming from state, the value an
// Encoder reported via State after encoding its last symbol.
func NewDecoder(table *Table, state uint32) *Decoder {
	return &Decoder{table: table, x: state}
}

// State returns the decoder's current state.
func (d *Decoder) State() uint32 {
	return d.x
}

// Decode recovers one symbol, pulling bits from r as needed to renormalize.
// The sequence of symbols Decode returns across repeated calls is the
// reverse of the order in which the matching Encoder consumed them.
func (d *Decoder) Decode(r *bitio.Reader) (int, error) {
	m := uint32(d.table.m)
	slot := int(d.x % m)
	freq := d.table.freqAt(slot)

	if freq == 0 {
		return 0, ErrMalformedStream
	}

	sym := int(d.table.symbolAt(slot))
	cum := uint32(d.table.cumAt(slot))
	d.x = uint32(freq)*(d.x/m) + uint32(slot) - cum

	for d.x < m {
		bits, err := r.ReadBits(16)
		if err != nil {
			return 0, ErrMalformedStream
		}

		d.x = d.x<<16 | bits
	}

	return sym, nil
}
