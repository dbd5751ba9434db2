package bitio

import (
	"math/rand"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(0))
	widths := make([]uint, 500)
	values := make([]uint32, 500)
	w := NewWriter()

	for i := range widths {
		width := uint(1 + rng.Intn(16))
		value := uint32(rng.Int63()) & (uint32(1)<<width - 1)
		widths[i] = width
		values[i] = value
		w.WriteBits(value, width)
	}

	// The Writer only emits whole words and has no flush, so pad the
	// stream out to a word boundary before reading it back.
	if rem := w.BitCount() % 16; rem != 0 {
		w.WriteBits(0, uint(16-rem))
	}

	if w.ByteCount()%2 != 0 {
		t.Fatalf("ByteCount() = %d, want an even number of bytes", w.ByteCount())
	}

	r := NewReader(w.Bytes())

	for i := range widths {
		got, err := r.ReadBits(widths[i])
		if err != nil {
			t.Fatalf("ReadBits at index %d: %v", i, err)
		}

		if got != values[i] {
			t.Fatalf("index %d: got %d, want %d (width %d)", i, got, values[i], widths[i])
		}
	}
}

func TestReadPastEndReturnsUnderflow(t *testing.T) {
	w := NewWriter()
	w.WriteBits(1, 16)
	r := NewReader(w.Bytes())

	if _, err := r.ReadBits(16); err != nil {
		t.Fatalf("first ReadBits: unexpected error %v", err)
	}

	if _, err := r.ReadBits(1); err != ErrUnderflow {
		t.Fatalf("expected ErrUnderflow, got %v", err)
	}
}

func TestWriteBitsInvalidWidthPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for width 0")
		}
	}()

	NewWriter().WriteBits(0, 0)
}
