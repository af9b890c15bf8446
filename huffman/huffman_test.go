package huffman

import (
	"math/rand"
	"testing"
)

type sliceBits struct {
	bits []uint32 // one bit per element, LSB read order
	pos  int
}

func (s *sliceBits) Peek(n uint8) uint32 {
	var v uint32
	for i := uint8(0); i < n; i++ {
		p := s.pos + int(i)
		if p < len(s.bits) {
			v |= s.bits[p] << i
		}
	}
	return v
}

func (s *sliceBits) Consume(n uint8) { s.pos += int(n) }

func (s *sliceBits) Err() error { return nil }

func codeBits(code uint16, n uint8) []uint32 {
	out := make([]uint32, n)
	for i := uint8(0); i < n; i++ {
		out[i] = uint32(code>>i) & 1
	}
	return out
}

func TestRoundTripFixedLengths(t *testing.T) {
	// A small, deliberately lopsided but complete length table
	// (3/4 + 2/8 = 1, as Init requires).
	lengths := []int{2, 2, 2, 3, 3}
	var dec Decoder
	if !dec.Init(lengths) {
		t.Fatal("Init failed")
	}

	enc := AssignCodes(toUint8(lengths))

	for sym, n := range lengths {
		bits := &sliceBits{bits: codeBits(enc[sym], uint8(n))}
		got, err := dec.Decode(bits)
		if err != nil {
			t.Fatalf("symbol %d: %v", sym, err)
		}
		if got != sym {
			t.Errorf("symbol %d: decoded as %d", sym, got)
		}
	}
}

func toUint8(in []int) []uint8 {
	out := make([]uint8, len(in))
	for i, v := range in {
		out[i] = uint8(v)
	}
	return out
}

func TestInvalidPrefixCode(t *testing.T) {
	var dec Decoder
	// Over-subscribed: two length-1 codes cover the whole space already.
	if dec.Init([]int{1, 1, 1}) {
		t.Fatal("expected Init to reject over-subscribed lengths")
	}
}

func TestDegenerateSingleSymbol(t *testing.T) {
	var dec Decoder
	if !dec.Init([]int{1}) {
		t.Fatal("single-symbol degenerate tree should be accepted")
	}
}

func TestBuildEncoderRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	freqs := make([]int64, 286)
	for i := range freqs {
		if rng.Intn(3) != 0 {
			freqs[i] = rng.Int63n(10000) + 1
		}
	}

	lengths := BuildLengths(freqs, 15)
	codes := AssignCodes(lengths)

	var dec Decoder
	intLengths := make([]int, len(lengths))
	for i, l := range lengths {
		intLengths[i] = int(l)
	}
	if !dec.Init(intLengths) {
		t.Fatal("encoder produced invalid prefix code")
	}

	for sym, f := range freqs {
		if f == 0 {
			continue
		}
		n := lengths[sym]
		if n == 0 || n > 15 {
			t.Fatalf("symbol %d has frequency but bad length %d", sym, n)
		}
		bits := &sliceBits{bits: codeBits(codes[sym], n)}
		got, err := dec.Decode(bits)
		if err != nil {
			t.Fatalf("symbol %d: %v", sym, err)
		}
		if got != sym {
			t.Errorf("symbol %d: decoded as %d", sym, got)
		}
	}
}

func TestBuildEncoderRespectsMaxBits(t *testing.T) {
	// Highly skewed Fibonacci-like frequencies are the classic case that
	// drives unlimited Huffman past 15 bits.
	freqs := make([]int64, 40)
	a, b := int64(1), int64(1)
	for i := range freqs {
		freqs[i] = a
		a, b = b, a+b
	}
	lengths := BuildLengths(freqs, 7)
	for sym, l := range lengths {
		if l > 7 {
			t.Fatalf("symbol %d exceeds max length: %d", sym, l)
		}
		_ = sym
	}

	var dec Decoder
	intLengths := make([]int, len(lengths))
	for i, l := range lengths {
		intLengths[i] = int(l)
	}
	if !dec.Init(intLengths) {
		t.Fatal("length-limited lengths are not a valid prefix code")
	}
}

func FuzzBuildLengths(f *testing.F) {
	f.Add(int64(1), int64(2), int64(3))
	f.Fuzz(func(t *testing.T, a, b, c int64) {
		freqs := []int64{a % 1000, b % 1000, c % 1000, 5}
		for i, v := range freqs {
			if v < 0 {
				freqs[i] = -v
			}
		}
		lengths := BuildLengths(freqs, 15)
		intLengths := make([]int, len(lengths))
		nonzero := 0
		for i, l := range lengths {
			intLengths[i] = int(l)
			if l > 0 {
				nonzero++
			}
		}
		if nonzero == 0 {
			return
		}
		var dec Decoder
		if !dec.Init(intLengths) {
			t.Fatalf("invalid prefix code for freqs %v lengths %v", freqs, lengths)
		}
	})
}
