package flate_test

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"testing"

	"github.com/ngrash/godeflate/flate"
)

func roundTrip(t *testing.T, level flate.Level, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := flate.NewWriter(&buf, level)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	encoded := append([]byte(nil), buf.Bytes()...)
	r := flate.NewReader(bytes.NewReader(encoded))
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(data))
	}
	return encoded
}

func TestRoundTripEmpty(t *testing.T) {
	for _, lvl := range []flate.Level{flate.LevelNone, flate.LevelFast, flate.LevelBalanced, flate.LevelBest} {
		roundTrip(t, lvl, nil)
	}
}

func TestRoundTripLiteralsOnly(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	for _, lvl := range []flate.Level{flate.LevelNone, flate.LevelFast, flate.LevelBalanced, flate.LevelBest} {
		roundTrip(t, lvl, data)
	}
}

func TestRoundTripRuns(t *testing.T) {
	data := bytes.Repeat([]byte("abcabcabcabc"), 5000)
	for _, lvl := range []flate.Level{flate.LevelFast, flate.LevelBalanced, flate.LevelBest} {
		roundTrip(t, lvl, data)
	}
}

// TestRunCompressionRatio pins the compression floor for a trivial run:
// 1000 repeats of one byte must encode to fewer than 100 bytes.
func TestRunCompressionRatio(t *testing.T) {
	data := bytes.Repeat([]byte("a"), 1000)
	for _, lvl := range []flate.Level{flate.LevelFast, flate.LevelBalanced, flate.LevelBest} {
		encoded := roundTrip(t, lvl, data)
		if len(encoded) >= 100 {
			t.Fatalf("level %v: 1000-byte run encoded to %d bytes, want < 100", lvl, len(encoded))
		}
	}
}

func TestCloseIdempotent(t *testing.T) {
	var buf bytes.Buffer
	w := flate.NewWriter(&buf, flate.LevelBalanced)
	if _, err := w.Write([]byte("once")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	n := buf.Len()
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if buf.Len() != n {
		t.Fatalf("second Close emitted %d extra bytes", buf.Len()-n)
	}
}

func TestRoundTripRandom(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	data := make([]byte, 70000)
	r.Read(data)
	roundTrip(t, flate.LevelBalanced, data)
}

// TestManyStoredBlocks: 70000 random bytes at LevelNone must split into
// at least two stored blocks, since a stored block's LEN field cannot
// exceed 65535.
func TestManyStoredBlocks(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	data := make([]byte, 70000)
	r.Read(data)

	encoded := roundTrip(t, flate.LevelNone, data)

	count := 0
	for off := 0; off+5 <= len(encoded); {
		// Each stored block starts on a byte boundary here since LevelNone
		// never emits anything but byte-aligned stored blocks.
		hdr := encoded[off]
		final := hdr&1 == 1
		length := int(encoded[off+1]) | int(encoded[off+2])<<8
		count++
		off += 5 + length
		if final {
			break
		}
	}
	if count < 2 {
		t.Fatalf("expected at least 2 stored blocks, got %d", count)
	}
}

func TestFlushRecoversPrefix(t *testing.T) {
	var buf bytes.Buffer
	w := flate.NewWriter(&buf, flate.LevelBalanced)
	if _, err := w.Write([]byte("hello, ")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	r := flate.NewReader(bytes.NewReader(buf.Bytes()))
	got := make([]byte, 7)
	if _, err := io.ReadFull(r, got); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if string(got) != "hello, " {
		t.Fatalf("got %q", got)
	}

	if _, err := w.Write([]byte("world")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r2 := flate.NewReader(bytes.NewReader(buf.Bytes()))
	all, err := io.ReadAll(r2)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(all) != "hello, world" {
		t.Fatalf("got %q", all)
	}
}

func TestRejectsReservedBlockType(t *testing.T) {
	// BFINAL=1, BTYPE=3 packed LSB-first into the first byte: bits 1,1,1.
	bad := []byte{0b0000_0111}
	r := flate.NewReader(bytes.NewReader(bad))
	_, err := io.ReadAll(r)
	if err == nil {
		t.Fatal("expected an error for a reserved block type")
	}
	var fe *flate.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *flate.FormatError, got %T: %v", err, err)
	}
}

func TestStoredBlockLengthMismatch(t *testing.T) {
	// BFINAL=1, BTYPE=0 (byte 0 = 0b001), then misaligned pad, LEN=1 NLEN
	// not complemented.
	bad := []byte{0b0000_0001, 0x01, 0x00, 0x00, 0x00, 0xAA}
	r := flate.NewReader(bytes.NewReader(bad))
	_, err := io.ReadAll(r)
	if err == nil {
		t.Fatal("expected an error for mismatched stored block LEN/NLEN")
	}
}

func BenchmarkRoundTrip(b *testing.B) {
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 1000)
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		w := flate.NewWriter(&buf, flate.LevelBalanced)
		w.Write(data)
		w.Close()
		r := flate.NewReader(&buf)
		io.Copy(io.Discard, r)
	}
}
