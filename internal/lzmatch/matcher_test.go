package lzmatch

import (
	"bytes"
	"testing"

	"github.com/ngrash/godeflate/internal/window"
)

func reconstruct(toks []Token) []byte {
	var w window.Window
	var out []byte
	for _, t := range toks {
		if t.IsMatch() {
			w.CopyMatch(t.Distance, t.Length, func(b byte) { out = append(out, b) })
		} else {
			w.Append(t.Literal)
			out = append(out, t.Literal)
		}
	}
	return out
}

func TestRoundTripLevels(t *testing.T) {
	inputs := [][]byte{
		[]byte(""),
		[]byte("a"),
		bytes.Repeat([]byte("a"), 1000),
		[]byte("the quick brown fox jumps over the lazy dog, the quick brown fox jumps again"),
		bytes.Repeat([]byte("abcabcabc"), 500),
	}
	for _, lvl := range []Level{LevelNone, LevelFast, LevelBalanced, LevelBest} {
		for _, in := range inputs {
			m := NewMatcher(lvl)
			toks := m.Next(in)
			got := reconstruct(toks)
			if !bytes.Equal(got, in) {
				t.Fatalf("level %v: round trip mismatch: got %d bytes want %d bytes", lvl, len(got), len(in))
			}
		}
	}
}

func TestRoundTripAcrossChunks(t *testing.T) {
	full := bytes.Repeat([]byte("0123456789"), 5000)
	m := NewMatcher(LevelBalanced)
	var all []Token
	for i := 0; i < len(full); i += 4096 {
		end := i + 4096
		if end > len(full) {
			end = len(full)
		}
		all = append(all, m.Next(full[i:end])...)
	}
	got := reconstruct(all)
	if !bytes.Equal(got, full) {
		t.Fatalf("cross-chunk round trip mismatch: got %d bytes want %d bytes", len(got), len(full))
	}
}

func TestCompressesRuns(t *testing.T) {
	in := bytes.Repeat([]byte("a"), 1000)
	m := NewMatcher(LevelBalanced)
	toks := m.Next(in)
	if len(toks) > 50 {
		t.Fatalf("expected heavy compression of a run, got %d tokens", len(toks))
	}
}
