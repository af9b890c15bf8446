package lzmatch

import (
	"github.com/cespare/xxhash/v2"

	"github.com/ngrash/godeflate/internal/window"
)

// hashBits sizes the position hash table; 2^15 buckets keeps collisions low
// for the 3-byte prefixes DEFLATE matches on without the table itself
// becoming a meaningful fraction of the window it searches.
const hashBits = 15
const hashSize = 1 << hashBits

// Matcher finds LZ77 tokens across a stream of input chunks, carrying the
// trailing window.Size bytes of each chunk forward as history for the next
// one so matches may reach across chunk boundaries exactly as they would
// across any other position in the stream. One Matcher is owned exclusively
// by a single encoder and reused for every block it writes.
type Matcher struct {
	level   Level
	history []byte
}

// NewMatcher creates a Matcher operating at the given effort level.
func NewMatcher(level Level) *Matcher {
	return &Matcher{level: level}
}

// SetHistory seeds the carried window history, as if data had immediately
// preceded the first call to Next, so its first block can already find
// matches against data. Used to prime a preset dictionary.
func (m *Matcher) SetHistory(data []byte) {
	m.updateHistory(data)
}

// Next tokenizes data (one encoder block's worth of input) and updates the
// carried history for the next call.
func (m *Matcher) Next(data []byte) []Token {
	if m.level == LevelNone {
		toks := make([]Token, len(data))
		for i, b := range data {
			toks[i] = Token{Literal: b}
		}
		m.updateHistory(data)
		return toks
	}

	s := &search{
		data: append(append([]byte(nil), m.history...), data...),
		base: len(m.history),
		p:    m.level.params(),
		head: newHeadTable(),
	}
	s.prev = make([]int32, len(s.data))

	toks := s.run()
	m.updateHistory(data)
	return toks
}

func (m *Matcher) updateHistory(data []byte) {
	combined := append(m.history, data...)
	if len(combined) > window.Size {
		combined = combined[len(combined)-window.Size:]
	}
	// Copy to a fresh slice so the search's internal append-growth above
	// never aliases (and therefore never corrupts) what we keep here.
	m.history = append([]byte(nil), combined...)
}

func newHeadTable() []int32 {
	h := make([]int32, hashSize)
	for i := range h {
		h[i] = -1
	}
	return h
}

type search struct {
	data  []byte
	base  int // index in data where the new chunk (as opposed to carried history) starts
	p     params
	head  []int32
	prev  []int32
	insAt int // positions [0, insAt) have already been inserted into head/prev
}

func (s *search) run() []Token {
	var toks []Token
	n := len(s.data)
	i := s.base
	for i < n {
		s.insertUpTo(i - 1)
		length, dist, ok := s.find(i)

		if ok && s.p.lazy && i+1 < n {
			s.insertUpTo(i)
			length2, _, ok2 := s.find(i + 1)
			if ok2 && length2 > length {
				toks = append(toks, Token{Literal: s.data[i]})
				i++
				continue
			}
		}

		if ok {
			toks = append(toks, Token{Length: length, Distance: dist})
			i += length
		} else {
			toks = append(toks, Token{Literal: s.data[i]})
			i++
		}
	}
	return toks
}

func (s *search) insertUpTo(upTo int) {
	for s.insAt <= upTo {
		p := s.insAt
		if p >= 0 && p+3 <= len(s.data) {
			h := hash3(s.data[p : p+3])
			s.prev[p] = s.head[h]
			s.head[h] = int32(p)
		}
		s.insAt++
	}
}

func (s *search) find(i int) (length, distance int, ok bool) {
	if i+window.MinMatchLength > len(s.data) {
		return 0, 0, false
	}
	h := hash3(s.data[i : i+3])
	pos := s.head[h]
	chain := 0
	bestLen := 0
	bestDist := 0
	maxLen := len(s.data) - i
	if maxLen > window.MaxMatchLength {
		maxLen = window.MaxMatchLength
	}
	for pos >= 0 && chain < s.p.maxChainLen {
		dist := i - int(pos)
		if dist > window.Size {
			break
		}
		l := matchLength(s.data, int(pos), i, maxLen)
		if l > bestLen {
			bestLen, bestDist = l, dist
			if l >= s.p.niceLength {
				break
			}
		}
		pos = s.prev[pos]
		chain++
	}
	if bestLen >= window.MinMatchLength {
		return bestLen, bestDist, true
	}
	return 0, 0, false
}

func matchLength(data []byte, a, b, maxLen int) int {
	n := 0
	for n < maxLen && data[a+n] == data[b+n] {
		n++
	}
	return n
}

func hash3(b []byte) uint32 {
	return uint32(xxhash.Sum64(b[:3])) & (hashSize - 1)
}
