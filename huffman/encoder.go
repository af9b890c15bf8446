package huffman

import "sort"

// Encoder is a symbol -> (code, length) table used by the DEFLATE writer to
// emit literal/length, distance and code-length symbols.
type Encoder struct {
	Codes   []uint16
	Lengths []uint8
}

// leaf tracks one symbol's frequency while the tree is being built; kept
// separate from the public Lengths/Codes slices so intermediate construction
// never leaks partially-built state to callers.
type leaf struct {
	symbol int
	freq   int64
}

// node is an internal or leaf node of the working Huffman tree.
type node struct {
	freq   int64
	parent int // index into nodes, -1 for the root
}

// BuildEncoder constructs a canonical Huffman code over numSymbols symbols
// (indices 0..numSymbols-1) from their observed frequencies, with code
// lengths limited to maxBits. Symbols with zero frequency are assigned
// length 0 (absent from the alphabet actually used in this block).
//
// The tree is built with an ordinary (unlimited-length) Huffman merge and
// then clamped to maxBits: bit lengths that would exceed the limit are
// capped during the first pass, and the resulting excess in the Kraft sum is
// removed from the length histogram by repeatedly moving one leaf from the
// deepest non-empty shorter length one level down. This does not guarantee a
// strictly optimal length-limited code (package-merge would), only a valid
// one; the difference is a fraction of a bit per block in practice.
func BuildEncoder(freqs []int64, maxBits int) *Encoder {
	lengths := BuildLengths(freqs, maxBits)
	return &Encoder{
		Codes:   AssignCodes(lengths),
		Lengths: lengths,
	}
}

// BuildLengths computes length-limited canonical code lengths for the given
// per-symbol frequencies. Symbols with zero frequency get length 0.
func BuildLengths(freqs []int64, maxBits int) []uint8 {
	n := len(freqs)
	lengths := make([]uint8, n)

	var leaves []leaf
	for sym, f := range freqs {
		if f > 0 {
			leaves = append(leaves, leaf{sym, f})
		}
	}
	switch len(leaves) {
	case 0:
		return lengths
	case 1:
		lengths[leaves[0].symbol] = 1
		return lengths
	}

	depth := buildTreeDepths(leaves)

	var bitCount [MaxCodeLen + 1]int
	overflow := 0
	for sym, d := range depth {
		bits := d
		if bits > maxBits {
			bits = maxBits
			overflow++
		}
		lengths[leaves[sym].symbol] = uint8(bits)
		bitCount[bits]++
	}

	if overflow > 0 {
		fixOverflow(bitCount[:], maxBits)
		reassignByFrequency(leaves, bitCount[:], maxBits, lengths)
	}

	return lengths
}

// buildTreeDepths runs a classic frequency-queue Huffman merge over leaves
// (mutated copy, sorted ascending by frequency with ties broken by original
// position for determinism) and returns each leaf's tree depth, indexed the
// same as the leaves slice passed in.
func buildTreeDepths(leaves []leaf) []int {
	sorted := make([]leaf, len(leaves))
	copy(sorted, leaves)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].freq < sorted[j].freq })
	// Map back from the sorted order to the caller's original leaf index so
	// the returned depth slice lines up with `leaves`, not `sorted`.
	origIndex := make([]int, len(sorted))
	for i, l := range sorted {
		for j, l2 := range leaves {
			if l2.symbol == l.symbol {
				origIndex[i] = j
				break
			}
		}
	}

	n := len(sorted)
	nodes := make([]node, n, 2*n)
	for i, l := range sorted {
		nodes[i] = node{freq: l.freq, parent: -1}
	}

	// Two-queue merge: `leavesQ` walks the (already sorted) leaves in
	// order, `internalQ` walks newly created internal nodes in creation
	// order; both queues are individually sorted by weight, so the next
	// smallest weight overall is always at the front of one of the two.
	leavesQ := make([]int, n)
	for i := range leavesQ {
		leavesQ[i] = i
	}
	var internalQ []int

	popSmallest := func() int {
		if len(internalQ) == 0 || (len(leavesQ) > 0 && nodes[leavesQ[0]].freq <= nodes[internalQ[0]].freq) {
			v := leavesQ[0]
			leavesQ = leavesQ[1:]
			return v
		}
		v := internalQ[0]
		internalQ = internalQ[1:]
		return v
	}

	for len(leavesQ)+len(internalQ) > 1 {
		a := popSmallest()
		b := popSmallest()
		nodes = append(nodes, node{freq: nodes[a].freq + nodes[b].freq, parent: -1})
		newIdx := len(nodes) - 1
		nodes[a].parent = newIdx
		nodes[b].parent = newIdx
		internalQ = append(internalQ, newIdx)
	}

	depth := make([]int, n)
	for i := 0; i < n; i++ {
		d := 0
		for p := nodes[i].parent; p != -1; p = nodes[p].parent {
			d++
		}
		depth[origIndex[i]] = d
	}
	return depth
}

// fixOverflow folds bit lengths that were clamped to maxBits back into a
// valid (Kraft-satisfying) histogram: while the Kraft sum, counted in units
// of 2^-maxBits, exceeds one, borrow one leaf from the deepest length below
// the limit, donate two to the length one bit longer, and remove one leaf at
// the limit itself. Each step lowers the sum by exactly one unit and leaves
// the number of leaves unchanged.
func fixOverflow(bitCount []int, maxBits int) {
	total := 0
	for bits := 1; bits <= maxBits; bits++ {
		total += bitCount[bits] << uint(maxBits-bits)
	}
	for total > 1<<uint(maxBits) {
		bits := maxBits - 1
		for bitCount[bits] == 0 {
			bits--
		}
		bitCount[bits]--
		bitCount[bits+1] += 2
		bitCount[maxBits]--
		total--
	}
}

// reassignByFrequency re-distributes the (now valid) length histogram back
// onto symbols, giving the longest lengths to the least frequent symbols,
// which is optimal for any fixed multiset of lengths satisfying Kraft
// equality (exchange argument).
func reassignByFrequency(leaves []leaf, bitCount []int, maxBits int, lengths []uint8) {
	byFreq := make([]leaf, len(leaves))
	copy(byFreq, leaves)
	sort.SliceStable(byFreq, func(i, j int) bool { return byFreq[i].freq < byFreq[j].freq })

	idx := 0
	for bits := maxBits; bits >= 1; bits-- {
		for c := 0; c < bitCount[bits]; c++ {
			lengths[byFreq[idx].symbol] = uint8(bits)
			idx++
		}
	}
}

// AssignCodes assigns canonical codes to a finished length table: codes at
// the same length are consecutive in symbol order, and the first code at
// each length is the previous length's first code plus the number of codes
// of that previous length, shifted left by one, per RFC 1951 section 3.2.2. The returned codes are already
// bit-reversed so they can be written LSB-first with bitio.Writer.
func AssignCodes(lengths []uint8) []uint16 {
	var count [MaxCodeLen + 1]int
	maxLen := 0
	for _, n := range lengths {
		count[n]++
		if int(n) > maxLen {
			maxLen = int(n)
		}
	}
	count[0] = 0

	var nextCode [MaxCodeLen + 1]int
	code := 0
	for i := 1; i <= maxLen; i++ {
		code = (code + count[i-1]) << 1
		nextCode[i] = code
	}

	codes := make([]uint16, len(lengths))
	for sym, n := range lengths {
		if n == 0 {
			continue
		}
		c := nextCode[n]
		nextCode[n]++
		codes[sym] = reverseBits(uint16(c), n)
	}
	return codes
}

func reverseBits(v uint16, n uint8) uint16 {
	var r uint16
	for i := uint8(0); i < n; i++ {
		r = r<<1 | (v & 1)
		v >>= 1
	}
	return r
}
