package flate

// RFC 1951 section 3.2.5: length and distance code tables. Index 0 of each
// table corresponds to code 257 (length) or 0 (distance).

const (
	// maxNumLit sizes the literal/length Huffman table at 288 entries
	// (RFC 1951 section 3.2.6): the fixed code assigns real 8-bit
	// codewords to symbols 286 and 287 to keep the tree Kraft-complete,
	// even though those two symbols are invalid wherever they appear in
	// compressed data.
	maxNumLit = 288
	// numLitLenSymbols is the count of literal/length symbols the
	// encoder ever actually emits (0..285): 256 literals, end-of-block,
	// and length codes 257..285. Symbols 286/287 are never produced.
	numLitLenSymbols = 286
	maxNumDist       = 30
	numCLCodes       = 19 // code-length alphabet, RFC 1951 section 3.2.7
	endOfBlock       = 256
)

// lengthBase/lengthExtraBits are indexed by (symbol - 257).
var lengthBase = [29]int{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13,
	15, 17, 19, 23, 27, 31, 35, 43, 51, 59,
	67, 83, 99, 115, 131, 163, 195, 227, 258,
}

var lengthExtraBits = [29]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1,
	1, 1, 2, 2, 2, 2, 3, 3, 3, 3,
	4, 4, 4, 4, 5, 5, 5, 5, 0,
}

// distBase/distExtraBits are indexed by the distance symbol directly.
var distBase = [30]int{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25,
	33, 49, 65, 97, 129, 193, 257, 385, 513, 769,
	1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577,
}

var distExtraBits = [30]uint8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3,
	4, 4, 5, 5, 6, 6, 7, 7, 8, 8,
	9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// codeLengthOrder is the fixed permutation RFC 1951 section 3.2.7 uses to
// transmit the 19 code-length-alphabet lengths compactly: the order was
// chosen so that, in practice, the trailing entries are the ones most often
// unused (length 0) and so can be omitted via HCLEN.
var codeLengthOrder = [19]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// fixedLitLenLengths/fixedDistLengths are the preset code lengths for
// BTYPE=1 (fixed Huffman) blocks, RFC 1951 section 3.2.6.
func fixedLitLenLengths() []int {
	lens := make([]int, maxNumLit)
	for i := 0; i <= 143; i++ {
		lens[i] = 8
	}
	for i := 144; i <= 255; i++ {
		lens[i] = 9
	}
	for i := 256; i <= 279; i++ {
		lens[i] = 7
	}
	for i := 280; i <= 287; i++ {
		lens[i] = 8
	}
	return lens
}

// The fixed distance code spans all 32 five-bit codes, not just the 30
// symbols that may legally occur: RFC 1951 section 3.2.6 assigns codewords
// to 30 and 31 so the tree is complete, and a decoder rejects them only
// after decoding.
func fixedDistLengths() []int {
	lens := make([]int, 32)
	for i := range lens {
		lens[i] = 5
	}
	return lens
}

// lengthCode finds the length code, extra-bit count and extra-bit
// value for a match length (3..258).
func lengthCode(length int) (symbol int, extra uint32, extraBits uint8) {
	for i := len(lengthBase) - 1; i >= 0; i-- {
		if length >= lengthBase[i] {
			return 257 + i, uint32(length - lengthBase[i]), lengthExtraBits[i]
		}
	}
	panic("flate: invalid match length")
}

// distSymbol finds the distance code, extra-bit count and extra-bit value
// for a match distance (1..32768).
func distSymbol(dist int) (symbol int, extra uint32, extraBits uint8) {
	for i := len(distBase) - 1; i >= 0; i-- {
		if dist >= distBase[i] {
			return i, uint32(dist - distBase[i]), distExtraBits[i]
		}
	}
	panic("flate: invalid match distance")
}
