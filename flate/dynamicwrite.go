package flate

import "github.com/ngrash/godeflate/huffman"

// dynamicTables holds everything needed to both measure and emit a BTYPE=2
// block: the literal/length and distance encoders, their RLE-compressed
// code-length description, and the code-length alphabet's own encoder.
type dynamicTables struct {
	litLen *huffman.Encoder
	dist   *huffman.Encoder
	nlit   int
	ndist  int
	clSyms []clSymbol
	clEnc  *huffman.Encoder
	hclen  int
}

// buildDynamicTables constructs the canonical Huffman tables a dynamic
// block over the given symbol frequencies would use, per RFC 1951 section
// 3.2.7. It trims each alphabet to the shortest prefix the frequencies
// actually use, builds a code-length Huffman tree over the RLE-encoded
// description of both tables, and records HCLEN so the header can be
// written back out with trailing all-zero entries omitted.
func buildDynamicTables(litLenFreq []int64, distFreq []int64) *dynamicTables {
	nlit := trimFreq(litLenFreq, 257)
	ndist := trimFreq(distFreq, 1)

	litEnc := huffman.BuildEncoder(litLenFreq[:nlit], 15)
	distEnc := huffman.BuildEncoder(distFreq[:ndist], 15)

	clSyms := runLengthEncodeLengths(litEnc.Lengths, distEnc.Lengths)

	var clFreq [numCLCodes]int64
	for _, s := range clSyms {
		clFreq[s.sym]++
	}
	clEnc := huffman.BuildEncoder(clFreq[:], 7)

	hclen := 4
	for i := numCLCodes - 1; i >= 4; i-- {
		if clEnc.Lengths[codeLengthOrder[i]] != 0 {
			hclen = i + 1
			break
		}
	}

	return &dynamicTables{
		litLen: litEnc,
		dist:   distEnc,
		nlit:   nlit,
		ndist:  ndist,
		clSyms: clSyms,
		clEnc:  clEnc,
		hclen:  hclen,
	}
}

// trimFreq returns the length the alphabet can be trimmed to: one past the
// highest-indexed nonzero frequency, but never less than min.
func trimFreq(freq []int64, min int) int {
	n := min
	for i := len(freq) - 1; i >= min; i-- {
		if freq[i] != 0 {
			n = i + 1
			break
		}
	}
	return n
}

// headerBits returns the bit cost of the dynamic block's header: the
// HLIT/HDIST/HCLEN fields, the HCLEN code-length-alphabet lengths, and the
// RLE-encoded litLen+dist code lengths under the code-length Huffman code.
func (d *dynamicTables) headerBits() int64 {
	bits := int64(5 + 5 + 4 + 3*d.hclen)
	for _, s := range d.clSyms {
		bits += int64(d.clEnc.Lengths[s.sym]) + int64(s.extraBits)
	}
	return bits
}
