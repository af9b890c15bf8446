package flate

import "github.com/ngrash/godeflate/huffman"

// readDynamicTables implements RFC 1951 section 3.2.7: read HLIT/HDIST/
// HCLEN, the code-length alphabet's own lengths (in codeLengthOrder), build
// a Huffman tree over that alphabet, then use it to decode the literal/
// length and distance code-length arrays, expanding the run-length codes
// 16 (copy previous 3..6 times), 17 (zero 3..10 times) and 18 (zero 11..138
// times).
func (f *Reader) readDynamicTables() error {
	hlit, err := f.br.ReadBits(5)
	if err != nil {
		return unexpectedEOF(err)
	}
	hdist, err := f.br.ReadBits(5)
	if err != nil {
		return unexpectedEOF(err)
	}
	hclen, err := f.br.ReadBits(4)
	if err != nil {
		return unexpectedEOF(err)
	}
	nlit := int(hlit) + 257
	ndist := int(hdist) + 1
	nclen := int(hclen) + 4
	if ndist > maxNumDist {
		return formatErrorf("invalid HDIST %d exceeds distance alphabet size", ndist)
	}

	var clLengths [numCLCodes]int
	for i := 0; i < nclen; i++ {
		v, err := f.br.ReadBits(3)
		if err != nil {
			return unexpectedEOF(err)
		}
		clLengths[codeLengthOrder[i]] = int(v)
	}

	var clDecoder huffman.Decoder
	if !clDecoder.Init(clLengths[:]) {
		return formatErrorf("invalid code-length alphabet")
	}

	all := make([]int, nlit+ndist)
	i := 0
	var prev int
	for i < len(all) {
		sym, err := f.decodeSym(&clDecoder)
		if err != nil {
			return err
		}
		switch {
		case sym < 16:
			all[i] = sym
			prev = sym
			i++
		case sym == 16:
			if i == 0 {
				return formatErrorf("repeat code 16 with no previous length")
			}
			n, err := f.br.ReadBits(2)
			if err != nil {
				return unexpectedEOF(err)
			}
			count := int(n) + 3
			if i+count > len(all) {
				return formatErrorf("code-length repeat overruns table")
			}
			for k := 0; k < count; k++ {
				all[i] = prev
				i++
			}
		case sym == 17:
			n, err := f.br.ReadBits(3)
			if err != nil {
				return unexpectedEOF(err)
			}
			count := int(n) + 3
			if i+count > len(all) {
				return formatErrorf("code-length repeat overruns table")
			}
			i += count
			prev = 0
		case sym == 18:
			n, err := f.br.ReadBits(7)
			if err != nil {
				return unexpectedEOF(err)
			}
			count := int(n) + 11
			if i+count > len(all) {
				return formatErrorf("code-length repeat overruns table")
			}
			i += count
			prev = 0
		default:
			return formatErrorf("invalid code-length symbol %d", sym)
		}
	}

	litLenLengths := make([]int, maxNumLit)
	copy(litLenLengths, all[:nlit])
	distLengths := make([]int, maxNumDist)
	copy(distLengths, all[nlit:])

	if !f.litLen.Init(litLenLengths) {
		return formatErrorf("invalid literal/length code lengths")
	}
	if !f.dist.Init(distLengths) {
		return formatErrorf("invalid distance code lengths")
	}
	f.step = (*Reader).huffmanStep
	return nil
}
