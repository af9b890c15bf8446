package flate

import (
	"github.com/ngrash/godeflate/huffman"
	"github.com/ngrash/godeflate/internal/lzmatch"
)

// clSymbol is one emitted code-length-alphabet symbol: either a literal
// length (0..15) or one of the three run-length codes, each carrying its
// own extra-bit field per RFC 1951 section 3.2.7.
type clSymbol struct {
	sym       int
	extra     uint32
	extraBits uint8
}

// tallyFrequencies tallies the symbols a token stream would produce,
// including one end-of-block marker, without yet committing to a Huffman
// table — used to compare candidate block encodings by cost before
// emitting any bits.
func tallyFrequencies(tokens []lzmatch.Token) (litLen [numLitLenSymbols]int64, dist [maxNumDist]int64) {
	for _, t := range tokens {
		if t.IsMatch() {
			lsym, _, _ := lengthCode(t.Length)
			litLen[lsym]++
			dsym, _, _ := distSymbol(t.Distance)
			dist[dsym]++
		} else {
			litLen[t.Literal]++
		}
	}
	litLen[endOfBlock]++
	return litLen, dist
}

// tokenBits sums the number of bits a token stream (plus its end-of-block
// marker) would occupy under the given literal/length and distance tables.
func tokenBits(tokens []lzmatch.Token, litEnc, distEnc *huffman.Encoder) int64 {
	var bits int64
	for _, t := range tokens {
		if t.IsMatch() {
			lsym, _, lb := lengthCode(t.Length)
			bits += int64(litEnc.Lengths[lsym]) + int64(lb)
			dsym, _, db := distSymbol(t.Distance)
			bits += int64(distEnc.Lengths[dsym]) + int64(db)
		} else {
			bits += int64(litEnc.Lengths[t.Literal])
		}
	}
	bits += int64(litEnc.Lengths[endOfBlock])
	return bits
}

// runLengthEncodeLengths applies RFC 1951 section 3.2.7's RLE scheme to the
// concatenation of litLen and dist code lengths, the same transform the
// decoder's readDynamicTables undoes.
func runLengthEncodeLengths(litLen, dist []uint8) []clSymbol {
	all := make([]uint8, 0, len(litLen)+len(dist))
	all = append(all, litLen...)
	all = append(all, dist...)

	var out []clSymbol
	i := 0
	for i < len(all) {
		v := all[i]
		total := 1
		for i+total < len(all) && all[i+total] == v {
			total++
		}
		if v == 0 {
			run := total
			for run > 0 {
				switch {
				case run >= 11:
					n := run
					if n > 138 {
						n = 138
					}
					out = append(out, clSymbol{18, uint32(n - 11), 7})
					run -= n
				case run >= 3:
					n := run
					if n > 10 {
						n = 10
					}
					out = append(out, clSymbol{17, uint32(n - 3), 3})
					run -= n
				default:
					out = append(out, clSymbol{0, 0, 0})
					run--
				}
			}
		} else {
			out = append(out, clSymbol{int(v), 0, 0})
			run := total - 1
			for run > 0 {
				n := run
				if n > 6 {
					n = 6
				}
				if n < 3 {
					for k := 0; k < n; k++ {
						out = append(out, clSymbol{int(v), 0, 0})
					}
				} else {
					out = append(out, clSymbol{16, uint32(n - 3), 2})
				}
				run -= n
			}
		}
		i += total
	}
	return out
}
