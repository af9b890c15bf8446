package flate

import (
	"bufio"
	"io"

	"github.com/ngrash/godeflate/bitio"
	"github.com/ngrash/godeflate/huffman"
	"github.com/ngrash/godeflate/internal/lzmatch"
)

// maxBlockBytes bounds how much raw input one block covers: large enough
// to amortize a dynamic block's header cost, small enough to keep a stored
// block's 16-bit LEN field valid without chunking.
const maxBlockBytes = 1 << 16 - 1

var fixedLitLenEncoder, fixedDistEncoder *huffman.Encoder

func init() {
	litLens := toUint8(fixedLitLenLengths())
	distLens := toUint8(fixedDistLengths())
	fixedLitLenEncoder = &huffman.Encoder{Codes: huffman.AssignCodes(litLens), Lengths: litLens}
	fixedDistEncoder = &huffman.Encoder{Codes: huffman.AssignCodes(distLens), Lengths: distLens}
}

func toUint8(in []int) []uint8 {
	out := make([]uint8, len(in))
	for i, v := range in {
		out[i] = uint8(v)
	}
	return out
}

// Writer is the push-style DEFLATE encoder: callers write raw bytes, and
// the Writer batches them into blocks, compares the stored/fixed/dynamic
// encodings' measured bit cost and emits whichever is cheapest.
type Writer struct {
	bw      *bitio.Writer
	bufw    *bufio.Writer // non-nil when w itself wasn't an io.ByteWriter
	level   Level
	matcher *lzmatch.Matcher

	buf []byte

	err    error
	closed bool
}

// NewWriter returns a Writer that emits a raw DEFLATE stream to w at the
// given compression level.
func NewWriter(w io.Writer, level Level) *Writer {
	bw, bufw := asByteWriter(w)
	return &Writer{
		bw:      bitio.NewWriter(bw),
		bufw:    bufw,
		level:   level,
		matcher: lzmatch.NewMatcher(level.matcherLevel()),
	}
}

// SetDictionary primes the match finder with dict, as if dict had just been
// written, so the first block written afterward may reference it. It must
// be called before the first Write. Used by zlib.NewWriterLevelDict.
func (w *Writer) SetDictionary(dict []byte) {
	w.matcher.SetHistory(dict)
}

func asByteWriter(w io.Writer) (io.ByteWriter, *bufio.Writer) {
	if bw, ok := w.(io.ByteWriter); ok {
		return bw, nil
	}
	bufw := bufio.NewWriter(w)
	return bufw, bufw
}

// Write buffers p, flushing completed blocks as the internal buffer fills.
// It never returns a short write without an error.
func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	total := len(p)
	for len(p) > 0 {
		room := maxBlockBytes - len(w.buf)
		n := len(p)
		if n > room {
			n = room
		}
		w.buf = append(w.buf, p[:n]...)
		p = p[n:]
		if len(w.buf) >= maxBlockBytes {
			if err := w.emitBlock(false); err != nil {
				w.err = err
				return total - len(p), err
			}
		}
	}
	return total, nil
}

// Flush emits any buffered data as a non-final block (choosing the cheapest
// encoding, like any other block), then always an empty non-final stored
// block, and pads to a byte boundary, so a reader can recover everything
// written so far without waiting for Close. This is DEFLATE's conventional
// sync-flush mechanism.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if len(w.buf) > 0 {
		if err := w.emitBlock(false); err != nil {
			w.err = err
			return err
		}
	}
	if err := w.writeStoredBlock(nil, false); err != nil {
		w.err = err
		return err
	}
	return w.flushBits()
}

// Close emits the final block (BFINAL=1) and flushes any partial trailing
// byte. It is safe to call multiple times.
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true
	if w.err != nil {
		return w.err
	}
	if err := w.emitBlock(true); err != nil {
		w.err = err
		return err
	}
	return w.flushBits()
}

func (w *Writer) flushBits() error {
	if err := w.bw.PadToByte(); err != nil {
		w.err = err
		return err
	}
	if w.bufw != nil {
		if err := w.bufw.Flush(); err != nil {
			w.err = err
			return err
		}
	}
	return nil
}

// emitBlock encodes and writes the buffered data as one block, selecting
// the cheapest of stored, fixed-Huffman and dynamic-Huffman representations
// (LevelNone always picks stored).
func (w *Writer) emitBlock(final bool) error {
	data := w.buf
	w.buf = nil

	if w.level == LevelNone {
		return w.writeStoredBlock(data, final)
	}

	tokens := w.matcher.Next(data)
	litFreq, distFreq := tallyFrequencies(tokens)

	storedBits := int64(3+7) + 32 + 8*int64(len(data))
	fixedBits := int64(3) + tokenBits(tokens, fixedLitLenEncoder, fixedDistEncoder)

	dyn := buildDynamicTables(litFreq[:], distFreq[:])
	dynamicBits := int64(3) + dyn.headerBits() + tokenBits(tokens, dyn.litLen, dyn.dist)

	switch {
	case storedBits <= fixedBits && storedBits <= dynamicBits:
		return w.writeStoredBlock(data, final)
	case fixedBits <= dynamicBits:
		return w.writeHuffmanTokens(tokens, final, 1, fixedLitLenEncoder, fixedDistEncoder, nil)
	default:
		return w.writeHuffmanTokens(tokens, final, 2, dyn.litLen, dyn.dist, dyn)
	}
}

func (w *Writer) writeBlockHeader(final bool, btype uint32) error {
	var f uint32
	if final {
		f = 1
	}
	if err := w.bw.WriteBits(f, 1); err != nil {
		return err
	}
	return w.bw.WriteBits(btype, 2)
}

func (w *Writer) writeStoredBlock(data []byte, final bool) error {
	if err := w.writeBlockHeader(final, 0); err != nil {
		return err
	}
	if err := w.bw.PadToByte(); err != nil {
		return err
	}
	length := uint16(len(data))
	if err := w.writeU16LE(length); err != nil {
		return err
	}
	if err := w.writeU16LE(length ^ 0xFFFF); err != nil {
		return err
	}
	for _, b := range data {
		if err := w.bw.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeU16LE(v uint16) error {
	if err := w.bw.WriteByte(byte(v)); err != nil {
		return err
	}
	return w.bw.WriteByte(byte(v >> 8))
}

func (w *Writer) writeHuffmanTokens(tokens []lzmatch.Token, final bool, btype uint32, litEnc, distEnc *huffman.Encoder, dyn *dynamicTables) error {
	if err := w.writeBlockHeader(final, btype); err != nil {
		return err
	}
	if dyn != nil {
		if err := w.writeDynamicHeader(dyn); err != nil {
			return err
		}
	}
	for _, t := range tokens {
		if t.IsMatch() {
			lsym, lextra, lbits := lengthCode(t.Length)
			if err := w.writeSymbol(litEnc, lsym); err != nil {
				return err
			}
			if lbits > 0 {
				if err := w.bw.WriteBits(lextra, lbits); err != nil {
					return err
				}
			}
			dsym, dextra, dbits := distSymbol(t.Distance)
			if err := w.writeSymbol(distEnc, dsym); err != nil {
				return err
			}
			if dbits > 0 {
				if err := w.bw.WriteBits(dextra, dbits); err != nil {
					return err
				}
			}
		} else {
			if err := w.writeSymbol(litEnc, int(t.Literal)); err != nil {
				return err
			}
		}
	}
	return w.writeSymbol(litEnc, endOfBlock)
}

func (w *Writer) writeSymbol(enc *huffman.Encoder, sym int) error {
	return w.bw.WriteBits(uint32(enc.Codes[sym]), enc.Lengths[sym])
}

func (w *Writer) writeDynamicHeader(dyn *dynamicTables) error {
	if err := w.bw.WriteBits(uint32(dyn.nlit-257), 5); err != nil {
		return err
	}
	if err := w.bw.WriteBits(uint32(dyn.ndist-1), 5); err != nil {
		return err
	}
	if err := w.bw.WriteBits(uint32(dyn.hclen-4), 4); err != nil {
		return err
	}
	for i := 0; i < dyn.hclen; i++ {
		if err := w.bw.WriteBits(uint32(dyn.clEnc.Lengths[codeLengthOrder[i]]), 3); err != nil {
			return err
		}
	}
	for _, s := range dyn.clSyms {
		if err := w.writeSymbol(dyn.clEnc, s.sym); err != nil {
			return err
		}
		if s.extraBits > 0 {
			if err := w.bw.WriteBits(s.extra, s.extraBits); err != nil {
				return err
			}
		}
	}
	return nil
}
