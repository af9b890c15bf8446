package flate

import (
	"bufio"
	"io"

	"github.com/ngrash/godeflate/bitio"
	"github.com/ngrash/godeflate/huffman"
	"github.com/ngrash/godeflate/internal/window"
)

// Reader is the pull-style DEFLATE decoder: Read fills the caller's
// buffer with up to len(p) decoded bytes, returning 0 and io.EOF once the
// final block has been fully consumed. Each step decodes at most one
// block header, one stored chunk or one symbol, so no more than one
// block's worth of Huffman tables is ever live at a time.
type Reader struct {
	br  *bitio.Reader
	win window.Window

	final bool // BFINAL seen for the block currently in progress
	done  bool

	step func(*Reader) error

	litLen huffman.Decoder
	dist   huffman.Decoder

	storedRemaining int

	buf    []byte // bytes produced by the most recent step, not yet returned
	bufPos int

	err error
}

var fixedLitLen, fixedDist huffman.Decoder

func init() {
	fixedLitLen.Init(fixedLitLenLengths())
	fixedDist.Init(fixedDistLengths())
}

// NewReader returns a Reader that decodes a single raw DEFLATE stream from r.
func NewReader(r io.Reader) *Reader {
	f := &Reader{}
	f.Reset(r)
	return f
}

// Reset rebinds f to decode a new stream from r, discarding all decoder
// state including the sliding window, so a single Reader value can be
// reused across many independent DEFLATE streams without reallocating.
func (f *Reader) Reset(r io.Reader) {
	*f = Reader{
		br:   bitio.NewReader(asByteReader(r)),
		step: (*Reader).readBlockHeader,
	}
}

// Unbuffer aligns to a byte boundary and returns any whole bytes already
// pulled from the underlying source but not yet logically consumed by the
// DEFLATE bitstream, in stream order. A container format reader (gzip,
// zlib) that reads a trailer directly from the same underlying source after
// Read returns io.EOF must prepend these bytes to what it reads next.
func (f *Reader) Unbuffer() []byte {
	return f.br.Buffered()
}

// SetDictionary primes the sliding window with dict, as if dict had just
// been decoded, without making those bytes available for output. It must be
// called before the first Read. Used by zlib.NewReaderDict to honor a
// preset dictionary (RFC 1950 section 2.3).
func (f *Reader) SetDictionary(dict []byte) {
	f.win.AppendSlice(dict)
}

func asByteReader(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}

// Read implements io.Reader.
func (f *Reader) Read(p []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for n < len(p) {
		if f.bufPos < len(f.buf) {
			c := copy(p[n:], f.buf[f.bufPos:])
			f.bufPos += c
			n += c
			continue
		}
		if f.done {
			if n > 0 {
				return n, nil
			}
			f.err = io.EOF
			return 0, io.EOF
		}
		f.buf = f.buf[:0]
		f.bufPos = 0
		if err := f.step(f); err != nil {
			f.err = err
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
	}
	return n, nil
}

// emit appends a decoded byte both to the sliding window (so future
// back-references can reach it) and to the pending output buffer Read
// drains from.
func (f *Reader) emit(b byte) {
	f.win.Append(b)
	f.buf = append(f.buf, b)
}

func (f *Reader) readBlockHeader() error {
	final, err := f.br.ReadBits(1)
	if err != nil {
		return unexpectedEOF(err)
	}
	btype, err := f.br.ReadBits(2)
	if err != nil {
		return unexpectedEOF(err)
	}
	f.final = final == 1

	switch btype {
	case 0:
		return f.startStoredBlock()
	case 1:
		f.litLen = fixedLitLen
		f.dist = fixedDist
		f.step = (*Reader).huffmanStep
		return nil
	case 2:
		return f.readDynamicTables()
	default:
		return formatErrorf("reserved block type 3")
	}
}

func (f *Reader) startStoredBlock() error {
	f.br.AlignToByte()
	length, err := f.readU16LE()
	if err != nil {
		return err
	}
	nlen, err := f.readU16LE()
	if err != nil {
		return err
	}
	if length != nlen^0xFFFF {
		return formatErrorf("stored block LEN %d does not complement NLEN %d", length, nlen)
	}
	f.storedRemaining = length
	f.step = (*Reader).storedStep
	return nil
}

func (f *Reader) readU16LE() (int, error) {
	lo, err := f.br.ReadByte()
	if err != nil {
		return 0, unexpectedEOF(err)
	}
	hi, err := f.br.ReadByte()
	if err != nil {
		return 0, unexpectedEOF(err)
	}
	return int(lo) | int(hi)<<8, nil
}

const storedChunk = 4096

func (f *Reader) storedStep() error {
	if f.storedRemaining == 0 {
		return f.finishBlock()
	}
	n := f.storedRemaining
	if n > storedChunk {
		n = storedChunk
	}
	for i := 0; i < n; i++ {
		b, err := f.br.ReadByte()
		if err != nil {
			return unexpectedEOF(err)
		}
		f.emit(b)
	}
	f.storedRemaining -= n
	return nil
}

// decodeSym decodes one symbol from d, translating an undefined bit
// pattern (possible only with degenerate single-code trees) into this
// package's structural-error type.
func (f *Reader) decodeSym(d *huffman.Decoder) (int, error) {
	sym, err := d.Decode(f.br)
	if err == huffman.ErrInvalidSymbol {
		return 0, formatErrorf("bit sequence matches no code in table")
	}
	return sym, err
}

func (f *Reader) huffmanStep() error {
	sym, err := f.decodeSym(&f.litLen)
	if err != nil {
		return err
	}
	switch {
	case sym < 256:
		f.emit(byte(sym))
		return nil
	case sym == endOfBlock:
		return f.finishBlock()
	case sym < maxNumLit:
		return f.copyMatch(sym)
	default:
		return formatErrorf("invalid length symbol %d", sym)
	}
}

func (f *Reader) copyMatch(lenSym int) error {
	li := lenSym - 257
	if li < 0 || li >= len(lengthBase) {
		return formatErrorf("invalid length symbol %d", lenSym)
	}
	extra, err := f.br.ReadBits(lengthExtraBits[li])
	if err != nil {
		return unexpectedEOF(err)
	}
	length := lengthBase[li] + int(extra)

	distSym, err := f.decodeSym(&f.dist)
	if err != nil {
		return err
	}
	if distSym >= maxNumDist {
		return formatErrorf("invalid distance symbol %d", distSym)
	}
	distExtra, err := f.br.ReadBits(distExtraBits[distSym])
	if err != nil {
		return unexpectedEOF(err)
	}
	distance := distBase[distSym] + int(distExtra)

	if int64(distance) > f.win.Total() || distance > window.Size {
		return formatErrorf("distance %d exceeds %d bytes emitted so far", distance, f.win.Total())
	}

	f.win.CopyMatch(distance, length, func(b byte) { f.buf = append(f.buf, b) })
	return nil
}

func (f *Reader) finishBlock() error {
	if f.final {
		f.done = true
		return nil
	}
	f.step = (*Reader).readBlockHeader
	return nil
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
