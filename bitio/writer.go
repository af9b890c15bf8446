package bitio

import "io"

// Writer packs LSB-first bits into bytes written to an underlying sink.
type Writer struct {
	dst io.ByteWriter

	buf     uint64
	bitsBuf uint8

	err error
}

// NewWriter wraps dst.
func NewWriter(dst io.ByteWriter) *Writer {
	return &Writer{dst: dst}
}

// Reset rebinds the writer to dst. Any unflushed bits are discarded; callers
// that care must PadToByte first.
func (w *Writer) Reset(dst io.ByteWriter) {
	w.dst = dst
	w.buf = 0
	w.bitsBuf = 0
	w.err = nil
}

// WriteBits packs the low n bits of v, flushing whole bytes out to dst as
// the accumulator fills. n must be <= maxPeek.
func (w *Writer) WriteBits(v uint32, n uint8) error {
	if w.err != nil {
		return w.err
	}
	w.buf |= uint64(v&(1<<n-1)) << w.bitsBuf
	w.bitsBuf += n
	for w.bitsBuf >= 8 {
		if err := w.dst.WriteByte(byte(w.buf)); err != nil {
			w.err = err
			return err
		}
		w.buf >>= 8
		w.bitsBuf -= 8
	}
	return nil
}

// PadToByte flushes a final partial byte (zero-padded in the high bits),
// leaving the writer byte-aligned. A no-op if already aligned.
func (w *Writer) PadToByte() error {
	if w.bitsBuf == 0 {
		return nil
	}
	return w.WriteBits(0, 8-w.bitsBuf)
}

// WriteByte writes one aligned byte; callers must PadToByte first if the
// accumulator may hold a partial byte, as stored blocks require.
func (w *Writer) WriteByte(b byte) error {
	if w.bitsBuf != 0 {
		return w.WriteBits(uint32(b), 8)
	}
	if w.err != nil {
		return w.err
	}
	if err := w.dst.WriteByte(b); err != nil {
		w.err = err
		return err
	}
	return nil
}

// Err returns the first error encountered while writing.
func (w *Writer) Err() error { return w.err }
