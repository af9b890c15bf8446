// Package window implements the 32 KiB sliding back-reference window used
// by the DEFLATE decoder: a ring buffer of the most recently emitted bytes,
// used to resolve length/distance back-references as they're decoded. The
// encoder's match finder (internal/lzmatch) keeps its own history slice for
// searching, since it needs random-access comparison across arbitrary
// offsets rather than append/resolve from the write head.
package window

// Size is the maximum DEFLATE back-reference distance (RFC 1951 section
// 3.2.1): a match may never reach further back than the last 32 KiB of
// output.
const Size = 1 << 15

// MaxMatchLength is the longest single back-reference DEFLATE can encode
// (RFC 1951 section 3.2.5, length code 285).
const MaxMatchLength = 258

// MinMatchLength is the shortest back-reference worth encoding; anything
// shorter is always cheaper as literals.
const MinMatchLength = 3

// Window is a ring buffer over the last Size bytes emitted to an output
// stream. Appending past capacity silently overwrites the oldest bytes,
// mirroring the DEFLATE invariant that distances beyond Size are never
// legal anyway.
type Window struct {
	buf   [Size]byte
	pos   int   // next write position, modulo Size
	total int64 // total bytes ever appended, for distance validation
}

// Total reports how many bytes have ever been appended, which bounds the
// legal distance for the next back-reference (min(Size, Total())).
func (w *Window) Total() int64 { return w.total }

// Append writes a single decoded or literal byte into the window.
func (w *Window) Append(b byte) {
	w.buf[w.pos] = b
	w.pos = (w.pos + 1) % Size
	w.total++
}

// AppendSlice writes p into the window in order; equivalent to calling
// Append for each byte but avoids the per-byte modulo when p fits in one
// contiguous span.
func (w *Window) AppendSlice(p []byte) {
	for len(p) > 0 {
		n := copy(w.buf[w.pos:], p)
		w.pos = (w.pos + n) % Size
		w.total += int64(n)
		p = p[n:]
	}
}

// CopyMatch appends a back-reference of length bytes starting distance
// bytes behind the current write position, calling emit for every byte so
// the caller can simultaneously feed a checksum or an output buffer.
// Overlapping copies (distance < length) are legal and handled byte by
// byte, since each newly appended byte immediately becomes visible to the
// next iteration's read.
func (w *Window) CopyMatch(distance, length int, emit func(byte)) {
	for i := 0; i < length; i++ {
		srcPos := (w.pos - distance + Size) % Size
		b := w.buf[srcPos]
		w.Append(b)
		emit(b)
	}
}
