package gzip

import (
	"encoding/binary"
	"hash"
	"hash/crc32"
	"io"

	"github.com/ngrash/godeflate/flate"
)

// Writer compresses a single GZIP member to an underlying io.Writer. Set
// fields on Header before the first Write to control the optional name,
// comment, extra and modification-time fields; Header is written lazily on
// the first Write or on Close if nothing was ever written.
type Writer struct {
	w      io.Writer
	Header Header
	level  flate.Level

	fw   *flate.Writer
	crc  uint32
	size uint32

	wroteHeader bool
	closed      bool
	err         error
}

// NewWriter returns a Writer at flate.LevelBalanced. NewWriterLevel lets the
// caller pick a different effort.
func NewWriter(w io.Writer) *Writer {
	return NewWriterLevel(w, flate.LevelBalanced)
}

// NewWriterLevel returns a Writer using the given compression level.
func NewWriterLevel(w io.Writer, level flate.Level) *Writer {
	return &Writer{w: w, level: level, Header: Header{OS: OSUnknown}}
}

// xflFor maps the compression level onto the informational XFL hints RFC
// 1952 section 2.3.1 defines: 2 for slowest/strongest, 4 for fastest.
func xflFor(level flate.Level) byte {
	switch level {
	case flate.LevelBest:
		return 2
	case flate.LevelFast, flate.LevelNone:
		return 4
	default:
		return 0
	}
}

func (z *Writer) writeHeaderOnce() error {
	if z.wroteHeader {
		return nil
	}
	z.wroteHeader = true

	flg := byte(0)
	if z.Header.Text {
		flg |= flagText
	}
	if len(z.Header.Extra) > 0 {
		flg |= flagExtra
	}
	if z.Header.Name != "" {
		flg |= flagName
	}
	if z.Header.Comment != "" {
		flg |= flagComment
	}
	if z.Header.HeaderChecksum {
		flg |= flagHCRC
	}

	var hasher hash.Hash32
	if z.Header.HeaderChecksum {
		hasher = crc32.NewIEEE()
	}
	w := io.Writer(z.w)
	if hasher != nil {
		w = io.MultiWriter(z.w, hasher)
	}

	var hdr [10]byte
	hdr[0], hdr[1] = magic1, magic2
	hdr[2] = deflateMethod
	hdr[3] = flg
	binary.LittleEndian.PutUint32(hdr[4:8], timeToMTIME(z.Header.ModTime))
	hdr[8] = xflFor(z.level)
	hdr[9] = z.Header.OS
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	if len(z.Header.Extra) > 0 {
		if len(z.Header.Extra) > 1<<16-1 {
			return ErrHeader
		}
		var n [2]byte
		binary.LittleEndian.PutUint16(n[:], uint16(len(z.Header.Extra)))
		if _, err := w.Write(n[:]); err != nil {
			return err
		}
		if _, err := w.Write(z.Header.Extra); err != nil {
			return err
		}
	}
	if z.Header.Name != "" {
		if _, err := io.WriteString(w, z.Header.Name); err != nil {
			return err
		}
		if _, err := w.Write([]byte{0}); err != nil {
			return err
		}
	}
	if z.Header.Comment != "" {
		if _, err := io.WriteString(w, z.Header.Comment); err != nil {
			return err
		}
		if _, err := w.Write([]byte{0}); err != nil {
			return err
		}
	}
	if hasher != nil {
		var want [2]byte
		binary.LittleEndian.PutUint16(want[:], uint16(hasher.Sum32()))
		if _, err := z.w.Write(want[:]); err != nil {
			return err
		}
	}

	z.fw = flate.NewWriter(z.w, z.level)
	return nil
}

// Write implements io.Writer, compressing p into the current member.
func (z *Writer) Write(p []byte) (int, error) {
	if z.err != nil {
		return 0, z.err
	}
	if err := z.writeHeaderOnce(); err != nil {
		z.err = err
		return 0, err
	}
	n, err := z.fw.Write(p)
	if n > 0 {
		z.crc = crc32.Update(z.crc, crc32.IEEETable, p[:n])
		z.size += uint32(n)
	}
	if err != nil {
		z.err = err
	}
	return n, err
}

// Flush flushes any buffered data without ending the member, so a partial
// read can recover everything written so far.
func (z *Writer) Flush() error {
	if z.err != nil {
		return z.err
	}
	if err := z.writeHeaderOnce(); err != nil {
		z.err = err
		return err
	}
	return z.fw.Flush()
}

// Close finishes the current member: flushes the DEFLATE stream and writes
// the CRC-32 + ISIZE trailer. It is safe to call multiple times.
func (z *Writer) Close() error {
	if z.closed {
		return z.err
	}
	z.closed = true
	if z.err != nil {
		return z.err
	}
	if err := z.writeHeaderOnce(); err != nil {
		z.err = err
		return err
	}
	if err := z.fw.Close(); err != nil {
		z.err = err
		return err
	}
	var trailer [8]byte
	binary.LittleEndian.PutUint32(trailer[0:4], z.crc)
	binary.LittleEndian.PutUint32(trailer[4:8], z.size)
	if _, err := z.w.Write(trailer[:]); err != nil {
		z.err = err
		return err
	}
	return nil
}
