package zlib

import (
	"encoding/binary"
	"hash"
	"hash/adler32"
	"io"

	"github.com/ngrash/godeflate/flate"
)

// Writer compresses to a single ZLIB stream.
type Writer struct {
	w     io.Writer
	level flate.Level
	dict  []byte

	fw          *flate.Writer
	adl         hash.Hash32
	wroteHeader bool
	closed      bool
	err         error
}

// NewWriter returns a Writer at flate.LevelBalanced with no preset
// dictionary.
func NewWriter(w io.Writer) *Writer {
	return NewWriterLevelDict(w, flate.LevelBalanced, nil)
}

// NewWriterLevel is like NewWriter but selects the compression level.
func NewWriterLevel(w io.Writer, level flate.Level) *Writer {
	return NewWriterLevelDict(w, level, nil)
}

// NewWriterLevelDict is like NewWriterLevel but primes the DEFLATE stream
// with a preset dictionary: the header records dict's Adler-32 id (FDICT),
// and the encoder may emit back-references into it.
func NewWriterLevelDict(w io.Writer, level flate.Level, dict []byte) *Writer {
	return &Writer{w: w, level: level, dict: dict, adl: adler32.New()}
}

// flevelFor maps the compression level onto the informational FLEVEL field
// (RFC 1950 section 2.2): 0 fastest through 3 slowest/strongest.
func flevelFor(level flate.Level) byte {
	switch level {
	case flate.LevelNone, flate.LevelFast:
		return 1
	case flate.LevelBest:
		return 3
	default:
		return 2
	}
}

func (z *Writer) writeHeaderOnce() error {
	if z.wroteHeader {
		return nil
	}
	z.wroteHeader = true

	cmf := byte(cinfo32KiB<<4) | cmDeflate
	flg := flevelFor(z.level) << 6
	if len(z.dict) > 0 {
		flg |= flagFDICT
	}
	flg = fcheck(cmf, flg)

	if _, err := z.w.Write([]byte{cmf, flg}); err != nil {
		return err
	}
	if len(z.dict) > 0 {
		var id [4]byte
		binary.BigEndian.PutUint32(id[:], adler32.Checksum(z.dict))
		if _, err := z.w.Write(id[:]); err != nil {
			return err
		}
	}

	z.fw = flate.NewWriter(z.w, z.level)
	if len(z.dict) > 0 {
		z.fw.SetDictionary(z.dict)
	}
	return nil
}

// Write implements io.Writer.
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
		z.adl.Write(p[:n])
	}
	if err != nil {
		z.err = err
	}
	return n, err
}

// Flush flushes buffered data without ending the stream.
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

// Close finishes the DEFLATE stream and writes the big-endian Adler-32
// trailer. Safe to call multiple times.
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
	var trailer [4]byte
	binary.BigEndian.PutUint32(trailer[:], z.adl.Sum32())
	if _, err := z.w.Write(trailer[:]); err != nil {
		z.err = err
		return err
	}
	return nil
}
