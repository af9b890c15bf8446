package gzip

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/ngrash/godeflate/flate"
)

// Reader decompresses a GZIP stream. By default it transparently
// concatenates multiple back-to-back members, as RFC 1952 section 2.2
// permits and gzip(1) itself produces for multi-file archives; call
// Multistream(false) to stop after the first member instead.
type Reader struct {
	r      *bufio.Reader
	Header Header

	fr          *flate.Reader
	crc         uint32 // running CRC-32 of decompressed bytes
	size        uint32 // running uncompressed size, mod 2^32
	multistream bool

	err error
}

// NewReader returns a Reader for the GZIP stream starting at r, reading and
// validating the first member's header immediately.
func NewReader(r io.Reader) (*Reader, error) {
	z := &Reader{r: bufio.NewReader(r), multistream: true}
	if err := z.readHeader(); err != nil {
		return nil, err
	}
	return z, nil
}

// Multistream controls whether Read continues into subsequent GZIP members
// once the current one's trailer has been verified.
func (z *Reader) Multistream(ok bool) { z.multistream = ok }

func (z *Reader) readHeader() error {
	var hdr [10]byte
	if _, err := io.ReadFull(z.r, hdr[:]); err != nil {
		if err == io.EOF {
			return err
		}
		return unexpectedEOF(err)
	}
	if hdr[0] != magic1 || hdr[1] != magic2 {
		return ErrHeader
	}
	if hdr[2] != deflateMethod {
		return &UnsupportedFeatureError{Detail: fmt.Sprintf("compression method %d", hdr[2])}
	}
	flg := hdr[3]
	z.Header = Header{
		ModTime: mtimeToTime(binary.LittleEndian.Uint32(hdr[4:8])),
		OS:      hdr[9],
		Text:    flg&flagText != 0,
	}

	hasher := crc32.NewIEEE()
	hasher.Write(hdr[:])

	if flg&flagExtra != 0 {
		var lenBuf [2]byte
		if _, err := io.ReadFull(z.r, lenBuf[:]); err != nil {
			return unexpectedEOF(err)
		}
		hasher.Write(lenBuf[:])
		n := binary.LittleEndian.Uint16(lenBuf[:])
		extra := make([]byte, n)
		if _, err := io.ReadFull(z.r, extra); err != nil {
			return unexpectedEOF(err)
		}
		hasher.Write(extra)
		z.Header.Extra = extra
	}
	if flg&flagName != 0 {
		s, err := readCString(z.r, hasher)
		if err != nil {
			return err
		}
		z.Header.Name = s
	}
	if flg&flagComment != 0 {
		s, err := readCString(z.r, hasher)
		if err != nil {
			return err
		}
		z.Header.Comment = s
	}
	if flg&flagHCRC != 0 {
		var want [2]byte
		if _, err := io.ReadFull(z.r, want[:]); err != nil {
			return unexpectedEOF(err)
		}
		wantCRC := uint32(binary.LittleEndian.Uint16(want[:]))
		gotCRC := hasher.Sum32() & 0xffff
		if wantCRC != gotCRC {
			return &ChecksumError{Kind: "header-crc", Expected: wantCRC, Actual: gotCRC}
		}
		z.Header.HeaderChecksum = true
	}

	z.fr = flate.NewReader(z.r)
	z.crc = 0
	z.size = 0
	return nil
}

func readCString(r *bufio.Reader, hasher interface{ Write([]byte) (int, error) }) (string, error) {
	s, err := r.ReadString(0)
	if err != nil {
		return "", unexpectedEOF(err)
	}
	hasher.Write([]byte(s))
	return s[:len(s)-1], nil
}

// Read implements io.Reader, decompressing the current member and, once its
// trailer is verified, transparently moving on to the next member when
// Multistream is enabled (the default).
func (z *Reader) Read(p []byte) (int, error) {
	if z.err != nil {
		return 0, z.err
	}
	for {
		n, err := z.fr.Read(p)
		if n > 0 {
			z.crc = crc32.Update(z.crc, crc32.IEEETable, p[:n])
			z.size += uint32(n)
			return n, nil
		}
		if err == io.EOF {
			if verr := z.verifyTrailer(); verr != nil {
				z.err = verr
				return 0, verr
			}
			if !z.multistream {
				z.err = io.EOF
				return 0, io.EOF
			}
			if herr := z.readHeader(); herr != nil {
				if herr == io.EOF {
					z.err = io.EOF
					return 0, io.EOF
				}
				z.err = herr
				return 0, herr
			}
			continue
		}
		z.err = err
		return 0, err
	}
}

func (z *Reader) verifyTrailer() error {
	trailer, err := readExact(z.r, z.fr.Unbuffer(), 8)
	if err != nil {
		return err
	}
	wantCRC := binary.LittleEndian.Uint32(trailer[0:4])
	wantSize := binary.LittleEndian.Uint32(trailer[4:8])
	if wantCRC != z.crc {
		return &ChecksumError{Kind: "crc32", Expected: wantCRC, Actual: z.crc}
	}
	if wantSize != z.size {
		return &ChecksumError{Kind: "isize", Expected: wantSize, Actual: z.size}
	}
	return nil
}

// readExact returns exactly n bytes, taking pre first (bytes the bit reader
// had already pulled from r but not consumed) and reading the remainder
// directly from r.
func readExact(r io.Reader, pre []byte, n int) ([]byte, error) {
	out := make([]byte, n)
	k := copy(out, pre)
	if k < n {
		if _, err := io.ReadFull(r, out[k:]); err != nil {
			return nil, unexpectedEOF(err)
		}
	}
	return out, nil
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
