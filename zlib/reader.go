package zlib

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash"
	"hash/adler32"
	"io"

	"github.com/ngrash/godeflate/flate"
)

// Reader decompresses a single ZLIB stream.
type Reader struct {
	r   byteReader
	fr  *flate.Reader
	adl hash.Hash32

	err error
}

// byteReader is what the framer needs from its source: byte-at-a-time reads
// for the DEFLATE bit stream and bulk reads for the header and trailer. If
// the caller's reader doesn't provide it, a bufio.Reader is interposed —
// necessarily here, not inside flate, so the trailer bytes end up buffered
// where verifyTrailer can still reach them.
type byteReader interface {
	io.Reader
	io.ByteReader
}

func asByteReader(r io.Reader) byteReader {
	if br, ok := r.(byteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}

// NewReader returns a Reader for the ZLIB stream starting at r. It returns
// ErrDictionary if the header declares a preset dictionary; use
// NewReaderDict for those streams.
func NewReader(r io.Reader) (*Reader, error) {
	return NewReaderDict(r, nil)
}

// NewReaderDict is like NewReader but supplies a preset dictionary, which
// must match the Adler-32 id recorded in the header if the header declares
// one (ErrDictionary otherwise). A stream whose header does not set FDICT
// ignores dict entirely.
func NewReaderDict(r io.Reader, dict []byte) (*Reader, error) {
	src := asByteReader(r)
	var hdr [2]byte
	if _, err := io.ReadFull(src, hdr[:]); err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, unexpectedEOF(err)
	}
	cmf, flg := hdr[0], hdr[1]
	if cmf&0x0F != cmDeflate {
		return nil, &UnsupportedFeatureError{Detail: fmt.Sprintf("compression method %d", cmf&0x0F)}
	}
	if cmf>>4 > cinfo32KiB {
		return nil, &UnsupportedFeatureError{Detail: fmt.Sprintf("window size CINFO=%d exceeds 32 KiB", cmf>>4)}
	}
	if (int(cmf)<<8|int(flg))%31 != 0 {
		return nil, ErrHeader
	}

	if flg&flagFDICT != 0 {
		var id [4]byte
		if _, err := io.ReadFull(src, id[:]); err != nil {
			return nil, unexpectedEOF(err)
		}
		if dict == nil || adler32.Checksum(dict) != binary.BigEndian.Uint32(id[:]) {
			return nil, ErrDictionary
		}
	}

	fr := flate.NewReader(src)
	if flg&flagFDICT != 0 && len(dict) > 0 {
		fr.SetDictionary(dict)
	}

	return &Reader{r: src, fr: fr, adl: adler32.New()}, nil
}

// Read implements io.Reader.
func (z *Reader) Read(p []byte) (int, error) {
	if z.err != nil {
		return 0, z.err
	}
	n, err := z.fr.Read(p)
	if n > 0 {
		z.adl.Write(p[:n])
	}
	if err == io.EOF {
		if verr := z.verifyTrailer(); verr != nil {
			z.err = verr
			return n, verr
		}
		z.err = io.EOF
		if n > 0 {
			return n, nil
		}
		return 0, io.EOF
	}
	if err != nil {
		z.err = err
	}
	return n, err
}

func (z *Reader) verifyTrailer() error {
	trailer, err := readExact(z.r, z.fr.Unbuffer(), 4)
	if err != nil {
		return err
	}
	want := binary.BigEndian.Uint32(trailer)
	got := z.adl.Sum32()
	if want != got {
		return &ChecksumError{Expected: want, Actual: got}
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
