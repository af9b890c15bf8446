// Package zlib reads and writes the ZLIB container (RFC 1950) around a raw
// DEFLATE stream: a 2-byte CMF/FLG header, an optional preset-dictionary ID,
// and a big-endian Adler-32 trailer.
package zlib

import (
	"errors"
	"fmt"
)

const (
	cmDeflate  = 8
	cinfo32KiB = 7 // CINFO for a 32 KiB window, RFC 1950 section 2.2

	flagFDICT = 1 << 5
)

// ErrHeader reports a CMF/FLG header byte pair that fails the mod-31 check.
var ErrHeader = errors.New("zlib: invalid header")

// ChecksumError reports that the trailing Adler-32 does not match the
// decompressed data actually produced.
type ChecksumError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("zlib: adler32 mismatch: expected %#08x, got %#08x", e.Expected, e.Actual)
}

// UnsupportedFeatureError reports a well-formed ZLIB header this package
// cannot decode: a compression method other than DEFLATE, or a window size
// (CINFO) larger than 32 KiB.
type UnsupportedFeatureError struct {
	Detail string
}

func (e *UnsupportedFeatureError) Error() string { return "zlib: unsupported: " + e.Detail }

// ErrDictionary reports a header whose FDICT bit is set but for which the
// caller supplied no matching dictionary (or supplied one with a different
// Adler-32 id) to NewReaderDict. It is an *UnsupportedFeatureError so both
// equality checks against the sentinel and errors.As on the type work.
var ErrDictionary error = &UnsupportedFeatureError{Detail: "stream requires a preset dictionary"}

// fcheck takes cmf and flg with its low 5 (FCHECK) bits still zero, and
// returns flg with those bits set so that (cmf<<8 | flg) is a multiple of
// 31, per RFC 1950 section 2.2.
func fcheck(cmf, flg byte) byte {
	rem := (int(cmf)<<8 | int(flg)) % 31
	if rem == 0 {
		return flg
	}
	return flg | byte(31-rem)
}
