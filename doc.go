// Package godeflate implements the DEFLATE compressed data format (RFC
// 1951) and the ZLIB (RFC 1950) and GZIP (RFC 1952) container formats built
// on top of it.
//
// The engine itself lives in the flate package: flate.Reader and
// flate.Writer encode and decode raw DEFLATE streams. The gzip and zlib
// packages wrap flate with their respective framing, checksums and
// trailers. bitio and huffman implement the bit-stream and canonical
// Huffman primitives the engine is built from; internal/window and
// internal/lzmatch implement the sliding window and LZ77 match finder.
package godeflate
