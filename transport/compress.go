package transport

import (
	"fmt"

	"github.com/klauspost/compress/s2"
	"github.com/pierrec/lz4/v4"
)

// CompressionAlgorithm selects the STARTUP COMPRESSION option negotiated
// for a connection.
type CompressionAlgorithm uint8

const (
	CompressionNone CompressionAlgorithm = iota
	CompressionSnappy
	CompressionLZ4
)

// Compressor compresses/decompresses frame bodies once FlagCompression has
// been negotiated via STARTUP.
type Compressor interface {
	Compress(p []byte) ([]byte, error)
	Decompress(p []byte) ([]byte, error)
}

func compressorFor(alg CompressionAlgorithm) Compressor {
	switch alg {
	case CompressionSnappy:
		return snappyCompressor{}
	case CompressionLZ4:
		return lz4Compressor{}
	default:
		return nil
	}
}

func compressionName(alg CompressionAlgorithm) string {
	switch alg {
	case CompressionSnappy:
		return "snappy"
	case CompressionLZ4:
		return "lz4"
	default:
		return ""
	}
}

// snappyCompressor speaks the wire-compatible snappy framing via s2, which
// decodes plain snappy streams and can emit them with EncodeSnappy.
type snappyCompressor struct{}

func (snappyCompressor) Compress(p []byte) ([]byte, error) {
	return s2.EncodeSnappy(nil, p), nil
}

func (snappyCompressor) Decompress(p []byte) ([]byte, error) {
	out, err := s2.Decode(nil, p)
	if err != nil {
		return nil, fmt.Errorf("snappy decode: %w", err)
	}
	return out, nil
}

// lz4Compressor implements CQL's lz4 framing: a 4-byte big-endian
// uncompressed-length prefix followed by a raw LZ4 block (no LZ4 frame
// header), per the native protocol's COMPRESSION spec.
type lz4Compressor struct{}

func (lz4Compressor) Compress(p []byte) ([]byte, error) {
	buf := make([]byte, 4+lz4.CompressBlockBound(len(p)))
	buf[0] = byte(len(p) >> 24)
	buf[1] = byte(len(p) >> 16)
	buf[2] = byte(len(p) >> 8)
	buf[3] = byte(len(p))

	var c lz4.Compressor
	n, err := c.CompressBlock(p, buf[4:])
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	return buf[:4+n], nil
}

func (lz4Compressor) Decompress(p []byte) ([]byte, error) {
	if len(p) < 4 {
		return nil, fmt.Errorf("lz4 decompress: frame too short: %d bytes", len(p))
	}
	uncompressedLen := int(p[0])<<24 | int(p[1])<<16 | int(p[2])<<8 | int(p[3])
	out := make([]byte, uncompressedLen)
	n, err := lz4.UncompressBlock(p[4:], out)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if n != uncompressedLen {
		return nil, fmt.Errorf("lz4 decompress: expected %d bytes, got %d", uncompressedLen, n)
	}
	return out, nil
}
