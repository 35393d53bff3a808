package transport

import (
	"bytes"
	"testing"
)

func TestSnappyCompressorRoundTrip(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("scylla-go-driver compression test payload "), 64)

	c := compressorFor(CompressionSnappy)
	compressed, err := c.Compress(payload)
	if err != nil {
		t.Fatalf("Compress() = %v", err)
	}

	out, err := c.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress() = %v", err)
	}
	if !bytes.Equal(out, payload) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(out), len(payload))
	}
}

func TestLZ4CompressorRoundTrip(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("scylla-go-driver compression test payload "), 64)

	c := compressorFor(CompressionLZ4)
	compressed, err := c.Compress(payload)
	if err != nil {
		t.Fatalf("Compress() = %v", err)
	}

	out, err := c.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress() = %v", err)
	}
	if !bytes.Equal(out, payload) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(out), len(payload))
	}
}

func TestLZ4CompressorRejectsShortFrame(t *testing.T) {
	t.Parallel()

	c := compressorFor(CompressionLZ4)
	if _, err := c.Decompress([]byte{1, 2, 3}); err == nil {
		t.Fatal("Decompress() on a 3-byte frame = nil, want an error")
	}
}

func TestCompressorForUnknownAlgorithm(t *testing.T) {
	t.Parallel()

	if c := compressorFor(CompressionNone); c != nil {
		t.Fatalf("compressorFor(CompressionNone) = %v, want nil", c)
	}
}
