package cache

import (
	"bytes"
	"compress/gzip"
	"io"
)

const (
	// compressionMinSize skips compression for values too small to benefit
	compressionMinSize = 1024

	// decompressionLimit guards against decompression bombs
	decompressionLimit = 100 * 1024 * 1024
)

// CompressionService is the pluggable value transform applied by
// strategies with the compression flag. Values below the threshold, and
// values gzip fails to shrink, pass through unchanged; the reader sniffs
// the gzip magic bytes, so mixed stored forms coexist under one strategy.
type CompressionService struct {
	level   int
	minSize int
}

// NewCompressionService creates a gzip compressor tuned for cache traffic
// (BestSpeed: the win is network and Redis memory, not ratio)
func NewCompressionService() *CompressionService {
	return &CompressionService{
		level:   gzip.BestSpeed,
		minSize: compressionMinSize,
	}
}

// Compress returns the compressed form of data, or data itself when
// compression is not worthwhile
func (c *CompressionService) Compress(data []byte) ([]byte, error) {
	if len(data) < c.minSize {
		return data, nil
	}

	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, err
	}
	if _, err := gz.Write(data); err != nil {
		_ = gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}

	if buf.Len() >= len(data) {
		return data, nil
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress. Uncompressed input passes through.
func (c *CompressionService) Decompress(data []byte) ([]byte, error) {
	if !IsCompressed(data) {
		return data, nil
	}

	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = gz.Close() }()

	return io.ReadAll(io.LimitReader(gz, decompressionLimit))
}

// IsCompressed checks for the gzip magic bytes
func IsCompressed(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}
