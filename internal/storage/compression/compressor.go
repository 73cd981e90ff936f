package compression

import (
	"fmt"

	"github.com/pierrec/lz4"
)

// Compressor compresses and decompresses snapshot payloads.
type Compressor interface {
	// Name returns the name of the compressor
	Name() string

	// Compress compresses the data
	Compress(data []byte) ([]byte, error)

	// Decompress decompresses data, given the original size
	Decompress(data []byte, originalSize int) ([]byte, error)
}

// ForName returns the compressor registered under name.
func ForName(name string) (Compressor, error) {
	switch name {
	case "lz4":
		return &LZ4Compressor{}, nil
	case "none":
		return &NoCompressor{}, nil
	default:
		return nil, fmt.Errorf("unknown compressor: %s", name)
	}
}

// NoCompressor is a pass-through used when snapshots must stay
// inspectable.
type NoCompressor struct{}

func (c *NoCompressor) Name() string {
	return "none"
}

func (c *NoCompressor) Compress(data []byte) ([]byte, error) {
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

func (c *NoCompressor) Decompress(data []byte, originalSize int) ([]byte, error) {
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

// LZ4Compressor implements LZ4 block compression.
type LZ4Compressor struct{}

func (c *LZ4Compressor) Name() string {
	return "lz4"
}

func (c *LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}

	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	if n == 0 || n >= len(data) {
		// Incompressible input; store it raw. The size prefix in the
		// snapshot frame tells the reader which case it was.
		result := make([]byte, len(data))
		copy(result, data)
		return result, nil
	}
	return compressed[:n], nil
}

func (c *LZ4Compressor) Decompress(data []byte, originalSize int) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}
	if len(data) == originalSize {
		// Stored raw.
		result := make([]byte, len(data))
		copy(result, data)
		return result, nil
	}

	decompressed := make([]byte, originalSize)
	n, err := lz4.UncompressBlock(data, decompressed)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompression failed: %w", err)
	}
	return decompressed[:n], nil
}
