package compression

import (
	"fmt"
	"strings"
)

// MaxDecodedSize caps the output of every Decompress
const MaxDecodedSize = 64 << 20

// Algorithm defines compression types
type Algorithm uint8

const (
	None   Algorithm = 0
	Snappy Algorithm = 1
	LZ4    Algorithm = 2
	Zstd   Algorithm = 3
)

var algorithmNames = map[Algorithm]string{
	None:   "none",
	Snappy: "snappy",
	LZ4:    "lz4",
	Zstd:   "zstd",
}

// String returns the wire name of the algorithm, as carried in message headers
func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return fmt.Sprintf("algorithm(%d)", uint8(a))
}

// ParseAlgorithm maps a configured or header name to an Algorithm.
// The empty string means None.
func ParseAlgorithm(name string) (Algorithm, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return None, nil
	}
	for algo, n := range algorithmNames {
		if n == name {
			return algo, nil
		}
	}
	return None, fmt.Errorf("unsupported compression algorithm: %s", name)
}

// Compressor interface for compression algorithms
type Compressor interface {
	// Compress compresses data
	Compress(data []byte) ([]byte, error)

	// Decompress decompresses data
	Decompress(data []byte) ([]byte, error)

	// Algorithm returns the compression algorithm type
	Algorithm() Algorithm
}

// GetCompressor returns a compressor for the given algorithm
func GetCompressor(algo Algorithm) (Compressor, error) {
	switch algo {
	case None:
		return &NoneCompressor{}, nil
	case Snappy:
		return NewSnappyCompressor(), nil
	case LZ4:
		return NewLZ4Compressor(), nil
	case Zstd:
		return NewZstdCompressor(), nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %d", algo)
	}
}

// ForName is GetCompressor keyed by wire name
func ForName(name string) (Compressor, error) {
	algo, err := ParseAlgorithm(name)
	if err != nil {
		return nil, err
	}
	return GetCompressor(algo)
}

// NoneCompressor is a no-op compressor
type NoneCompressor struct{}

func (n *NoneCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (n *NoneCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}

func (n *NoneCompressor) Algorithm() Algorithm {
	return None
}
