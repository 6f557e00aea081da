package compression

import (
	"fmt"

	"github.com/golang/snappy"
)

// SnappyCompressor uses the Snappy block format. Events are small and
// whole, so the framed stream format buys nothing.
type SnappyCompressor struct{}

// NewSnappyCompressor creates a new Snappy compressor
func NewSnappyCompressor() *SnappyCompressor {
	return &SnappyCompressor{}
}

// Compress returns data unchanged when empty
func (s *SnappyCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	return snappy.Encode(make([]byte, snappy.MaxEncodedLen(len(data))), data), nil
}

// Decompress refuses blocks whose header claims more than MaxDecodedSize
func (s *SnappyCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	n, err := snappy.DecodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("snappy: %w", err)
	}
	if n > MaxDecodedSize {
		return nil, fmt.Errorf("snappy: decoded size %d exceeds limit %d", n, MaxDecodedSize)
	}
	out, err := snappy.Decode(make([]byte, n), data)
	if err != nil {
		return nil, fmt.Errorf("snappy: %w", err)
	}
	return out, nil
}

// Algorithm returns Snappy
func (s *SnappyCompressor) Algorithm() Algorithm {
	return Snappy
}
