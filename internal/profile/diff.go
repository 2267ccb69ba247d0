package profile

import (
	"encoding/binary"
	"fmt"
)

// Diff16 computes the per-pixel signed difference (actual minus expected)
// between two flat little-endian 16-bit frame buffers. The buffers must be
// the same even length.
func Diff16(actual, expected []byte) ([]float64, error) {
	if len(actual) != len(expected) {
		return nil, fmt.Errorf("frame size mismatch: actual %d bytes, expected %d bytes",
			len(actual), len(expected))
	}
	if len(actual)%2 != 0 {
		return nil, fmt.Errorf("frame is %d bytes, not a whole number of 16-bit samples", len(actual))
	}

	diffs := make([]float64, len(actual)/2)
	for i := range diffs {
		a := binary.LittleEndian.Uint16(actual[2*i:])
		e := binary.LittleEndian.Uint16(expected[2*i:])
		diffs[i] = float64(int32(a) - int32(e))
	}
	return diffs, nil
}
