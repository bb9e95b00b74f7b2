// Package vectors provides float32 vector math and a compact binary
// encoding shared by the matching engine and the inference client.
package vectors

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Cosine returns the cosine similarity between a and b in [-1, 1].
// Mismatched lengths and zero-norm inputs are errors: a degenerate vector has
// no direction to compare, so callers must skip the pair instead of treating
// it as dissimilar.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}

	if len(a) == 0 {
		return 0, errors.New("empty vectors cannot be compared")
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, errors.New("zero-norm vector cannot be compared")
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// NormalizeL2 scales v in place to unit length. Zero vectors are left as-is.
func NormalizeL2(v []float32) {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return
	}

	inv := 1 / math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}

// Encode serializes v as little-endian float32 values.
func Encode(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

// Decode deserializes a blob produced by Encode.
func Decode(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(blob))
	}

	v := make([]float32, len(blob)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return v, nil
}
