// ABOUTME: Vector helpers shared by the storage backends
// ABOUTME: Cosine similarity, float32 blob encoding and batch dimension checks
package vecmath

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Cosine calculates cosine similarity between two vectors.
// Vectors of different length or zero norm score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dotProduct += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// BatchDimension checks that there is one vector per chunk and that all vectors
// share a length, which it returns. An empty batch has dimension 0.
func BatchDimension(chunks int, vectors [][]float32) (int, error) {
	if chunks != len(vectors) {
		return 0, fmt.Errorf("got %d chunks but %d vectors", chunks, len(vectors))
	}
	if len(vectors) == 0 {
		return 0, nil
	}

	dim := len(vectors[0])
	if dim == 0 {
		return 0, fmt.Errorf("vector 0 is empty")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return 0, fmt.Errorf("vector %d has %d dimensions, expected %d", i, len(v), dim)
		}
	}
	return dim, nil
}

// ToBlob encodes a vector as little-endian float32 bytes
func ToBlob(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// FromBlob decodes a blob written by ToBlob
func FromBlob(blob []byte) []float32 {
	count := len(blob) / 4
	vector := make([]float32, count)
	for i := 0; i < count; i++ {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}
