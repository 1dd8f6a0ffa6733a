package rag

import (
	"hash/fnv"
	"math"
)

// Dimension is the fixed embedding width D (spec §4.7 uses 384 as an
// example; this index follows that choice).
const Dimension = 384

// Embedder turns text into a fixed-dimension vector. A real embedding
// model is pluggable behind this interface; HashEmbedder is the
// deterministic fallback the spec requires for reproducible tests.
type Embedder interface {
	Embed(text string) ([]float64, error)
}

// HashEmbedder computes a deterministic, model-free embedding from a
// 32-bit hash of the text (spec §4.7): v[i] = sin(hash+i) * cos(hash*0.1 +
// i*0.01), L2-normalized.
type HashEmbedder struct{}

func NewHashEmbedder() *HashEmbedder { return &HashEmbedder{} }

func (HashEmbedder) Embed(text string) ([]float64, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	hash := float64(h.Sum32())

	v := make([]float64, Dimension)
	for i := 0; i < Dimension; i++ {
		fi := float64(i)
		v[i] = math.Sin(hash+fi) * math.Cos(hash*0.1+fi*0.01)
	}
	return normalize(v), nil
}

// normalize L2-normalizes v in place and returns it. A zero vector is
// returned unchanged (norm 0 would divide by zero).
func normalize(v []float64) []float64 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += x * x
	}
	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] /= norm
	}
	return v
}

// dot computes the dot product of two equal-length, L2-normalized vectors,
// which equals cosine similarity for unit vectors.
func dot(a, b []float64) float64 {
	var sum float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
