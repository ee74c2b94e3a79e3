package catalog

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Embedder turns text into a fixed-size vector. Implementations must be safe
// for concurrent use and must return normalized vectors of a constant
// dimension.
type Embedder interface {
	Embed(text string) []float64
	Dimension() int
}

// HashingEmbedder is a deterministic bag-of-words embedder: each token is
// hashed into one of Dimension buckets and the resulting counts are
// L2-normalized. It needs no model files or network access; a hosted sentence
// embedder can be swapped in behind the same interface.
type HashingEmbedder struct {
	dim int
}

// NewHashingEmbedder creates a hashing embedder with the given dimension.
func NewHashingEmbedder(dim int) *HashingEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &HashingEmbedder{dim: dim}
}

// Dimension returns the vector size.
func (e *HashingEmbedder) Dimension() int {
	return e.dim
}

// Embed hashes the tokens of text into a normalized vector.
func (e *HashingEmbedder) Embed(text string) []float64 {
	vec := make([]float64, e.dim)
	for _, tok := range Tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[int(h.Sum32())%e.dim]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// Tokenize lower-cases text and splits it on non-alphanumeric runes.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// cosine returns the dot product of two normalized vectors.
func cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
