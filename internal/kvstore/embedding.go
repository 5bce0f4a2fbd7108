package kvstore

import (
	"math"

	"github.com/cespare/xxhash/v2"
)

// EmbeddingDim is the fixed dimension of the bag-of-words embedding: every
// value, regardless of length, maps to a vector of exactly this many
// nonnegative integers.
const EmbeddingDim = 16

// embeddingHashSeed makes the per-token bucket assignment deterministic
// across runs and platforms. xxhash.Sum64String is already stable by
// construction (no process-local randomization like Go's built-in map
// hashing); the seed string is mixed in explicitly so the hash used here is
// never confused with an unseeded one reused for another purpose.
const embeddingHashSeed = "kvstore-embedding-v1:"

// Embedding is the fixed-dimension bag-of-words hash vector stored per key.
type Embedding [EmbeddingDim]uint64

// embed computes the deterministic embedding of value: tokenize, then for
// each token increment vec[h(token) mod EmbeddingDim].
func embed(value string) Embedding {
	var vec Embedding
	for _, tok := range tokenize(value) {
		bucket := xxhash.Sum64String(embeddingHashSeed+tok) % EmbeddingDim
		vec[bucket]++
	}
	return vec
}

// cosineSimilarity scores the similarity of two embeddings. A zero vector on
// either side yields a score of 0.0 rather than dividing by zero.
func cosineSimilarity(a, b Embedding) float64 {
	var dot, normA, normB float64
	for i := 0; i < EmbeddingDim; i++ {
		fa, fb := float64(a[i]), float64(b[i])
		dot += fa * fb
		normA += fa * fa
		normB += fb * fb
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
