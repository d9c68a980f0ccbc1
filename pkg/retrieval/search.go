package retrieval

import (
	"bytes"
	"math"
	"sort"

	"ai-studio-be/internal/entity"
)

// ScoredChunk pairs a candidate chunk with its similarity to the query.
type ScoredChunk struct {
	Chunk      *entity.DocumentChunk
	Similarity float64
}

// Searcher ranks scoped candidate chunks against a query vector. It is a
// brute-force linear scan; scope is per-session and small, so no index is
// needed.
type Searcher struct{}

func NewSearcher() *Searcher {
	return &Searcher{}
}

// Rank scores every candidate with cosine similarity and returns the top k in
// descending score order. Equal scores are broken by ascending chunk index,
// then ascending document id, so identical queries over identical data always
// come back in the same order. k larger than the candidate count returns all
// candidates; an empty candidate set returns an empty slice, never an error.
func (s *Searcher) Rank(queryVector []float32, candidates []*entity.DocumentChunk, topK int) []ScoredChunk {
	if len(candidates) == 0 {
		return []ScoredChunk{}
	}

	scored := make([]ScoredChunk, len(candidates))
	for i, chunk := range candidates {
		scored[i] = ScoredChunk{
			Chunk:      chunk,
			Similarity: CosineSimilarity(queryVector, chunk.EmbeddingValue),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if a.Chunk.ChunkIndex != b.Chunk.ChunkIndex {
			return a.Chunk.ChunkIndex < b.Chunk.ChunkIndex
		}
		return bytes.Compare(a.Chunk.DocumentId[:], b.Chunk.DocumentId[:]) < 0
	})

	if topK > 0 && topK < len(scored) {
		scored = scored[:topK]
	}
	return scored
}

// CosineSimilarity computes dot(a,b) / (|a|*|b|). A zero-norm vector scores 0
// against everything rather than dividing by zero; mismatched lengths also
// score 0.
func CosineSimilarity(a []float32, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
