package retrieval

import (
	"testing"

	"ai-studio-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkWith(docId uuid.UUID, index int, vec []float32) *entity.DocumentChunk {
	return &entity.DocumentChunk{
		Id:             uuid.New(),
		DocumentId:     docId,
		ChunkIndex:     index,
		EmbeddingValue: vec,
	}
}

func TestRankEmptyCandidates(t *testing.T) {
	searcher := NewSearcher()

	got := searcher.Rank([]float32{1, 0}, nil, 5)

	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRankOrdersByScoreDescending(t *testing.T) {
	searcher := NewSearcher()
	docId := uuid.New()

	query := []float32{1, 0}
	candidates := []*entity.DocumentChunk{
		chunkWith(docId, 0, []float32{0, 1}),       // orthogonal, score 0
		chunkWith(docId, 1, []float32{1, 0}),       // identical, score 1
		chunkWith(docId, 2, []float32{0.7, 0.7}),   // ~0.707
	}

	got := searcher.Rank(query, candidates, 0)

	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].Chunk.ChunkIndex)
	assert.Equal(t, 2, got[1].Chunk.ChunkIndex)
	assert.Equal(t, 0, got[2].Chunk.ChunkIndex)
}

func TestRankTieBreaksByChunkIndexThenDocumentId(t *testing.T) {
	searcher := NewSearcher()
	query := []float32{1, 0}

	docA := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	docB := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	// All candidates score identically; only the tie-breaks decide.
	candidates := []*entity.DocumentChunk{
		chunkWith(docB, 3, []float32{1, 0}),
		chunkWith(docB, 1, []float32{1, 0}),
		chunkWith(docA, 3, []float32{1, 0}),
	}

	got := searcher.Rank(query, candidates, 0)

	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].Chunk.ChunkIndex)
	assert.Equal(t, docA, got[1].Chunk.DocumentId, "same index ties break on document id bytes")
	assert.Equal(t, docB, got[2].Chunk.DocumentId)
}

func TestRankDeterministic(t *testing.T) {
	searcher := NewSearcher()
	query := []float32{0.3, 0.9, 0.1}

	candidates := make([]*entity.DocumentChunk, 0, 20)
	for i := 0; i < 20; i++ {
		candidates = append(candidates, chunkWith(uuid.New(), i%4, []float32{
			float32(i%3) * 0.5,
			float32(i%5) * 0.2,
			float32(i%7) * 0.1,
		}))
	}

	first := searcher.Rank(query, candidates, 10)
	second := searcher.Rank(query, candidates, 10)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Chunk.Id, second[i].Chunk.Id)
		assert.Equal(t, first[i].Similarity, second[i].Similarity)
	}
}

func TestRankTopK(t *testing.T) {
	searcher := NewSearcher()
	docId := uuid.New()
	query := []float32{1, 0}

	candidates := []*entity.DocumentChunk{
		chunkWith(docId, 0, []float32{1, 0}),
	}

	t.Run("k larger than candidates returns all", func(t *testing.T) {
		got := searcher.Rank(query, candidates, 3)
		assert.Len(t, got, 1)
	})

	t.Run("k truncates", func(t *testing.T) {
		more := append(candidates,
			chunkWith(docId, 1, []float32{0.5, 0.5}),
			chunkWith(docId, 2, []float32{0, 1}),
		)
		got := searcher.Rank(query, more, 2)
		require.Len(t, got, 2)
		assert.Equal(t, 0, got[0].Chunk.ChunkIndex)
	})
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "zero norm scores zero", a: []float32{0, 0}, b: []float32{1, 2}, want: 0},
		{name: "length mismatch scores zero", a: []float32{1, 2}, b: []float32{1, 2, 3}, want: 0},
		{name: "both empty", a: nil, b: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}
