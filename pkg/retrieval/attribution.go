package retrieval

import (
	"fmt"

	"github.com/google/uuid"
)

// Source kinds. Enriched sources carry full provenance; legacy sources come
// from chunks stored before metadata enrichment and only offer a flat string.
const (
	SourceKindEnriched = "enriched"
	SourceKindLegacy   = "legacy"
)

// Source is the citation view of a ranked match. Ephemeral, never persisted.
type Source struct {
	Kind        string    `json:"kind"`
	ChunkId     uuid.UUID `json:"chunk_id"`
	DocumentId  uuid.UUID `json:"document_id"`
	Filename    string    `json:"filename,omitempty"`
	PageNumber  *int      `json:"page_number,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Similarity  float64   `json:"similarity"`
	Excerpt     string    `json:"excerpt,omitempty"`
	Legacy      string    `json:"legacy,omitempty"` // flat fallback, set only for legacy kind
}

// Assembler converts ranked matches into a stable, deduplicated citation list.
type Assembler struct {
	ExcerptLength int // max excerpt length in runes
}

func NewAssembler() *Assembler {
	return &Assembler{
		ExcerptLength: 200,
	}
}

// Assemble maps matches to sources preserving rank order. Two matches from the
// same document page with the same content type collapse into one citation
// keeping the higher score; distinct content types on the same page stay
// separate. Chunks without any metadata become legacy sources and are never
// collapsed, since there is no page identity to collapse on. Assemble is
// idempotent: the same input always yields the same output.
func (a *Assembler) Assemble(matches []ScoredChunk) []Source {
	sources := make([]Source, 0, len(matches))
	index := map[string]int{} // dedup key -> position in sources

	for _, m := range matches {
		src := a.toSource(m)

		if src.Kind == SourceKindLegacy {
			sources = append(sources, src)
			continue
		}

		key := dedupKey(src)
		if pos, ok := index[key]; ok {
			if src.Similarity > sources[pos].Similarity {
				sources[pos] = src
			}
			continue
		}
		index[key] = len(sources)
		sources = append(sources, src)
	}

	return sources
}

func (a *Assembler) toSource(m ScoredChunk) Source {
	chunk := m.Chunk
	excerpt := chunk.ChunkText
	if runes := []rune(excerpt); len(runes) > a.ExcerptLength {
		excerpt = string(runes[:a.ExcerptLength])
	}

	if chunk.Metadata.IsEmpty() {
		return Source{
			Kind:       SourceKindLegacy,
			ChunkId:    chunk.Id,
			DocumentId: chunk.DocumentId,
			Similarity: m.Similarity,
			Legacy:     excerpt,
		}
	}

	return Source{
		Kind:        SourceKindEnriched,
		ChunkId:     chunk.Id,
		DocumentId:  chunk.DocumentId,
		Filename:    chunk.Metadata.Filename,
		PageNumber:  chunk.Metadata.PageNumber,
		ContentType: chunk.Metadata.ContentType,
		Similarity:  m.Similarity,
		Excerpt:     excerpt,
	}
}

func dedupKey(s Source) string {
	page := "none"
	if s.PageNumber != nil {
		page = fmt.Sprintf("%d", *s.PageNumber)
	}
	return fmt.Sprintf("%s|%s|%s", s.DocumentId, page, s.ContentType)
}
