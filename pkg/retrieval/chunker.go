package retrieval

import (
	"sort"
	"strings"

	"ai-studio-be/internal/entity"
	"ai-studio-be/internal/pkg/apperrors"

	"github.com/google/uuid"
)

// PageBoundary marks the rune offset at which a source page begins.
type PageBoundary struct {
	Offset int
	Page   int // 1-based
}

// ContentSpan marks a region of the extracted text with a detected content
// type (e.g. a table picked up by the extractor).
type ContentSpan struct {
	Start       int // rune offset, inclusive
	End         int // rune offset, exclusive
	ContentType string
}

// ChunkDraft is a chunk before embedding and persistence.
type ChunkDraft struct {
	Text        string
	Index       int
	PageNumber  *int
	ContentType string
}

// Chunker splits extracted document text into bounded, overlap-aware segments.
type Chunker struct {
	ChunkSize int // max segment length in runes
	Overlap   int // runes shared between consecutive segments
}

func NewChunker(chunkSize int, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1500
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	return &Chunker{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

// Chunk splits text into segments of at most ChunkSize runes with Overlap
// runes of context carried across boundaries. Each segment is stamped with the
// page its first rune falls on (nil when no page metadata exists) and the
// dominant content type of its span. Whitespace-only segments are dropped;
// indices are assigned by emission order and stay contiguous from 0.
func (c *Chunker) Chunk(documentId uuid.UUID, text string, pages []PageBoundary, spans []ContentSpan) ([]ChunkDraft, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &apperrors.MalformedDocumentError{
			DocumentId: documentId,
			Reason:     "extracted text is empty",
		}
	}

	sorted := make([]PageBoundary, len(pages))
	copy(sorted, pages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })

	runes := []rune(text)
	totalLen := len(runes)

	step := c.ChunkSize - c.Overlap
	if step <= 0 {
		step = c.ChunkSize
	}

	var drafts []ChunkDraft
	for i := 0; i < totalLen; i += step {
		end := i + c.ChunkSize
		if end > totalLen {
			end = totalLen
		}

		segment := string(runes[i:end])
		if strings.TrimSpace(segment) != "" {
			drafts = append(drafts, ChunkDraft{
				Text:        segment,
				Index:       len(drafts),
				PageNumber:  pageAt(sorted, i),
				ContentType: dominantContentType(spans, i, end),
			})
		}

		if end == totalLen {
			break
		}
	}

	return drafts, nil
}

// pageAt returns the page containing the given rune offset. A segment that
// straddles a page break takes the page of its first rune.
func pageAt(pages []PageBoundary, offset int) *int {
	if len(pages) == 0 {
		return nil
	}
	page := pages[0].Page
	for _, b := range pages {
		if b.Offset > offset {
			break
		}
		page = b.Page
	}
	return &page
}

// dominantContentType picks the content type covering the largest share of
// [start,end). Uncovered text counts as plain text; plain text also wins ties.
func dominantContentType(spans []ContentSpan, start int, end int) string {
	coverage := map[string]int{}
	covered := 0
	for _, s := range spans {
		lo, hi := s.Start, s.End
		if lo < start {
			lo = start
		}
		if hi > end {
			hi = end
		}
		if hi > lo {
			coverage[s.ContentType] += hi - lo
			covered += hi - lo
		}
	}
	coverage[entity.ContentTypeText] += (end - start) - covered

	best := entity.ContentTypeText
	bestLen := coverage[entity.ContentTypeText]
	types := make([]string, 0, len(coverage))
	for t := range coverage {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		if coverage[t] > bestLen {
			best = t
			bestLen = coverage[t]
		}
	}
	return best
}
