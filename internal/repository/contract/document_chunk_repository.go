package contract

import (
	"context"

	"ai-studio-be/internal/entity"
	"ai-studio-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DocumentChunkRepository interface {
	// CreateBulk inserts a document's whole chunk batch. Callers run it inside
	// a unit-of-work transaction so a partially embedded document never
	// becomes visible.
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	// FetchByDocumentIds returns all chunks whose owning document is in the
	// given set AND has status "processed". Documents still processing or
	// failed are excluded by construction, not by caller-side filtering.
	FetchByDocumentIds(ctx context.Context, documentIds []uuid.UUID) ([]*entity.DocumentChunk, error)
	CountByDocumentId(ctx context.Context, documentId uuid.UUID) (int64, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
