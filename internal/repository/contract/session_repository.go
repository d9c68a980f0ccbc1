package contract

import (
	"context"

	"ai-studio-be/internal/entity"
	"ai-studio-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SessionRepository interface {
	Create(ctx context.Context, session *entity.RetrievalSession) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.RetrievalSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RetrievalSession, error)
	AttachDocument(ctx context.Context, sessionId uuid.UUID, documentId uuid.UUID) error
	// ResolveScope returns the document ids attached to a session. An existing
	// session with no documents resolves to an empty scope, which is valid.
	ResolveScope(ctx context.Context, sessionId uuid.UUID) ([]uuid.UUID, error)
}
