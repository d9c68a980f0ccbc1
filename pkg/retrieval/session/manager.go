package session

import (
	"context"

	"ai-studio-be/internal/pkg/apperrors"
	"ai-studio-be/internal/repository/contract"
	"ai-studio-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScopeCache is a read-through cache over resolved session scopes.
type ScopeCache interface {
	Get(ctx context.Context, sessionId string) ([]uuid.UUID, bool)
	Set(ctx context.Context, sessionId string, documentIds []uuid.UUID)
	Invalidate(ctx context.Context, sessionId string)
}

// Manager resolves which documents a query may retrieve from. The session is
// always explicit call context; there is no ambient "current session" and no
// fallback to all documents.
type Manager struct {
	repo  contract.SessionRepository
	cache ScopeCache
}

func NewManager(repo contract.SessionRepository, cache ScopeCache) *Manager {
	return &Manager{
		repo:  repo,
		cache: cache,
	}
}

// ResolveScope returns the document ids in the session's retrieval scope. An
// existing session with no documents resolves to an empty scope (searching it
// yields an empty result, not an error). A nil, unknown, or closed session id
// fails with NoActiveSessionError so one session can never read another's
// documents by accident.
func (m *Manager) ResolveScope(ctx context.Context, sessionId uuid.UUID) ([]uuid.UUID, error) {
	if sessionId == uuid.Nil {
		return nil, &apperrors.NoActiveSessionError{}
	}

	if m.cache != nil {
		if ids, ok := m.cache.Get(ctx, sessionId.String()); ok {
			return ids, nil
		}
	}

	session, err := m.repo.FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, &apperrors.NoActiveSessionError{SessionId: sessionId}
	}

	if m.cache != nil {
		m.cache.Set(ctx, sessionId.String(), session.DocumentIds)
	}
	return session.DocumentIds, nil
}

// Invalidate drops the cached scope, e.g. after attaching a document or
// closing the session.
func (m *Manager) Invalidate(ctx context.Context, sessionId uuid.UUID) {
	if m.cache != nil {
		m.cache.Invalidate(ctx, sessionId.String())
	}
}
