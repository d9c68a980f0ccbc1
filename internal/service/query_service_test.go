package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-studio-be/internal/dto"
	"ai-studio-be/internal/entity"
	"ai-studio-be/internal/pkg/apperrors"
	"ai-studio-be/internal/repository/contract"
	"ai-studio-be/internal/repository/specification"
	"ai-studio-be/internal/repository/unitofwork"
	"ai-studio-be/pkg/embedding"
	ragsession "ai-studio-be/pkg/retrieval/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory doubles for the repository layer. Only the methods the query path
// touches are implemented with real behavior.

type stubChunkRepo struct {
	chunks        []*entity.DocumentChunk
	fetchedScopes [][]uuid.UUID
}

func (s *stubChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	return nil
}

func (s *stubChunkRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return nil
}

func (s *stubChunkRepo) FetchByDocumentIds(ctx context.Context, documentIds []uuid.UUID) ([]*entity.DocumentChunk, error) {
	s.fetchedScopes = append(s.fetchedScopes, documentIds)
	inScope := map[uuid.UUID]bool{}
	for _, id := range documentIds {
		inScope[id] = true
	}
	var out []*entity.DocumentChunk
	for _, c := range s.chunks {
		if inScope[c.DocumentId] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubChunkRepo) CountByDocumentId(ctx context.Context, documentId uuid.UUID) (int64, error) {
	return 0, nil
}

func (s *stubChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	return s.chunks, nil
}

func (s *stubChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(s.chunks)), nil
}

type stubSessionRepo struct {
	sessions map[uuid.UUID]*entity.RetrievalSession
}

func (s *stubSessionRepo) Create(ctx context.Context, session *entity.RetrievalSession) error {
	s.sessions[session.Id] = session
	return nil
}

func (s *stubSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.sessions, id)
	return nil
}

func (s *stubSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.RetrievalSession, error) {
	for _, spec := range specs {
		if byId, ok := spec.(specification.ByID); ok {
			return s.sessions[byId.ID], nil
		}
	}
	return nil, nil
}

func (s *stubSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RetrievalSession, error) {
	return nil, nil
}

func (s *stubSessionRepo) AttachDocument(ctx context.Context, sessionId uuid.UUID, documentId uuid.UUID) error {
	return nil
}

func (s *stubSessionRepo) ResolveScope(ctx context.Context, sessionId uuid.UUID) ([]uuid.UUID, error) {
	if session, ok := s.sessions[sessionId]; ok {
		return session.DocumentIds, nil
	}
	return nil, nil
}

type stubUow struct {
	chunkRepo   *stubChunkRepo
	sessionRepo *stubSessionRepo
}

func (u *stubUow) Begin(ctx context.Context) error { return nil }
func (u *stubUow) Commit() error { return nil }
func (u *stubUow) Rollback() error { return nil }

func (u *stubUow) DocumentRepository() contract.DocumentRepository { return nil }
func (u *stubUow) DocumentChunkRepository() contract.DocumentChunkRepository {
	return u.chunkRepo
}
func (u *stubUow) SessionRepository() contract.SessionRepository { return u.sessionRepo }

type stubFactory struct {
	uow *stubUow
}

func (f *stubFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

type fixedProvider struct {
	vector []float32
	calls  int
}

func (p *fixedProvider) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	p.calls++
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: p.vector}}, nil
}

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error { return nil }

func newQueryFixture(provider embedding.EmbeddingProvider, defaultTopK int) (*stubUow, *ragsession.Manager, IQueryService) {
	uow := &stubUow{
		chunkRepo:   &stubChunkRepo{},
		sessionRepo: &stubSessionRepo{sessions: map[uuid.UUID]*entity.RetrievalSession{}},
	}
	factory := &stubFactory{uow: uow}
	embeddingService := embedding.NewService(provider, 2, embedding.RetryPolicy{
		MaxAttempts: 1,
		Sleep:       func(ctx context.Context, d time.Duration) error { return nil },
	})
	manager := ragsession.NewManager(uow.sessionRepo, nil)
	svc := NewQueryService(factory, embeddingService, manager, defaultTopK, noopLogger{})
	return uow, manager, svc
}

func TestFindRelevantChunksUnknownSession(t *testing.T) {
	_, _, svc := newQueryFixture(&fixedProvider{vector: []float32{1, 0}}, 5)

	_, err := svc.FindRelevantChunks(context.Background(), &dto.QueryRequest{
		SessionId: uuid.New(),
		Query:     "anything",
	})

	var noSession *apperrors.NoActiveSessionError
	require.True(t, errors.As(err, &noSession), "an unknown session must fail, never fall back to all documents")
}

func TestFindRelevantChunksEmptyScope(t *testing.T) {
	provider := &fixedProvider{vector: []float32{1, 0}}
	uow, _, svc := newQueryFixture(provider, 5)

	sessionId := uuid.New()
	uow.sessionRepo.sessions[sessionId] = &entity.RetrievalSession{Id: sessionId}

	res, err := svc.FindRelevantChunks(context.Background(), &dto.QueryRequest{
		SessionId: sessionId,
		Query:     "anything",
	})

	require.NoError(t, err)
	assert.Empty(t, res.Sources)
	assert.Zero(t, res.MatchedCount)
	assert.Zero(t, provider.calls, "empty scope short-circuits before the provider is called")
}

func TestFindRelevantChunksScopedRetrieval(t *testing.T) {
	provider := &fixedProvider{vector: []float32{1, 0}}
	uow, _, svc := newQueryFixture(provider, 5)

	inScopeDoc := uuid.New()
	outOfScopeDoc := uuid.New()
	sessionId := uuid.New()
	uow.sessionRepo.sessions[sessionId] = &entity.RetrievalSession{
		Id:          sessionId,
		DocumentIds: []uuid.UUID{inScopeDoc},
	}

	page := 1
	meta := entity.ChunkMetadata{PageNumber: &page, ContentType: entity.ContentTypeText, Filename: "in.pdf"}
	uow.chunkRepo.chunks = []*entity.DocumentChunk{
		{Id: uuid.New(), DocumentId: inScopeDoc, ChunkText: "relevant", EmbeddingValue: []float32{1, 0}, Metadata: meta},
		{Id: uuid.New(), DocumentId: outOfScopeDoc, ChunkText: "hidden", EmbeddingValue: []float32{1, 0}, Metadata: meta},
	}

	res, err := svc.FindRelevantChunks(context.Background(), &dto.QueryRequest{
		SessionId: sessionId,
		Query:     "find it",
	})

	require.NoError(t, err)
	require.Len(t, res.Sources, 1)
	assert.Equal(t, inScopeDoc, res.Sources[0].DocumentId)
	assert.Equal(t, 1, res.MatchedCount)
}

func TestFindRelevantChunksDefaultTopK(t *testing.T) {
	// A request without top_k falls back to the configured default, and a
	// zeroed config falls back to the built-in floor.
	cases := []struct {
		name       string
		configured int
		want       int
	}{
		{name: "configured default", configured: 3, want: 3},
		{name: "zero config falls back", configured: 0, want: fallbackTopK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := &fixedProvider{vector: []float32{1, 0}}
			uow, _, svc := newQueryFixture(provider, tc.configured)

			docId := uuid.New()
			sessionId := uuid.New()
			uow.sessionRepo.sessions[sessionId] = &entity.RetrievalSession{
				Id:          sessionId,
				DocumentIds: []uuid.UUID{docId},
			}

			for i := 0; i < 10; i++ {
				page := i + 1
				uow.chunkRepo.chunks = append(uow.chunkRepo.chunks, &entity.DocumentChunk{
					Id:             uuid.New(),
					DocumentId:     docId,
					ChunkIndex:     i,
					ChunkText:      "chunk",
					EmbeddingValue: []float32{1, 0},
					Metadata:       entity.ChunkMetadata{PageNumber: &page, ContentType: entity.ContentTypeText},
				})
			}

			res, err := svc.FindRelevantChunks(context.Background(), &dto.QueryRequest{
				SessionId: sessionId,
				Query:     "find it",
			})

			require.NoError(t, err)
			assert.Equal(t, tc.want, res.MatchedCount)
		})
	}
}
