package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"ai-studio-be/internal/dto"
	"ai-studio-be/internal/entity"
	"ai-studio-be/internal/pkg/apperrors"
	"ai-studio-be/internal/repository/contract"
	"ai-studio-be/internal/repository/specification"
	"ai-studio-be/internal/repository/unitofwork"
	"ai-studio-be/pkg/embedding"
	"ai-studio-be/pkg/retrieval"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ingestion doubles. The chunk repo keeps the batch in memory and can skew its
// reported count to simulate a store that lost rows mid-transaction.

type ingestDocumentRepo struct {
	docs     map[uuid.UUID]*entity.Document
	statuses map[uuid.UUID][]string
}

func (r *ingestDocumentRepo) Create(ctx context.Context, document *entity.Document) error {
	r.docs[document.Id] = document
	return nil
}

func (r *ingestDocumentRepo) Update(ctx context.Context, document *entity.Document) error {
	r.docs[document.Id] = document
	return nil
}

func (r *ingestDocumentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if doc, ok := r.docs[id]; ok {
		doc.Status = status
	}
	r.statuses[id] = append(r.statuses[id], status)
	return nil
}

func (r *ingestDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.docs, id)
	return nil
}

func (r *ingestDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	for _, spec := range specs {
		if byId, ok := spec.(specification.ByID); ok {
			return r.docs[byId.ID], nil
		}
	}
	return nil, nil
}

func (r *ingestDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	return nil, nil
}

func (r *ingestDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.docs)), nil
}

type ingestChunkRepo struct {
	byDocument map[uuid.UUID][]*entity.DocumentChunk
	countSkew  int64
	deletes    int
}

func (r *ingestChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	for _, c := range chunks {
		r.byDocument[c.DocumentId] = append(r.byDocument[c.DocumentId], c)
	}
	return nil
}

func (r *ingestChunkRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	r.deletes++
	delete(r.byDocument, documentId)
	return nil
}

func (r *ingestChunkRepo) FetchByDocumentIds(ctx context.Context, documentIds []uuid.UUID) ([]*entity.DocumentChunk, error) {
	var out []*entity.DocumentChunk
	for _, id := range documentIds {
		out = append(out, r.byDocument[id]...)
	}
	return out, nil
}

func (r *ingestChunkRepo) CountByDocumentId(ctx context.Context, documentId uuid.UUID) (int64, error) {
	return int64(len(r.byDocument[documentId])) + r.countSkew, nil
}

func (r *ingestChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	return nil, nil
}

func (r *ingestChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}

type ingestUow struct {
	documentRepo *ingestDocumentRepo
	chunkRepo    *ingestChunkRepo
	begins       int
	commits      int
	rollbacks    int
	committed    bool
}

func (u *ingestUow) Begin(ctx context.Context) error {
	u.begins++
	return nil
}

func (u *ingestUow) Commit() error {
	u.commits++
	u.committed = true
	return nil
}

func (u *ingestUow) Rollback() error {
	// Mirrors sql.Tx: rolling back after commit is a no-op.
	if u.committed {
		return nil
	}
	u.rollbacks++
	return nil
}

func (u *ingestUow) DocumentRepository() contract.DocumentRepository { return u.documentRepo }
func (u *ingestUow) DocumentChunkRepository() contract.DocumentChunkRepository {
	return u.chunkRepo
}
func (u *ingestUow) SessionRepository() contract.SessionRepository { return nil }

type ingestFactory struct {
	uow *ingestUow
}

func (f *ingestFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

type erroringProvider struct {
	calls int
}

func (p *erroringProvider) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	p.calls++
	return nil, errors.New("upstream unreachable")
}

func newConsumerFixture(provider embedding.EmbeddingProvider) (*ingestUow, *consumerService) {
	uow := &ingestUow{
		documentRepo: &ingestDocumentRepo{
			docs:     map[uuid.UUID]*entity.Document{},
			statuses: map[uuid.UUID][]string{},
		},
		chunkRepo: &ingestChunkRepo{byDocument: map[uuid.UUID][]*entity.DocumentChunk{}},
	}
	cs := &consumerService{
		topicName:  "INGEST_DOCUMENT",
		uowFactory: &ingestFactory{uow: uow},
		embeddingService: embedding.NewService(provider, 2, embedding.RetryPolicy{
			MaxAttempts: 1,
			Sleep:       func(ctx context.Context, d time.Duration) error { return nil },
		}),
		chunker: retrieval.NewChunker(50, 10),
		log:     noopLogger{},
	}
	return uow, cs
}

func seedDocument(uow *ingestUow, text string) *entity.Document {
	doc := &entity.Document{
		Id:          uuid.New(),
		Filename:    "report.pdf",
		TextContent: text,
		Status:      entity.DocumentStatusUploaded,
	}
	uow.documentRepo.docs[doc.Id] = doc
	return doc
}

func embedMessage(t *testing.T, documentId uuid.UUID) *message.Message {
	t.Helper()
	payload, err := json.Marshal(dto.PublishEmbedDocumentMessage{DocumentId: documentId})
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), payload)
}

func TestIngestReplacesChunkBatchAtomically(t *testing.T) {
	uow, cs := newConsumerFixture(&fixedProvider{vector: []float32{1, 0}})
	doc := seedDocument(uow, strings.Repeat("lorem ipsum ", 10))

	// A stale batch from a previous run must be gone after re-ingestion.
	uow.chunkRepo.byDocument[doc.Id] = []*entity.DocumentChunk{
		{Id: uuid.New(), DocumentId: doc.Id, ChunkText: "stale"},
	}

	count, err := cs.ingest(context.Background(), uow, doc, &dto.PublishEmbedDocumentMessage{DocumentId: doc.Id})

	require.NoError(t, err)
	assert.Equal(t, 1, uow.chunkRepo.deletes)
	assert.Len(t, uow.chunkRepo.byDocument[doc.Id], count)
	for i, chunk := range uow.chunkRepo.byDocument[doc.Id] {
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.NotEqual(t, "stale", chunk.ChunkText)
		assert.Equal(t, doc.Filename, chunk.Metadata.Filename)
	}

	assert.Equal(t, 1, uow.commits)
	assert.Zero(t, uow.rollbacks)
	assert.Equal(t, entity.DocumentStatusProcessed, doc.Status)
}

func TestIngestCountMismatchRollsBack(t *testing.T) {
	uow, cs := newConsumerFixture(&fixedProvider{vector: []float32{1, 0}})
	doc := seedDocument(uow, strings.Repeat("lorem ipsum ", 10))
	uow.chunkRepo.countSkew = -1

	_, err := cs.ingest(context.Background(), uow, doc, &dto.PublishEmbedDocumentMessage{DocumentId: doc.Id})

	var inconsistency *apperrors.StoreInconsistencyError
	require.True(t, errors.As(err, &inconsistency))
	assert.Equal(t, doc.Id, inconsistency.DocumentId)
	assert.Equal(t, int64(inconsistency.Expected)-1, inconsistency.Got)

	assert.Zero(t, uow.commits, "a short batch must never be committed")
	assert.Equal(t, 1, uow.rollbacks)
	assert.NotContains(t, uow.documentRepo.statuses[doc.Id], entity.DocumentStatusProcessed)
}

func TestProcessMessageMarksFailedOnEmbeddingError(t *testing.T) {
	provider := &erroringProvider{}
	uow, cs := newConsumerFixture(provider)
	doc := seedDocument(uow, strings.Repeat("lorem ipsum ", 10))

	cs.processMessage(context.Background(), embedMessage(t, doc.Id))

	assert.Positive(t, provider.calls)
	assert.Equal(t, entity.DocumentStatusFailed, doc.Status)
	assert.Equal(t,
		[]string{entity.DocumentStatusProcessing, entity.DocumentStatusFailed},
		uow.documentRepo.statuses[doc.Id])
	assert.Zero(t, uow.commits)
	assert.Empty(t, uow.chunkRepo.byDocument[doc.Id])
}

func TestProcessMessageMarksFailedOnEmptyText(t *testing.T) {
	uow, cs := newConsumerFixture(&fixedProvider{vector: []float32{1, 0}})
	doc := seedDocument(uow, "   \n\t ")

	cs.processMessage(context.Background(), embedMessage(t, doc.Id))

	assert.Equal(t, entity.DocumentStatusFailed, doc.Status)
	assert.Zero(t, uow.commits)
}

func TestProcessMessageDropsUnknownDocument(t *testing.T) {
	uow, cs := newConsumerFixture(&fixedProvider{vector: []float32{1, 0}})

	cs.processMessage(context.Background(), embedMessage(t, uuid.New()))

	assert.Zero(t, uow.commits)
	assert.Empty(t, uow.documentRepo.statuses)
}
