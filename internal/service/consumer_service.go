package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ai-studio-be/internal/dto"
	"ai-studio-be/internal/entity"
	"ai-studio-be/internal/pkg/apperrors"
	"ai-studio-be/internal/pkg/logger"
	"ai-studio-be/internal/repository/specification"
	"ai-studio-be/internal/repository/unitofwork"
	"ai-studio-be/pkg/embedding"
	"ai-studio-be/pkg/events"
	pktNats "ai-studio-be/pkg/nats"
	"ai-studio-be/pkg/retrieval"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub           *gochannel.GoChannel
	topicName        string
	uowFactory       unitofwork.RepositoryFactory
	embeddingService *embedding.Service
	chunker          *retrieval.Chunker
	eventPublisher   *pktNats.Publisher
	log              logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingService *embedding.Service,
	chunker *retrieval.Chunker,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:           pubSub,
		topicName:        topicName,
		uowFactory:       uowFactory,
		embeddingService: embeddingService,
		chunker:          chunker,
		eventPublisher:   eventPublisher,
		log:              log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage runs the full ingestion for one document: chunk, embed,
// replace the chunk batch atomically, then flip the status to "processed".
// Any failure leaves the document in "failed" status, which keeps it out of
// retrieval by construction.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("ingestion", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		cs.log.Error("ingestion", "Failed to load document", map[string]interface{}{
			"document_id": payload.DocumentId,
			"error":       err.Error(),
		})
		msg.Nack() // retriable
		return
	}
	if document == nil {
		cs.log.Warn("ingestion", "Document not found, dropping message", map[string]interface{}{
			"document_id": payload.DocumentId,
		})
		msg.Ack()
		return
	}

	if err := uow.DocumentRepository().UpdateStatus(ctx, document.Id, entity.DocumentStatusProcessing); err != nil {
		msg.Nack()
		return
	}

	chunkCount, err := cs.ingest(ctx, uow, document, &payload)
	if err != nil {
		cs.failDocument(ctx, uow, document, err)
		msg.Ack() // failure is recorded on the document, not retried blindly
		return
	}

	if cs.eventPublisher != nil {
		evt := events.NewDocumentProcessed(document.Id, document.Filename, chunkCount)
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			cs.log.Warn("ingestion", "Failed to publish processed event", map[string]interface{}{
				"document_id": document.Id,
				"error":       err.Error(),
			})
		}
	}

	cs.log.Info("ingestion", "Document processed", map[string]interface{}{
		"document_id": document.Id,
		"filename":    document.Filename,
		"chunk_count": chunkCount,
	})
	msg.Ack()
}

func (cs *consumerService) ingest(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	document *entity.Document,
	payload *dto.PublishEmbedDocumentMessage,
) (int, error) {
	pages := make([]retrieval.PageBoundary, len(payload.PageBoundaries))
	for i, b := range payload.PageBoundaries {
		pages[i] = retrieval.PageBoundary{Offset: b.Offset, Page: b.Page}
	}
	spans := make([]retrieval.ContentSpan, len(payload.ContentSpans))
	for i, s := range payload.ContentSpans {
		spans[i] = retrieval.ContentSpan{Start: s.Start, End: s.End, ContentType: s.ContentType}
	}

	drafts, err := cs.chunker.Chunk(document.Id, document.TextContent, pages, spans)
	if err != nil {
		return 0, err
	}

	texts := make([]string, len(drafts))
	for i, d := range drafts {
		texts[i] = d.Text
	}
	vectors, err := cs.embeddingService.EmbedBatch(ctx, texts, embedding.TaskTypeDocument)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	chunks := make([]*entity.DocumentChunk, len(drafts))
	for i, d := range drafts {
		chunks[i] = &entity.DocumentChunk{
			Id:             uuid.New(),
			DocumentId:     document.Id,
			ChunkText:      d.Text,
			ChunkIndex:     d.Index,
			EmbeddingValue: vectors[i],
			Metadata: entity.ChunkMetadata{
				PageNumber:  d.PageNumber,
				ContentType: d.ContentType,
				Filename:    document.Filename,
			},
			CreatedAt: now,
		}
	}

	// The chunk batch and the status flip commit together: a document is
	// either fully retrievable or not at all.
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, document.Id); err != nil {
		return 0, err
	}
	if err := uow.DocumentChunkRepository().CreateBulk(ctx, chunks); err != nil {
		return 0, err
	}

	count, err := uow.DocumentChunkRepository().CountByDocumentId(ctx, document.Id)
	if err != nil {
		return 0, err
	}
	if count != int64(len(chunks)) {
		return 0, &apperrors.StoreInconsistencyError{
			DocumentId: document.Id,
			Expected:   len(chunks),
			Got:        count,
		}
	}

	if err := uow.DocumentRepository().UpdateStatus(ctx, document.Id, entity.DocumentStatusProcessed); err != nil {
		return 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func (cs *consumerService) failDocument(ctx context.Context, uow unitofwork.UnitOfWork, document *entity.Document, cause error) {
	var malformed *apperrors.MalformedDocumentError
	var unavailable *apperrors.EmbeddingUnavailableError
	switch {
	case errors.As(cause, &malformed):
		cs.log.Error("ingestion", "Document is malformed", map[string]interface{}{
			"document_id": document.Id,
			"error":       cause.Error(),
		})
	case errors.As(cause, &unavailable):
		cs.log.Error("ingestion", "Embedding provider unavailable", map[string]interface{}{
			"document_id": document.Id,
			"error":       cause.Error(),
		})
	default:
		cs.log.Error("ingestion", "Ingestion failed", map[string]interface{}{
			"document_id": document.Id,
			"error":       cause.Error(),
		})
	}

	if err := uow.DocumentRepository().UpdateStatus(ctx, document.Id, entity.DocumentStatusFailed); err != nil {
		cs.log.Error("ingestion", "Failed to mark document as failed", map[string]interface{}{
			"document_id": document.Id,
			"error":       err.Error(),
		})
	}

	if cs.eventPublisher != nil {
		evt := events.NewDocumentFailed(document.Id, document.Filename, cause.Error())
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			cs.log.Warn("ingestion", "Failed to publish failed event", map[string]interface{}{
				"document_id": document.Id,
				"error":       err.Error(),
			})
		}
	}
}
