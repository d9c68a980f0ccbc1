package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-studio-be/internal/dto"
	"ai-studio-be/internal/entity"
	"ai-studio-be/internal/pkg/logger"
	"ai-studio-be/internal/repository/specification"
	"ai-studio-be/internal/repository/unitofwork"
	ragsession "ai-studio-be/pkg/retrieval/session"

	"github.com/google/uuid"
)

type IDocumentService interface {
	Upload(ctx context.Context, req *dto.UploadDocumentRequest) (*dto.UploadDocumentResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ShowDocumentResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	sessionManager   *ragsession.Manager
	log              logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	sessionManager *ragsession.Manager,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		sessionManager:   sessionManager,
		log:              log,
	}
}

// Upload registers an extracted document and enqueues chunking + embedding.
// The document starts in "uploaded" status and only becomes retrievable once
// the ingestion worker commits its chunk batch and flips it to "processed".
func (s *documentService) Upload(ctx context.Context, req *dto.UploadDocumentRequest) (*dto.UploadDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document := entity.Document{
		Id:          uuid.New(),
		Filename:    req.Filename,
		StorageKey:  req.StorageKey,
		FileSize:    req.FileSize,
		FileType:    req.FileType,
		TextContent: req.TextContent,
		Status:      entity.DocumentStatusUploaded,
		UploadedAt:  time.Now(),
	}

	if err := uow.DocumentRepository().Create(ctx, &document); err != nil {
		return nil, err
	}

	if req.SessionId != nil {
		if err := uow.SessionRepository().AttachDocument(ctx, *req.SessionId, document.Id); err != nil {
			return nil, err
		}
		s.sessionManager.Invalidate(ctx, *req.SessionId)
	}

	msgPayload := dto.PublishEmbedDocumentMessage{
		DocumentId:     document.Id,
		PageBoundaries: req.PageBoundaries,
		ContentSpans:   req.ContentSpans,
	}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		return nil, err
	}

	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		return nil, err
	}

	s.log.Info("document", "Document registered for ingestion", map[string]interface{}{
		"document_id": document.Id,
		"filename":    document.Filename,
		"file_size":   document.FileSize,
	})

	return &dto.UploadDocumentResponse{
		Id:     document.Id,
		Status: document.Status,
	}, nil
}

func (s *documentService) Show(ctx context.Context, id uuid.UUID) (*dto.ShowDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, nil // Not found
	}

	chunkCount, err := uow.DocumentChunkRepository().CountByDocumentId(ctx, id)
	if err != nil {
		return nil, err
	}

	return &dto.ShowDocumentResponse{
		Id:         document.Id,
		Filename:   document.Filename,
		FileType:   document.FileType,
		FileSize:   document.FileSize,
		Status:     document.Status,
		ChunkCount: chunkCount,
		UploadedAt: document.UploadedAt,
	}, nil
}

// Delete removes a document together with its chunk batch. Sessions keep
// referencing the id but FetchByDocumentIds filters deleted documents out.
func (s *documentService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if document == nil {
		return nil
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, id); err != nil {
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return err
	}

	return uow.Commit()
}
