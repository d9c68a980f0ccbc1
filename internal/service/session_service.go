package service

import (
	"context"
	"fmt"
	"time"

	"ai-studio-be/internal/dto"
	"ai-studio-be/internal/entity"
	"ai-studio-be/internal/repository/specification"
	"ai-studio-be/internal/repository/unitofwork"
	ragsession "ai-studio-be/pkg/retrieval/session"

	"github.com/google/uuid"
)

type ISessionService interface {
	Create(ctx context.Context, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetAll(ctx context.Context) ([]*dto.GetAllSessionsResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ShowSessionResponse, error)
	AttachDocument(ctx context.Context, sessionId uuid.UUID, req *dto.AttachDocumentRequest) error
	Close(ctx context.Context, id uuid.UUID) error
}

type sessionService struct {
	uowFactory     unitofwork.RepositoryFactory
	sessionManager *ragsession.Manager
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	sessionManager *ragsession.Manager,
) ISessionService {
	return &sessionService{
		uowFactory:     uowFactory,
		sessionManager: sessionManager,
	}
}

func (s *sessionService) Create(ctx context.Context, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	title := req.Title
	if title == "" {
		title = "Session " + time.Now().Format("2006-01-02 15:04")
	}

	session := entity.RetrievalSession{
		Id:        uuid.New(),
		Title:     title,
		CreatedAt: time.Now(),
	}

	if err := uow.SessionRepository().Create(ctx, &session); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{
		Id: session.Id,
	}, nil
}

func (s *sessionService) GetAll(ctx context.Context) ([]*dto.GetAllSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.SessionRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.GetAllSessionsResponse, len(sessions))
	for i, session := range sessions {
		res[i] = &dto.GetAllSessionsResponse{
			Id:        session.Id,
			Title:     session.Title,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
		}
	}
	return res, nil
}

func (s *sessionService) Show(ctx context.Context, id uuid.UUID) (*dto.ShowSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	return &dto.ShowSessionResponse{
		Id:          session.Id,
		Title:       session.Title,
		DocumentIds: session.DocumentIds,
		CreatedAt:   session.CreatedAt,
	}, nil
}

func (s *sessionService) AttachDocument(ctx context.Context, sessionId uuid.UUID, req *dto.AttachDocumentRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("session %s not found", sessionId)
	}

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: req.DocumentId})
	if err != nil {
		return err
	}
	if document == nil {
		return fmt.Errorf("document %s not found", req.DocumentId)
	}

	if err := uow.SessionRepository().AttachDocument(ctx, sessionId, req.DocumentId); err != nil {
		return err
	}

	s.sessionManager.Invalidate(ctx, sessionId)
	return nil
}

// Close tears the session down. Documents referenced by the session are left
// untouched; the session only scoped them.
func (s *sessionService) Close(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.SessionRepository().Delete(ctx, id); err != nil {
		return err
	}

	s.sessionManager.Invalidate(ctx, id)
	return nil
}
