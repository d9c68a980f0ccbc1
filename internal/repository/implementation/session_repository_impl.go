package implementation

import (
	"context"
	"errors"

	"ai-studio-be/internal/entity"
	"ai-studio-be/internal/mapper"
	"ai-studio-be/internal/model"
	"ai-studio-be/internal/repository/contract"
	"ai-studio-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewSessionRepository(db *gorm.DB) contract.SessionRepository {
	return &SessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *SessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SessionRepositoryImpl) Create(ctx context.Context, session *entity.RetrievalSession) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *SessionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.RetrievalSession{}, id).Error
}

func (r *SessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.RetrievalSession, error) {
	var m model.RetrievalSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	session := r.mapper.ToEntity(&m)
	docIds, err := r.ResolveScope(ctx, session.Id)
	if err != nil {
		return nil, err
	}
	session.DocumentIds = docIds
	return session, nil
}

func (r *SessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RetrievalSession, error) {
	var models []*model.RetrievalSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *SessionRepositoryImpl) AttachDocument(ctx context.Context, sessionId uuid.UUID, documentId uuid.UUID) error {
	link := model.SessionDocument{
		Id:         uuid.New(),
		SessionId:  sessionId,
		DocumentId: documentId,
	}
	// Attaching the same document twice is a no-op.
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "document_id"}},
			DoNothing: true,
		}).
		Create(&link).Error
}

func (r *SessionRepositoryImpl) ResolveScope(ctx context.Context, sessionId uuid.UUID) ([]uuid.UUID, error) {
	var docIds []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.SessionDocument{}).
		Where("session_id = ?", sessionId).
		Order("created_at ASC").
		Pluck("document_id", &docIds).Error
	if err != nil {
		return nil, err
	}
	return docIds, nil
}
