package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByStatus filters documents by lifecycle status
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// ByDocumentIds filters chunks by their owning documents
type ByDocumentIds struct {
	DocumentIds []uuid.UUID
}

func (s ByDocumentIds) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id IN ?", s.DocumentIds)
}

// BySessionId filters session_documents rows by session
type BySessionId struct {
	SessionId uuid.UUID
}

func (s BySessionId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionId)
}
