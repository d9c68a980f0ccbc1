package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RetrievalSession struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title     string         `gorm:"type:text"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (RetrievalSession) TableName() string {
	return "retrieval_sessions"
}

// SessionDocument links a session to a document in its retrieval scope.
type SessionDocument struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId  uuid.UUID `gorm:"type:uuid;not null;index:idx_session_document,unique"`
	DocumentId uuid.UUID `gorm:"type:uuid;not null;index:idx_session_document,unique"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (SessionDocument) TableName() string {
	return "session_documents"
}
