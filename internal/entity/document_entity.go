package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document lifecycle statuses. Transitions are monotonic:
// uploaded -> processing -> processed | failed.
const (
	DocumentStatusUploaded   = "uploaded"
	DocumentStatusProcessing = "processing"
	DocumentStatusProcessed  = "processed"
	DocumentStatusFailed     = "failed"
)

type Document struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Filename    string
	StorageKey  string
	FileSize    int64
	FileType    string
	TextContent string
	Status      string
	UploadedAt  time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}
