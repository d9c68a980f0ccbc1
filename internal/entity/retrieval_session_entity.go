package entity

import (
	"time"

	"github.com/google/uuid"
)

// RetrievalSession is the isolation boundary for retrieval. A session
// references documents, it does not own them; closing a session never
// deletes documents.
type RetrievalSession struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title       string
	DocumentIds []uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}
