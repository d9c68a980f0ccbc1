package entity

import (
	"time"

	"github.com/google/uuid"
)

// Chunk content types as detected during extraction.
const (
	ContentTypeText         = "text"
	ContentTypeTable        = "table"
	ContentTypeImageCaption = "image-caption"
)

// ChunkMetadata is the typed view of the metadata JSON stored with each chunk.
// PageNumber is nil when the source document carried no page information;
// "page 0" and "unknown page" are different things.
type ChunkMetadata struct {
	PageNumber  *int   `json:"page_number,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Filename    string `json:"filename,omitempty"`
}

// IsEmpty reports whether the chunk predates metadata enrichment entirely.
func (m ChunkMetadata) IsEmpty() bool {
	return m.PageNumber == nil && m.ContentType == "" && m.Filename == ""
}

type DocumentChunk struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	DocumentId     uuid.UUID `gorm:"type:uuid;index"`
	ChunkText      string
	ChunkIndex     int
	EmbeddingValue []float32
	Metadata       ChunkMetadata
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
