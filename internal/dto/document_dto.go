package dto

import (
	"time"

	"github.com/google/uuid"
)

// PageBoundaryDTO maps a rune offset in the extracted text to the page that
// starts there.
type PageBoundaryDTO struct {
	Offset int `json:"offset" validate:"min=0"`
	Page   int `json:"page" validate:"min=1"`
}

// ContentSpanDTO marks a region of the extracted text with a detected content
// type ("text", "table", "image-caption").
type ContentSpanDTO struct {
	Start       int    `json:"start" validate:"min=0"`
	End         int    `json:"end" validate:"min=0"`
	ContentType string `json:"content_type" validate:"required"`
}

type UploadDocumentRequest struct {
	Filename       string            `json:"filename" validate:"required,max=255"`
	StorageKey     string            `json:"storage_key,omitempty"`
	FileSize       int64             `json:"file_size,omitempty"`
	FileType       string            `json:"file_type,omitempty"`
	TextContent    string            `json:"text_content" validate:"required"`
	PageBoundaries []PageBoundaryDTO `json:"page_boundaries,omitempty" validate:"dive"`
	ContentSpans   []ContentSpanDTO  `json:"content_spans,omitempty" validate:"dive"`
	SessionId      *uuid.UUID        `json:"session_id,omitempty"` // attach to a session right away
}

type UploadDocumentResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type ShowDocumentResponse struct {
	Id         uuid.UUID `json:"id"`
	Filename   string    `json:"filename"`
	FileType   string    `json:"file_type"`
	FileSize   int64     `json:"file_size"`
	Status     string    `json:"status"`
	ChunkCount int64     `json:"chunk_count"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// PublishEmbedDocumentMessage is the ingestion queue payload. Page and
// content-type hints ride along because they are not persisted with the
// document row.
type PublishEmbedDocumentMessage struct {
	DocumentId     uuid.UUID         `json:"document_id"`
	PageBoundaries []PageBoundaryDTO `json:"page_boundaries,omitempty"`
	ContentSpans   []ContentSpanDTO  `json:"content_spans,omitempty"`
}
