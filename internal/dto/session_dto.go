package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Title string `json:"title,omitempty" validate:"max=255"`
}

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type GetAllSessionsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type ShowSessionResponse struct {
	Id          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	DocumentIds []uuid.UUID `json:"document_ids"`
	CreatedAt   time.Time   `json:"created_at"`
}

type AttachDocumentRequest struct {
	DocumentId uuid.UUID `json:"document_id" validate:"required"`
}
