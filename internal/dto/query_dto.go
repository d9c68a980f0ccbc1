package dto

import (
	"ai-studio-be/pkg/retrieval"

	"github.com/google/uuid"
)

type QueryRequest struct {
	SessionId uuid.UUID `json:"session_id" validate:"required"`
	Query     string    `json:"query" validate:"required"`
	TopK      int       `json:"top_k,omitempty" validate:"omitempty,min=1,max=50"`
}

type QueryResponse struct {
	Sources      []retrieval.Source `json:"sources"`
	MatchedCount int                `json:"matched_count"`
}
