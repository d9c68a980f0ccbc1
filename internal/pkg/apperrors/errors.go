package apperrors

import (
	"fmt"

	"github.com/google/uuid"
)

// MalformedDocumentError indicates the extracted text of a document cannot be
// chunked (empty or unusable input). Fatal to that ingestion only.
type MalformedDocumentError struct {
	DocumentId uuid.UUID
	Reason     string
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed document %s: %s", e.DocumentId, e.Reason)
}

// EmbeddingUnavailableError indicates the embedding provider kept failing after
// all retry attempts were used up.
type EmbeddingUnavailableError struct {
	Attempts int
	Last     error
}

func (e *EmbeddingUnavailableError) Error() string {
	return fmt.Sprintf("embedding provider unavailable after %d attempts: %v", e.Attempts, e.Last)
}

func (e *EmbeddingUnavailableError) Unwrap() error {
	return e.Last
}

// NoActiveSessionError indicates a query arrived without a resolvable retrieval
// session. Retrieval never falls back to "all documents".
type NoActiveSessionError struct {
	SessionId uuid.UUID
}

func (e *NoActiveSessionError) Error() string {
	if e.SessionId == uuid.Nil {
		return "no active retrieval session"
	}
	return fmt.Sprintf("retrieval session %s not found or closed", e.SessionId)
}

// StoreInconsistencyError indicates the persisted chunk count does not match
// what was written. The whole chunk batch must be rolled back.
type StoreInconsistencyError struct {
	DocumentId uuid.UUID
	Expected   int
	Got        int64
}

func (e *StoreInconsistencyError) Error() string {
	return fmt.Sprintf("chunk store inconsistency for document %s: expected %d chunks, found %d", e.DocumentId, e.Expected, e.Got)
}
