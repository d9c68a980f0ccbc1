package embedding

import (
	"context"
	"fmt"

	"ai-studio-be/internal/pkg/apperrors"
)

// DimensionMismatchError indicates the provider returned a vector of the wrong
// dimensionality. This is a configuration problem (wrong model), never retried.
type DimensionMismatchError struct {
	Got  int
	Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimensionality mismatch: got %d, want %d", e.Got, e.Want)
}

// Service is the single entry point for vectorization. It wraps a provider
// with dimensionality validation and a bounded retry policy.
type Service struct {
	provider   EmbeddingProvider
	dimensions int
	policy     RetryPolicy
}

func NewService(provider EmbeddingProvider, dimensions int, policy RetryPolicy) *Service {
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}
	return &Service{
		provider:   provider,
		dimensions: dimensions,
		policy:     policy,
	}
}

// Dimensions returns the declared vector dimensionality.
func (s *Service) Dimensions() int {
	return s.dimensions
}

// Embed vectorizes a single text. Transient provider failures are retried with
// exponential backoff; once attempts are exhausted the caller gets
// EmbeddingUnavailableError and must surface it, not degrade silently.
func (s *Service) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt < s.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := s.policy.sleep(ctx, s.policy.Delay(attempt-1)); err != nil {
				return nil, err
			}
		}

		res, err := s.provider.Generate(ctx, text, taskType)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		values := res.Embedding.Values
		if len(values) != s.dimensions {
			return nil, &DimensionMismatchError{Got: len(values), Want: s.dimensions}
		}
		return values, nil
	}

	return nil, &apperrors.EmbeddingUnavailableError{
		Attempts: s.policy.MaxAttempts,
		Last:     lastErr,
	}
}

// EmbedBatch vectorizes texts in order. It fails on the first exhausted text;
// the ingestion transaction boundary guarantees nothing partial is persisted.
func (s *Service) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := s.Embed(ctx, text, taskType)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}
