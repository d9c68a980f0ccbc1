package service

import (
	"context"

	"ai-studio-be/internal/dto"
	"ai-studio-be/internal/pkg/logger"
	"ai-studio-be/internal/repository/unitofwork"
	"ai-studio-be/pkg/embedding"
	"ai-studio-be/pkg/retrieval"
	ragsession "ai-studio-be/pkg/retrieval/session"
)

// fallbackTopK guards against a zeroed config.
const fallbackTopK = 5

type IQueryService interface {
	// FindRelevantChunks is the single retrieval entry point: it resolves the
	// session scope, vectorizes the query and returns ranked, deduplicated
	// source citations.
	FindRelevantChunks(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error)
}

type queryService struct {
	uowFactory       unitofwork.RepositoryFactory
	embeddingService *embedding.Service
	sessionManager   *ragsession.Manager
	searcher         *retrieval.Searcher
	assembler        *retrieval.Assembler
	defaultTopK      int
	log              logger.ILogger
}

func NewQueryService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingService *embedding.Service,
	sessionManager *ragsession.Manager,
	defaultTopK int,
	log logger.ILogger,
) IQueryService {
	if defaultTopK <= 0 {
		defaultTopK = fallbackTopK
	}
	return &queryService{
		uowFactory:       uowFactory,
		embeddingService: embeddingService,
		sessionManager:   sessionManager,
		searcher:         retrieval.NewSearcher(),
		assembler:        retrieval.NewAssembler(),
		defaultTopK:      defaultTopK,
		log:              log,
	}
}

func (s *queryService) FindRelevantChunks(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error) {
	topK := req.TopK
	if topK <= 0 {
		topK = s.defaultTopK
	}

	// Scope resolution first: an invalid session must fail before any
	// provider call is made.
	scope, err := s.sessionManager.ResolveScope(ctx, req.SessionId)
	if err != nil {
		return nil, err
	}
	if len(scope) == 0 {
		return &dto.QueryResponse{Sources: []retrieval.Source{}, MatchedCount: 0}, nil
	}

	queryVector, err := s.embeddingService.Embed(ctx, req.Query, embedding.TaskTypeQuery)
	if err != nil {
		return nil, err
	}

	// A query cancelled while embedding must not come back with a partially
	// ranked result set.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	candidates, err := uow.DocumentChunkRepository().FetchByDocumentIds(ctx, scope)
	if err != nil {
		return nil, err
	}

	ranked := s.searcher.Rank(queryVector, candidates, topK)
	sources := s.assembler.Assemble(ranked)

	s.log.Info("query", "Retrieval completed", map[string]interface{}{
		"session_id": req.SessionId,
		"top_k":      topK,
		"candidates": len(candidates),
		"matched":    len(ranked),
		"sources":    len(sources),
	})

	return &dto.QueryResponse{
		Sources:      sources,
		MatchedCount: len(ranked),
	}, nil
}
