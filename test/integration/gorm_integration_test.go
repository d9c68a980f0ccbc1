package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"ai-studio-be/internal/entity"
	"ai-studio-be/internal/repository/unitofwork"
	"ai-studio-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.DocumentRepository())
	assert.NotNil(t, uow.DocumentChunkRepository())
	assert.NotNil(t, uow.SessionRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	// Verify Data Access (implies columns exist)
	t.Run("Check Document Repository", func(t *testing.T) {
		count, err := uow.DocumentRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Document count: %d", count)
	})

	t.Run("Check Document Chunk Repository", func(t *testing.T) {
		count, err := uow.DocumentChunkRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("DocumentChunk count: %d", count)
	})

	t.Run("Check Processed Only Retrieval", func(t *testing.T) {
		ctx := context.Background()

		document := &entity.Document{
			Id:          uuid.New(),
			Filename:    "visibility-test.pdf",
			TextContent: "visibility test content",
			Status:      entity.DocumentStatusUploaded,
		}
		err := uow.DocumentRepository().Create(ctx, document)
		assert.NoError(t, err)

		page := 1
		chunk := &entity.DocumentChunk{
			Id:             uuid.New(),
			DocumentId:     document.Id,
			ChunkText:      "visibility test chunk",
			ChunkIndex:     0,
			EmbeddingValue: make([]float32, 768),
			Metadata: entity.ChunkMetadata{
				PageNumber:  &page,
				ContentType: entity.ContentTypeText,
				Filename:    document.Filename,
			},
		}
		err = uow.DocumentChunkRepository().CreateBulk(ctx, []*entity.DocumentChunk{chunk})
		assert.NoError(t, err)

		scope := []uuid.UUID{document.Id}

		// Chunks of a document that never finished processing must be
		// invisible to retrieval, in every non-terminal and failed state.
		for _, status := range []string{
			entity.DocumentStatusUploaded,
			entity.DocumentStatusProcessing,
			entity.DocumentStatusFailed,
		} {
			err = uow.DocumentRepository().UpdateStatus(ctx, document.Id, status)
			assert.NoError(t, err)
			candidates, err := uow.DocumentChunkRepository().FetchByDocumentIds(ctx, scope)
			assert.NoError(t, err)
			assert.Empty(t, candidates, "status %q must hide chunks from retrieval", status)
		}

		err = uow.DocumentRepository().UpdateStatus(ctx, document.Id, entity.DocumentStatusProcessed)
		assert.NoError(t, err)
		candidates, err := uow.DocumentChunkRepository().FetchByDocumentIds(ctx, scope)
		assert.NoError(t, err)
		if assert.Len(t, candidates, 1) {
			assert.Equal(t, chunk.Id, candidates[0].Id)
		}

		// Cleanup
		_ = uow.DocumentChunkRepository().DeleteByDocumentId(ctx, document.Id)
		_ = uow.DocumentRepository().Delete(ctx, document.Id)
	})

	t.Run("Check Session Scope Round Trip", func(t *testing.T) {
		ctx := context.Background()

		document := &entity.Document{
			Id:          uuid.New(),
			Filename:    "integration-test.pdf",
			TextContent: "integration test content",
			Status:      entity.DocumentStatusUploaded,
		}
		err := uow.DocumentRepository().Create(ctx, document)
		assert.NoError(t, err)

		session := &entity.RetrievalSession{
			Id:    uuid.New(),
			Title: "Integration Session " + uuid.New().String(),
		}
		err = uow.SessionRepository().Create(ctx, session)
		assert.NoError(t, err)

		err = uow.SessionRepository().AttachDocument(ctx, session.Id, document.Id)
		assert.NoError(t, err)

		scope, err := uow.SessionRepository().ResolveScope(ctx, session.Id)
		assert.NoError(t, err)
		assert.Contains(t, scope, document.Id)

		// Attaching twice must not duplicate the scope entry
		err = uow.SessionRepository().AttachDocument(ctx, session.Id, document.Id)
		assert.NoError(t, err)
		scope, err = uow.SessionRepository().ResolveScope(ctx, session.Id)
		assert.NoError(t, err)
		assert.Len(t, scope, 1)

		// Cleanup
		_ = uow.SessionRepository().Delete(ctx, session.Id)
		_ = uow.DocumentRepository().Delete(ctx, document.Id)
	})
}
