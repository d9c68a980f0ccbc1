package bootstrap

import (
	"context"
	"log"

	"ai-studio-be/internal/config"
	"ai-studio-be/internal/controller"
	"ai-studio-be/internal/pkg/logger"
	"ai-studio-be/internal/repository/implementation"
	"ai-studio-be/internal/repository/memory"
	redisstore "ai-studio-be/internal/repository/redis"
	"ai-studio-be/internal/repository/unitofwork"
	"ai-studio-be/internal/service"
	"ai-studio-be/pkg/embedding"
	"ai-studio-be/pkg/retrieval"
	ragsession "ai-studio-be/pkg/retrieval/session"

	pktNats "ai-studio-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	DocumentController controller.IDocumentController
	SessionController  controller.ISessionController
	QueryController    controller.IQueryController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Embedding Provider
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	retryPolicy := embedding.DefaultRetryPolicy()
	retryPolicy.MaxAttempts = cfg.Ai.RetryMaxAttempts
	retryPolicy.BaseDelay = cfg.Ai.RetryBaseDelay
	retryPolicy.MaxDelay = cfg.Ai.RetryMaxDelay
	embeddingService := embedding.NewService(embeddingProvider, cfg.Ai.EmbeddingDimensions, retryPolicy)

	// 4. Session Scope Cache (in-process by default, Redis when configured)
	var scopeCache ragsession.ScopeCache
	if cfg.Retrieval.SessionStore == "redis" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		scopeCache = redisstore.NewScopeCache(rdb, cfg.Retrieval.ScopeIdleTTL)
		log.Printf("[INFO] Using Session Scope Store: REDIS")
	} else {
		scopeCache = memory.NewScopeCache(cfg.Retrieval.ScopeIdleTTL)
		log.Printf("[INFO] Using Session Scope Store: MEMORY")
	}

	sessionRepo := implementation.NewSessionRepository(db)
	sessionManager := ragsession.NewManager(sessionRepo, scopeCache)

	// 5. Infrastructure
	// NATS (lifecycle events, best-effort)
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// 6. Services
	publisherService := service.NewPublisherService(pubSub, cfg.Keys.IngestTopic)
	chunker := retrieval.NewChunker(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)

	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.IngestTopic,
		uowFactory,
		embeddingService,
		chunker,
		natsPub,
		sysLogger,
	)

	documentService := service.NewDocumentService(uowFactory, publisherService, sessionManager, sysLogger)
	sessionService := service.NewSessionService(uowFactory, sessionManager)
	queryService := service.NewQueryService(uowFactory, embeddingService, sessionManager, cfg.Retrieval.DefaultTopK, sysLogger)

	// 7. Controllers
	return &Container{
		DocumentController: controller.NewDocumentController(documentService),
		SessionController:  controller.NewSessionController(sessionService),
		QueryController:    controller.NewQueryController(queryService),

		ConsumerService: consumerService,
		Logger:          sysLogger,
	}
}
