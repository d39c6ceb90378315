package bootstrap

import (
	"log"

	"sight-gateway/internal/config"
	"sight-gateway/internal/controller"
	"sight-gateway/internal/pkg/logger"
	"sight-gateway/internal/repository/memory"
	"sight-gateway/internal/service"
	completionOpenai "sight-gateway/pkg/completion/openai"
	"sight-gateway/pkg/database"
	"sight-gateway/pkg/embedding"
	"sight-gateway/pkg/rag/conversation"
	"sight-gateway/pkg/retrieval"
	retrievalOpenai "sight-gateway/pkg/retrieval/openai"
	retrievalPgvector "sight-gateway/pkg/retrieval/pgvector"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Container struct {
	// Controllers
	QueryController controller.IQueryController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Core Facades
	Logger logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Backend Clients
	completionProvider := completionOpenai.NewProvider(cfg.Model.BaseURL, cfg.Keys.OpenAI)

	// Initialize Search Provider based on Config
	var searcher retrieval.Searcher
	if cfg.Search.Provider == "pgvector" {
		gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		embeddingProvider := embedding.NewOllamaProvider(cfg.Search.OllamaBaseURL, cfg.Search.EmbedModel)
		searcher = retrievalPgvector.NewSearcher(gormDB, embeddingProvider, cfg.Search.TopK)
		log.Printf("[INFO] Using Search Provider: PGVECTOR (%s)", cfg.Search.EmbedModel)
	} else {
		searcher = retrievalOpenai.NewSearcher(cfg.Model.BaseURL, cfg.Keys.OpenAI, cfg.Search.VectorStoreId, cfg.Search.TopK)
		log.Printf("[INFO] Using Search Provider: OPENAI (%s)", cfg.Search.VectorStoreId)
	}

	// 4. Repositories & Domain Components
	conversationRepo := memory.NewConversationRepository()
	conversationManager := conversation.NewManager(
		completionProvider,
		conversationRepo,
		cfg.Model.SystemInstructions,
		sysLogger,
	)

	// 5. Services
	publisherService := service.NewPublisherService(pubSub, cfg.App.AuditTopic)
	gatewayService := service.NewGatewayService(
		cfg,
		searcher,
		completionProvider,
		conversationManager,
		publisherService,
		sysLogger,
	)
	consumerService := service.NewConsumerService(pubSub, cfg.App.AuditTopic, conversationRepo, sysLogger)

	// 6. Controllers
	queryController := controller.NewQueryController(gatewayService, cfg)

	return &Container{
		QueryController: queryController,
		ConsumerService: consumerService,
		Logger:          sysLogger,
	}
}
