package main

import (
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/fbkorg/chatbot-backend/internal/db"
	"github.com/fbkorg/chatbot-backend/internal/http/handlers"
	"github.com/fbkorg/chatbot-backend/internal/platform/config"
	"github.com/fbkorg/chatbot-backend/internal/platform/logger"
	"github.com/fbkorg/chatbot-backend/internal/platform/openai"
	"github.com/fbkorg/chatbot-backend/internal/repos"
	"github.com/fbkorg/chatbot-backend/internal/server"
	"github.com/fbkorg/chatbot-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	cfg, err := config.Load(log)
	if err != nil {
		log.Error("Could not load config", "error", err)
		os.Exit(1)
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log, db.PostgresConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Name:     cfg.Postgres.Name,
		SSLMode:  cfg.Postgres.SSLMode,
	})
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Redis (optional; only the chat rate limiter uses it)
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
	} else {
		log.Warn("REDIS_ADDR not set, chat rate limiting disabled")
	}

	// OpenAI
	openaiClient, err := openai.NewClient(log, openai.Config{
		APIKey:         cfg.OpenAI.APIKey,
		BaseURL:        cfg.OpenAI.BaseURL,
		ChatModel:      cfg.OpenAI.ChatModel,
		EmbedModel:     cfg.OpenAI.EmbedModel,
		TimeoutSeconds: cfg.OpenAI.TimeoutSeconds,
	})
	if err != nil {
		log.Error("Could not init OpenAI client", "error", err)
		os.Exit(1)
	}

	// Repos
	log.Info("Setting up repos from main...")
	documentRepo := repos.NewDocumentRepo(thePG, log)
	chunkRepo := repos.NewChunkRepo(thePG, log)
	sessionRepo := repos.NewChatSessionRepo(thePG, log)
	messageRepo := repos.NewChatMessageRepo(thePG, log)
	feedbackRepo := repos.NewChatFeedbackRepo(thePG, log)

	// Services
	log.Info("Setting up services from main...")
	embeddingService := services.NewEmbeddingService(openaiClient, log)
	ingestionService := services.NewIngestionService(documentRepo, chunkRepo, embeddingService, log)
	documentService := services.NewDocumentService(documentRepo, ingestionService, log)
	retrievalService := services.NewRetrievalService(embeddingService, chunkRepo, cfg.Chat.SimilarityThreshold, log)
	chatService := services.NewChatService(retrievalService, openaiClient, sessionRepo, messageRepo, cfg.Chat.RetrievalTopK, log)

	// Handlers
	log.Info("Setting up handlers from main...")
	chatHandler := handlers.NewChatHandler(log, chatService)
	feedbackHandler := handlers.NewFeedbackHandler(log, feedbackRepo)
	documentHandler := handlers.NewDocumentHandler(log, documentService)
	healthHandler := handlers.NewHealthHandler()

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		Log:              log,
		ChatHandler:      chatHandler,
		FeedbackHandler:  feedbackHandler,
		DocumentHandler:  documentHandler,
		HealthHandler:    healthHandler,
		Redis:            rdb,
		ChatRatePerMin:   cfg.RateLimit.PerMinute,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})

	log.Info("Server listening", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
