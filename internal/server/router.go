package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/fbkorg/chatbot-backend/internal/http/handlers"
	"github.com/fbkorg/chatbot-backend/internal/http/middleware"
	"github.com/fbkorg/chatbot-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log              *logger.Logger
	ChatHandler      *handlers.ChatHandler
	FeedbackHandler  *handlers.FeedbackHandler
	DocumentHandler  *handlers.DocumentHandler
	HealthHandler    *handlers.HealthHandler
	Redis            *redis.Client
	ChatRatePerMin   int
	CORSAllowOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(middleware.CORS(cfg.CORSAllowOrigins))

	router.GET("/healthcheck", cfg.HealthHandler.Check)

	api := router.Group("/api")
	{
		chatLimit := middleware.RateLimit(cfg.Redis, cfg.ChatRatePerMin, time.Minute, cfg.Log)
		api.POST("/chat", chatLimit, cfg.ChatHandler.Turn)
		api.GET("/chat/history", cfg.ChatHandler.History)
		api.POST("/feedback", cfg.FeedbackHandler.Submit)

		admin := api.Group("/admin")
		{
			admin.POST("/documents", cfg.DocumentHandler.Upload)
			admin.GET("/documents", cfg.DocumentHandler.List)
			admin.POST("/documents/reingest", cfg.DocumentHandler.ReingestAll)
			admin.POST("/documents/:id/ingest", cfg.DocumentHandler.Ingest)
			admin.DELETE("/documents/:id", cfg.DocumentHandler.Delete)
		}
	}

	return router
}
