package bootstrap

import (
	"context"
	"log"

	"ai-reqanalyzer-be/internal/config"
	"ai-reqanalyzer-be/internal/controller"
	"ai-reqanalyzer-be/internal/handler"
	"ai-reqanalyzer-be/internal/pkg/logger"
	"ai-reqanalyzer-be/internal/pkg/ratelimit"
	"ai-reqanalyzer-be/internal/repository/unitofwork"
	"ai-reqanalyzer-be/internal/service"
	"ai-reqanalyzer-be/internal/websocket"
	"ai-reqanalyzer-be/pkg/llm/factory"

	pktNats "ai-reqanalyzer-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AnalysisController  controller.IAnalysisController
	RetentionController controller.IRetentionController

	// Background Services (Exposed for main.go to run)
	NotifierService *service.NotifierService

	// WebSockets
	EventsHandler *handler.EventsHandler
	WebSocketHub  *websocket.Hub
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

	// Initialize LLM Provider based on Config
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	redisUp := true
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		redisUp = false
	}

	// Token budget: shared counters when Redis is reachable, local otherwise
	var budget ratelimit.TokenBudget
	if redisUp {
		budget = ratelimit.NewRedisBudget(cfg.Budget.DailyTokens, rdb)
	} else {
		budget = ratelimit.NewMemoryBudget(cfg.Budget.DailyTokens)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Services
	analysisService := service.NewAnalysisService(
		uowFactory,
		llmProvider,
		budget,
		pubSub,
		sysLogger,
	)

	retentionAudit := logger.NewIsolatedLogger(cfg.App.RetentionLogPath)
	retentionService := service.NewRetentionService(uowFactory, retentionAudit)

	notifierService := service.NewNotifierService(pubSub, wsHub, natsPub, sysLogger)

	eventsHandler := handler.NewEventsHandler(wsHub, wsLogger)

	// 4. Controllers
	return &Container{
		EventsHandler:       eventsHandler,
		WebSocketHub:        wsHub,
		AnalysisController:  controller.NewAnalysisController(analysisService),
		RetentionController: controller.NewRetentionController(retentionService),

		NotifierService: notifierService,
	}
}
