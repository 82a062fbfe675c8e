package bootstrap

import (
	"context"
	"log"

	"docmind-be/internal/config"
	"docmind-be/internal/controller"
	"docmind-be/internal/handler"
	"docmind-be/internal/pkg/logger"
	"docmind-be/internal/repository/memory"
	"docmind-be/internal/repository/unitofwork"
	"docmind-be/internal/service"
	"docmind-be/internal/websocket"
	"docmind-be/pkg/inference"

	pktNats "docmind-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatbotController controller.IChatbotController
	ModelController   controller.IModelController
	UploadController  controller.IUploadController

	// Background services, run by main.go
	ConsumerService service.IConsumerService

	// WebSockets & notifications
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	stateRepo := memory.NewStateRepository()

	inferenceClient := inference.NewHTTPClient(cfg.Inference.BaseURL)

	// 2. In-process event bus (title derivation worker)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 External infrastructure. The core keeps working without NATS
	// or Redis; notifications degrade to history-only.
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

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
		rdb = nil
	}

	// WebSocket hub with its own log file
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Services
	publisherService := service.NewPublisherService(pubSub)
	consumerService := service.NewConsumerService(pubSub, uowFactory, stateRepo, sysLogger)

	// NATS may be down; services treat a nil publisher as "no bus".
	var eventPublisher service.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}

	modelService := service.NewModelService(uowFactory, stateRepo)
	sessionService := service.NewSessionService(uowFactory, stateRepo, eventPublisher, sysLogger)
	chatService := service.NewChatService(
		uowFactory,
		stateRepo,
		modelService,
		inferenceClient,
		eventPublisher,
		publisherService,
		sysLogger,
	)
	uploadService := service.NewUploadService(stateRepo, inferenceClient, eventPublisher, sysLogger)

	notifService := service.NewNotificationService(uowFactory, wsHub, wsLogger)
	if natsSub != nil {
		if err := natsSub.Subscribe("events.>", "notif-service-worker", notifService.HandleEvent); err != nil {
			log.Printf("[WARN] Failed to subscribe notification worker: %v", err)
		}
	}

	notifHandler := handler.NewNotificationHandler(notifService, wsHub, wsLogger)

	// 4. Controllers
	return &Container{
		ChatbotController: controller.NewChatbotController(sessionService, chatService),
		ModelController:   controller.NewModelController(modelService),
		UploadController:  controller.NewUploadController(uploadService),

		ConsumerService: consumerService,

		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
	}
}
