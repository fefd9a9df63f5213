package bootstrap

import (
	"context"
	"log"
	"time"

	"gym-membership-be/internal/config"
	"gym-membership-be/internal/controller"
	"gym-membership-be/internal/handler"
	"gym-membership-be/internal/pkg/logger"
	"gym-membership-be/internal/pkg/mailer"
	"gym-membership-be/internal/repository/memory"
	"gym-membership-be/internal/repository/unitofwork"
	"gym-membership-be/internal/service"
	"gym-membership-be/internal/websocket"
	"gym-membership-be/pkg/clock"
	"gym-membership-be/pkg/dispatch"
	"gym-membership-be/pkg/events"
	"gym-membership-be/pkg/invoice"
	"gym-membership-be/pkg/lifecycle"
	"gym-membership-be/pkg/renewal"

	pktNats "gym-membership-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	LifecycleController controller.ILifecycleController
	AdminController     controller.IAdminController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	closers []func()
}

// Close releases broker connections. Safe to call once on shutdown.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	clk := clock.NewBusinessClock(clock.LoadLocation(cfg.Lifecycle.BusinessTimezone))

	var emailService mailer.IEmailService
	if cfg.SMTP.Host == "" {
		log.Println("[WARN] SMTP_HOST not set, emails will be printed to the console")
		emailService = mailer.NewConsoleEmailService()
	} else {
		emailService = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.Email,
			cfg.SMTP.SenderName,
		)
	}
	dispatcher := dispatch.New(uowFactory, emailService, sysLogger, clk,
		dispatch.WithFailOpen(cfg.Lifecycle.IdempotencyFailOpen),
		dispatch.WithRetry(cfg.Lifecycle.EmailMaxRetries, 500*time.Millisecond, 30*time.Second),
	)

	// 2. Invoice queue (in-process)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	publisherService := service.NewPublisherService(cfg.App.InvoiceTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.InvoiceTopic,
		invoice.NewGenerator(uowFactory, clk),
		sysLogger,
	)

	// 3. Event bus
	var eventPublisher events.Publisher = events.NopPublisher{}
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
			natsSub = nil
		} else {
			c.closers = append(c.closers, natsSub.Close)
		}
	} else {
		log.Println("[WARN] NATS_URL not set, domain events are not published")
	}

	// Redis
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.RealtimeLogPath)
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run(ctx)

	// Relay events from whichever instance ran the batch
	if natsSub != nil {
		relay := service.NewNotificationService(natsSub, wsHub, wsLogger)
		if err := relay.Start(); err != nil {
			log.Printf("[WARN] Realtime relay disabled: %v", err)
		}
	}

	// 4. Services
	lifecycleCfg := lifecycle.Config{
		GraceDays:        cfg.Lifecycle.GraceDays,
		TrainerGraceDays: cfg.Lifecycle.TrainerGraceDays,
		NotificationDays: cfg.Lifecycle.NotificationDays,
		ReminderDays:     cfg.Lifecycle.ReminderDays,
	}
	runner := lifecycle.NewRunner(uowFactory, dispatcher, eventPublisher, clk, sysLogger, lifecycleCfg)
	settings := memory.NewSettingsCache(uowFactory, cfg.Lifecycle.SettingsCacheTTL)
	lifecycleService := service.NewLifecycleService(runner, settings, cfg.Lifecycle.NotificationDays, clk, sysLogger)

	reconciliationService := service.NewReconciliationService(uowFactory, sysLogger)

	approver := renewal.NewApprover(uowFactory, clk, sysLogger,
		renewal.WithMailer(dispatcher),
		renewal.WithInvoices(publisherService),
		renewal.WithBroadcaster(wsHub),
		renewal.WithPublisher(eventPublisher),
	)
	renewalService := service.NewRenewalService(approver)
	adminService := service.NewAdminService(sysLogger)

	// 5. Controllers
	c.LifecycleController = controller.NewLifecycleController(lifecycleService, cfg.Auth.CronSecret, cfg.Auth.JWTSecret)
	c.AdminController = controller.NewAdminController(adminService, reconciliationService, renewalService, cfg.Auth.JWTSecret)
	c.NotificationHandler = handler.NewNotificationHandler(wsHub, cfg.Auth.JWTSecret, wsLogger)
	c.WebSocketHub = wsHub
	c.ConsumerService = consumerService

	return c
}
