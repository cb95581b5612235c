package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maratgil/eventbooking/config"
	"github.com/maratgil/eventbooking/internal/bootstrap"
	"github.com/maratgil/eventbooking/internal/cache"
	"github.com/maratgil/eventbooking/internal/database"
	"github.com/maratgil/eventbooking/internal/gateway"
	"github.com/maratgil/eventbooking/internal/kafka"
	"github.com/maratgil/eventbooking/internal/repository"
	"github.com/maratgil/eventbooking/internal/service/booking"
	"github.com/maratgil/eventbooking/internal/service/events"
	"github.com/maratgil/eventbooking/internal/service/payments"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(cfg.Database.DSN()); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	pool, err := database.NewPool(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Payments.EventsCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	gatewayClient := gateway.NewHTTPClient(cfg.Gateway, log)

	paymentRepo := repository.NewPaymentRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	eventRepo := repository.NewEventRepository(pool)

	factory := booking.NewFactory(bookingRepo, log)
	paymentService := payments.NewService(
		paymentRepo,
		bookingRepo,
		eventRepo,
		gatewayClient,
		factory,
		cfg.Gateway,
		log,
		payments.WithNotifications(producer, cfg.Kafka.NotificationsTopic),
		payments.WithSettleLock(redisCache, cfg.Payments.SettleLockTTL()),
	)
	eventService := events.NewEventService(eventRepo, redisCache, time.Duration(cfg.Payments.EventsCacheTTL)*time.Second, log)

	if err := bootstrap.Run(ctx, cfg, paymentService, eventService, log); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
