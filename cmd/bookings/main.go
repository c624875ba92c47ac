package main

import (
	"staybook/internal/bookings/events"
	"staybook/internal/bookings/handler"
	"staybook/internal/bookings/repository"
	"staybook/internal/bookings/service"
	"staybook/internal/bookings/validator"
	catalogrepo "staybook/internal/catalog/repository"
	inventoryhandler "staybook/internal/inventory/handler"
	"staybook/internal/inventory/locker"
	inventoryrepo "staybook/internal/inventory/repository"
	inventoryservice "staybook/internal/inventory/service"
	inventoryvalidator "staybook/internal/inventory/validator"
	"staybook/internal/payments"
	"staybook/internal/pricing"
	"staybook/pkg/app"
	"staybook/pkg/config"
	"staybook/pkg/kafka"
	kafka_middleware "staybook/pkg/kafka/middleware"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Bookings service")
	serverApp := app.NewApplication(cfg)

	publisher := initPublisher(cfg, serverApp)
	locks := locker.New()
	catalog := catalogrepo.NewMongoCatalogRepository(cfg)
	inventoryService := inventoryservice.NewInventoryService(
		inventoryrepo.NewMongoInventoryRepository(cfg),
		catalog,
		locks,
		cfg,
	)
	bookingService := service.NewBookingService(service.Dependencies{
		Repo:      repository.NewMongoBookingRepository(cfg),
		Guests:    repository.NewMongoGuestRepository(cfg),
		Inventory: inventoryService,
		Catalog:   catalog,
		Pricing:   pricing.NewDefaultEngine(cfg),
		Gateway:   payments.NewStripeGateway(cfg),
		Publisher: publisher,
		Validator: validator.NewBookingValidator(),
		Locks:     locks,

		BookingLocks: repository.NewMongoBookingLockRepository(cfg),
	}, cfg)
	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)

	serverApp.SetApp(
		handler.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
		handler.NewBookingHandler(bookingService, cfg.Log),
		handler.NewWebhookHandler(bookingService, payments.NewWebhookVerifier(cfg.StripeWebhookSecret), cfg.Log),
		inventoryhandler.NewInventoryHandler(inventoryService, inventoryvalidator.NewInventoryValidator(), cfg.Log),
	)
	serverApp.Run()
}

// initPublisher returns a Kafka publisher when brokers are configured and a
// no-op one otherwise.
func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	if cfg.Kafka == nil {
		cfg.Log.Info("Kafka not configured, booking events disabled")
		return events.NopPublisher{}
	}

	producer, err := kafka.NewProducer(cfg.Kafka, cfg.BookingEventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err, "topic", cfg.BookingEventsTopic)
	}
	metrics := kafka_middleware.NewPublishMetrics()
	producer.Use(metrics.Middleware())
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	serverApp.OnShutdown("kafka-producer", func() error {
		metrics.LogSummary(cfg.Log)
		return producer.Close()
	})

	cfg.Log.Info("Booking events enabled", "topic", cfg.BookingEventsTopic)
	return events.NewKafkaPublisher(producer, cfg.Log)
}
