package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "staybook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaymentCurrency = "inr"
	DefaultFrontendURL     = "http://localhost:3000"
	DefaultGatewayTimeout  = 10 * time.Second

	DefaultBookingExpiry        = 10 * time.Minute
	DefaultBookingLockTTL       = 30 * time.Second
	DefaultMinimumBookingAmount = 50.0
	// Inventory is opened for today through today+horizon inclusive; 366
	// reaches the same date next year across a leap day.
	DefaultInventoryHorizonDays = 366

	DefaultOccupancyThreshold  = 0.8
	DefaultOccupancyMultiplier = 1.2
	DefaultUrgencyWindow       = 7 * 24 * time.Hour
	DefaultUrgencyMultiplier   = 1.15
	DefaultHolidayMultiplier   = 1.25

	DefaultBookingEventsTopic = "booking-events"

	DefaultPaginationLimit = 100
)
