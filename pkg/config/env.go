package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvJWTSecret = "JWT_SECRET"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvStripeSecretKey     = "STRIPE_SECRET_KEY"
	EnvStripeWebhookSecret = "STRIPE_WEBHOOK_SECRET"
	EnvPaymentCurrency     = "PAYMENT_CURRENCY"
	EnvFrontendURL         = "FRONTEND_URL"
	EnvGatewayTimeout      = "PAYMENT_GATEWAY_TIMEOUT"

	EnvBookingExpiry        = "BOOKING_EXPIRY"
	EnvBookingLockTTL       = "BOOKING_LOCK_TTL"
	EnvMinimumBookingAmount = "MINIMUM_BOOKING_AMOUNT"
	EnvInventoryHorizonDays = "INVENTORY_HORIZON_DAYS"

	EnvOccupancyThreshold  = "PRICING_OCCUPANCY_THRESHOLD"
	EnvOccupancyMultiplier = "PRICING_OCCUPANCY_MULTIPLIER"
	EnvUrgencyWindow       = "PRICING_URGENCY_WINDOW"
	EnvUrgencyMultiplier   = "PRICING_URGENCY_MULTIPLIER"
	EnvHolidayMultiplier   = "PRICING_HOLIDAY_MULTIPLIER"
	EnvHolidayDates        = "PRICING_HOLIDAY_DATES"

	EnvBookingEventsTopic = "BOOKING_EVENTS_TOPIC"
)
