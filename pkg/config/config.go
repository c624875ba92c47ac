package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"staybook/pkg/client"
	kafka_config "staybook/pkg/kafka/config"
	"staybook/pkg/logger"
	"staybook/pkg/sanitizer"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Port string

	JWTSecret string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	StripeSecretKey     string
	StripeWebhookSecret string
	PaymentCurrency     string
	FrontendURL         string
	GatewayTimeout      time.Duration

	BookingExpiry        time.Duration
	BookingLockTTL       time.Duration
	MinimumBookingAmount float64
	InventoryHorizonDays int

	OccupancyThreshold  float64
	OccupancyMultiplier float64
	UrgencyWindow       time.Duration
	UrgencyMultiplier   float64
	HolidayMultiplier   float64
	HolidayDates        []string

	BookingEventsTopic string
	Kafka              *kafka_config.Config

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, ""),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, 0),

		Port: getEnvStr(EnvPort, DefaultPort),

		JWTSecret: getEnvStr(EnvJWTSecret, ""),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		StripeSecretKey:     getEnvStr(EnvStripeSecretKey, ""),
		StripeWebhookSecret: getEnvStr(EnvStripeWebhookSecret, ""),
		PaymentCurrency:     strings.ToLower(getEnvStr(EnvPaymentCurrency, DefaultPaymentCurrency)),
		FrontendURL:         sanitizer.NormalizeBaseURL(getEnvStr(EnvFrontendURL, DefaultFrontendURL)),
		GatewayTimeout:      getEnvDuration(EnvGatewayTimeout, DefaultGatewayTimeout),

		BookingExpiry:        getEnvDuration(EnvBookingExpiry, DefaultBookingExpiry),
		BookingLockTTL:       getEnvDuration(EnvBookingLockTTL, DefaultBookingLockTTL),
		MinimumBookingAmount: getEnvFloat(EnvMinimumBookingAmount, DefaultMinimumBookingAmount),
		InventoryHorizonDays: getEnvNum(EnvInventoryHorizonDays, DefaultInventoryHorizonDays),

		OccupancyThreshold:  getEnvFloat(EnvOccupancyThreshold, DefaultOccupancyThreshold),
		OccupancyMultiplier: getEnvFloat(EnvOccupancyMultiplier, DefaultOccupancyMultiplier),
		UrgencyWindow:       getEnvDuration(EnvUrgencyWindow, DefaultUrgencyWindow),
		UrgencyMultiplier:   getEnvFloat(EnvUrgencyMultiplier, DefaultUrgencyMultiplier),
		HolidayMultiplier:   getEnvFloat(EnvHolidayMultiplier, DefaultHolidayMultiplier),
		HolidayDates:        getEnvList(EnvHolidayDates),

		BookingEventsTopic: getEnvStr(EnvBookingEventsTopic, DefaultBookingEventsTopic),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if os.Getenv(kafka_config.EnvKafkaBrokers) != "" {
		cfg.Kafka = kafka_config.Load()
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis connects the shared Redis client when REDIS_ADDR is configured.
func (cfg *Config) SetRedis() {
	if cfg.RedisAddr == "" {
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if cfg.JWTSecret == "" {
		errors = append(errors, "JWTSecret cannot be empty")
	}
	if cfg.StripeSecretKey == "" {
		errors = append(errors, "StripeSecretKey cannot be empty")
	}
	if cfg.StripeWebhookSecret == "" {
		errors = append(errors, "StripeWebhookSecret cannot be empty")
	}
	if len(cfg.PaymentCurrency) != 3 {
		errors = append(errors, fmt.Sprintf("PaymentCurrency must be a 3-letter ISO code, got: %s", cfg.PaymentCurrency))
	}
	if u, err := url.Parse(cfg.FrontendURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, fmt.Sprintf("FrontendURL must be an absolute URL, got: %s", cfg.FrontendURL))
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"GatewayTimeout", cfg.GatewayTimeout},
		{"BookingExpiry", cfg.BookingExpiry},
		{"BookingLockTTL", cfg.BookingLockTTL},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}
	if cfg.UrgencyWindow < 0 {
		errors = append(errors, fmt.Sprintf("UrgencyWindow cannot be negative, got: %s", cfg.UrgencyWindow))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.MinimumBookingAmount < 0 {
		errors = append(errors, fmt.Sprintf("MinimumBookingAmount cannot be negative, got: %.2f", cfg.MinimumBookingAmount))
	}
	if cfg.InventoryHorizonDays <= 0 {
		errors = append(errors, fmt.Sprintf("InventoryHorizonDays must be positive, got: %d", cfg.InventoryHorizonDays))
	}

	if cfg.OccupancyThreshold <= 0 || cfg.OccupancyThreshold > 1 {
		errors = append(errors, fmt.Sprintf("OccupancyThreshold must be in (0, 1], got: %.2f", cfg.OccupancyThreshold))
	}
	for name, m := range map[string]float64{
		"OccupancyMultiplier": cfg.OccupancyMultiplier,
		"UrgencyMultiplier":   cfg.UrgencyMultiplier,
		"HolidayMultiplier":   cfg.HolidayMultiplier,
	} {
		if m <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %.2f", name, m))
		}
	}
	for _, d := range cfg.HolidayDates {
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			errors = append(errors, fmt.Sprintf("HolidayDates must use YYYY-MM-DD, got: %s", d))
		}
	}

	if cfg.Kafka != nil && cfg.BookingEventsTopic == "" {
		errors = append(errors, "BookingEventsTopic cannot be empty when Kafka is enabled")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_enabled", cfg.RedisAddr != "",
		"port", cfg.Port,
		"jwt_secret_set", cfg.JWTSecret != "",
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"stripe_key_set", cfg.StripeSecretKey != "",
		"stripe_webhook_secret_set", cfg.StripeWebhookSecret != "",
		"payment_currency", cfg.PaymentCurrency,
		"frontend_url", cfg.FrontendURL,
		"gateway_timeout", cfg.GatewayTimeout,
		"booking_expiry", cfg.BookingExpiry,
		"booking_lock_ttl", cfg.BookingLockTTL,
		"minimum_booking_amount", cfg.MinimumBookingAmount,
		"inventory_horizon_days", cfg.InventoryHorizonDays,
		"occupancy_threshold", cfg.OccupancyThreshold,
		"occupancy_multiplier", cfg.OccupancyMultiplier,
		"urgency_window", cfg.UrgencyWindow,
		"urgency_multiplier", cfg.UrgencyMultiplier,
		"holiday_multiplier", cfg.HolidayMultiplier,
		"holiday_dates", len(cfg.HolidayDates),
		"kafka_enabled", cfg.Kafka != nil,
		"booking_events_topic", cfg.BookingEventsTopic,
	)
	if cfg.Kafka != nil {
		cfg.Kafka.LogConfiguration(cfg.Log.Info)
	}
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	return sanitizer.SplitList(value)
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
