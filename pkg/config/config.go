package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"staybook/pkg/client"
	"staybook/pkg/logger"

	"github.com/joho/godotenv"
)

const (
	ServiceBackend = "staybook-backend"
	ServiceGateway = "staybook-gateway"
	ServiceMigrate = "staybook-migrate"
)

const (
	SignalBackendRedis  = "redis"
	SignalBackendMemory = "memory"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Port string

	APIBaseURL        string
	APIRequestTimeout time.Duration
	AllowedOrigins    []string

	StatusSignalKey     string
	StatusSignalBackend string

	SearchDebounce            time.Duration
	SearchPageSize            int
	SearchPriceCeiling        float64
	ListingPriceCeiling       float64
	AvailabilityDebounce      time.Duration
	BookingsPollInterval      time.Duration
	BookingsFastPollInterval  time.Duration
	PaymentDelay              time.Duration
	PaymentRedirectDelay      time.Duration
	TaxRate                   float64
	SessionIdleTTL            time.Duration
	NotificationInboxCapacity int

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

// Load reads the environment (and a .env file when present) for the named
// service. Invalid configuration is fatal.
func Load(serviceName string) *Config {
	_ = godotenv.Load()

	port := getEnvStr(EnvPort, DefaultPort)
	if serviceName == ServiceGateway {
		port = getEnvStr(EnvGatewayPort, DefaultGatewayPort)
	}

	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		Port: port,

		APIBaseURL:        strings.TrimRight(getEnvStr(EnvAPIBaseURL, DefaultAPIBaseURL), "/"),
		APIRequestTimeout: getEnvDuration(EnvAPIRequestTimeout, DefaultAPIRequestTimeout),
		AllowedOrigins:    getEnvList(EnvAllowedOrigins, DefaultAllowedOrigins),

		StatusSignalKey:     getEnvStr(EnvStatusSignalKey, DefaultStatusSignalKey),
		StatusSignalBackend: strings.ToLower(getEnvStr(EnvStatusSignalBackend, DefaultStatusSignalBackend)),

		SearchDebounce:            getEnvDuration(EnvSearchDebounce, DefaultSearchDebounce),
		SearchPageSize:            getEnvNum(EnvSearchPageSize, DefaultSearchPageSize),
		SearchPriceCeiling:        getEnvFloat(EnvSearchPriceCeiling, DefaultSearchPriceCeiling),
		ListingPriceCeiling:       getEnvFloat(EnvListingPriceCeiling, DefaultListingPriceCeiling),
		AvailabilityDebounce:      getEnvDuration(EnvAvailabilityDebounce, DefaultAvailabilityDebounce),
		BookingsPollInterval:      getEnvDuration(EnvBookingsPollInterval, DefaultBookingsPollInterval),
		BookingsFastPollInterval:  getEnvDuration(EnvBookingsFastPollInterval, DefaultBookingsFastPollInterval),
		PaymentDelay:              getEnvDuration(EnvPaymentDelay, DefaultPaymentDelay),
		PaymentRedirectDelay:      getEnvDuration(EnvPaymentRedirectDelay, DefaultPaymentRedirectDelay),
		TaxRate:                   getEnvFloat(EnvTaxRate, DefaultTaxRate),
		SessionIdleTTL:            getEnvDuration(EnvSessionIdleTTL, DefaultSessionIdleTTL),
		NotificationInboxCapacity: getEnvNum(EnvNotificationInboxCapacity, DefaultNotificationInboxCapacity),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    getEnvStr(EnvLogFormat, logger.JSON),
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if cfg.RedisAddr == "" {
		errors = append(errors, "RedisAddr cannot be empty")
	}
	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}

	if u, err := url.Parse(cfg.APIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errors = append(errors, fmt.Sprintf("APIBaseURL must be an absolute http(s) URL, got: %s", cfg.APIBaseURL))
	}
	if cfg.APIRequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("APIRequestTimeout must be positive, got: %s", cfg.APIRequestTimeout))
	}
	if cfg.StatusSignalKey == "" {
		errors = append(errors, "StatusSignalKey cannot be empty")
	}
	if cfg.StatusSignalBackend != SignalBackendRedis && cfg.StatusSignalBackend != SignalBackendMemory {
		errors = append(errors, fmt.Sprintf("StatusSignalBackend must be %q or %q, got: %s", SignalBackendRedis, SignalBackendMemory, cfg.StatusSignalBackend))
	}

	if cfg.SearchDebounce <= 0 {
		errors = append(errors, fmt.Sprintf("SearchDebounce must be positive, got: %s", cfg.SearchDebounce))
	}
	if cfg.SearchPageSize <= 0 {
		errors = append(errors, fmt.Sprintf("SearchPageSize must be positive, got: %d", cfg.SearchPageSize))
	}
	if cfg.SearchPriceCeiling <= 0 {
		errors = append(errors, fmt.Sprintf("SearchPriceCeiling must be positive, got: %g", cfg.SearchPriceCeiling))
	}
	if cfg.ListingPriceCeiling <= 0 {
		errors = append(errors, fmt.Sprintf("ListingPriceCeiling must be positive, got: %g", cfg.ListingPriceCeiling))
	}
	if cfg.AvailabilityDebounce <= 0 {
		errors = append(errors, fmt.Sprintf("AvailabilityDebounce must be positive, got: %s", cfg.AvailabilityDebounce))
	}
	if cfg.BookingsPollInterval <= 0 {
		errors = append(errors, fmt.Sprintf("BookingsPollInterval must be positive, got: %s", cfg.BookingsPollInterval))
	}
	if cfg.BookingsFastPollInterval <= 0 {
		errors = append(errors, fmt.Sprintf("BookingsFastPollInterval must be positive, got: %s", cfg.BookingsFastPollInterval))
	}
	if cfg.PaymentDelay < 0 {
		errors = append(errors, fmt.Sprintf("PaymentDelay cannot be negative, got: %s", cfg.PaymentDelay))
	}
	if cfg.PaymentRedirectDelay < 0 {
		errors = append(errors, fmt.Sprintf("PaymentRedirectDelay cannot be negative, got: %s", cfg.PaymentRedirectDelay))
	}
	if cfg.TaxRate < 0 || cfg.TaxRate > 1 {
		errors = append(errors, fmt.Sprintf("TaxRate must be between 0 and 1, got: %g", cfg.TaxRate))
	}
	if cfg.SessionIdleTTL <= 0 {
		errors = append(errors, fmt.Sprintf("SessionIdleTTL must be positive, got: %s", cfg.SessionIdleTTL))
	}
	if cfg.NotificationInboxCapacity <= 0 {
		errors = append(errors, fmt.Sprintf("NotificationInboxCapacity must be positive, got: %d", cfg.NotificationInboxCapacity))
	}

	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}
	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
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
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"redis_db", cfg.RedisDB,
		"port", cfg.Port,
		"api_base_url", cfg.APIBaseURL,
		"api_request_timeout", cfg.APIRequestTimeout,
		"allowed_origins", cfg.AllowedOrigins,
		"status_signal_key", cfg.StatusSignalKey,
		"status_signal_backend", cfg.StatusSignalBackend,
		"search_debounce", cfg.SearchDebounce,
		"search_page_size", cfg.SearchPageSize,
		"search_price_ceiling", cfg.SearchPriceCeiling,
		"listing_price_ceiling", cfg.ListingPriceCeiling,
		"availability_debounce", cfg.AvailabilityDebounce,
		"bookings_poll_interval", cfg.BookingsPollInterval,
		"bookings_fast_poll_interval", cfg.BookingsFastPollInterval,
		"payment_delay", cfg.PaymentDelay,
		"payment_redirect_delay", cfg.PaymentRedirectDelay,
		"tax_rate", cfg.TaxRate,
		"session_idle_ttl", cfg.SessionIdleTTL,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
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

func getEnvList(key, fallback string) []string {
	raw := getEnvStr(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 || limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
