package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "staybook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultPort        = "5000"
	DefaultGatewayPort = "8090"
	DefaultLogLevel    = "info"

	DefaultAPIBaseURL        = "http://localhost:5000"
	DefaultAPIRequestTimeout = 10 * time.Second
	DefaultAllowedOrigins    = "http://localhost:3000"

	DefaultStatusSignalKey     = "bookingStatusUpdated"
	DefaultStatusSignalBackend = SignalBackendRedis

	DefaultSearchDebounce            = 500 * time.Millisecond
	DefaultSearchPageSize            = 12
	DefaultSearchPriceCeiling        = 1000
	DefaultListingPriceCeiling       = 10000
	DefaultAvailabilityDebounce      = 1 * time.Second
	DefaultBookingsPollInterval      = 10 * time.Second
	DefaultBookingsFastPollInterval  = 3 * time.Second
	DefaultPaymentDelay              = 3 * time.Second
	DefaultPaymentRedirectDelay      = 2 * time.Second
	DefaultTaxRate                   = 0.10
	DefaultSessionIdleTTL            = 24 * time.Hour
	DefaultNotificationInboxCapacity = 50

	DefaultRateLimitRequests = 120
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100
)
