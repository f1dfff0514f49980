package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvPort        = "PORT"
	EnvGatewayPort = "GATEWAY_PORT"
	EnvLogLevel    = "LOG_LEVEL"
	EnvLogFormat   = "LOG_FORMAT"

	EnvAPIBaseURL        = "API_BASE_URL"
	EnvAPIRequestTimeout = "API_REQUEST_TIMEOUT"
	EnvAllowedOrigins    = "ALLOWED_ORIGINS"

	EnvStatusSignalKey     = "STATUS_SIGNAL_KEY"
	EnvStatusSignalBackend = "STATUS_SIGNAL_BACKEND"

	EnvSearchDebounce            = "SEARCH_DEBOUNCE"
	EnvSearchPageSize            = "SEARCH_PAGE_SIZE"
	EnvSearchPriceCeiling        = "SEARCH_PRICE_CEILING"
	EnvListingPriceCeiling       = "LISTING_PRICE_CEILING"
	EnvAvailabilityDebounce      = "AVAILABILITY_DEBOUNCE"
	EnvBookingsPollInterval      = "BOOKINGS_POLL_INTERVAL"
	EnvBookingsFastPollInterval  = "BOOKINGS_FAST_POLL_INTERVAL"
	EnvPaymentDelay              = "PAYMENT_DELAY"
	EnvPaymentRedirectDelay      = "PAYMENT_REDIRECT_DELAY"
	EnvTaxRate                   = "TAX_RATE"
	EnvSessionIdleTTL            = "SESSION_IDLE_TTL"
	EnvNotificationInboxCapacity = "NOTIFICATION_INBOX_CAPACITY"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
