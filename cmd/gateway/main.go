package main

import (
	"context"
	"time"

	"staybook/internal/gateway"
	"staybook/internal/health"
	"staybook/internal/history"
	"staybook/internal/payment"
	"staybook/internal/search"
	"staybook/internal/session"
	"staybook/pkg/app"
	"staybook/pkg/client"
	"staybook/pkg/config"
	"staybook/pkg/kafka"
	kafka_config "staybook/pkg/kafka/config"
	kafkamw "staybook/pkg/kafka/middleware"
	"staybook/pkg/middleware"
	"staybook/pkg/model"
	"staybook/pkg/signal"
)

const backendWait = 60 * time.Second

func main() {
	cfg := config.Load(config.ServiceGateway)
	cfg.Log.Info("Starting StayBook session gateway", "backend", cfg.APIBaseURL)

	httpClient := client.NewHttpClient(cfg.APIBaseURL, cfg.APIRequestTimeout, cfg.Log)
	waitCtx, cancel := context.WithTimeout(context.Background(), backendWait)
	if err := httpClient.WaitForHealthy(waitCtx, backendWait); err != nil {
		cfg.Log.Warn("Backend not healthy yet, continuing", "error", err)
	}
	cancel()

	api := client.NewAPI(httpClient)
	backend := func(token string) session.Backend {
		scoped := api.WithToken(token)
		return session.Backend{Hotels: scoped.Hotels, Bookings: scoped.Bookings}
	}

	shared := initSignal(cfg)
	registry := session.NewRegistry(backend, shared, sessionSettings(cfg), cfg.SessionIdleTTL, cfg.Log)

	healthHandler := health.NewHealthHandler(cfg.Log).
		WithCheck("backend", httpClient.Ping)
	if cfg.Client.Redis != nil {
		healthHandler.WithCheck("redis", func(ctx context.Context) error {
			return cfg.Client.Redis.Ping(ctx).Err()
		})
	}

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, healthHandler, middleware.SessionKeyExtractor,
		gateway.NewGatewayHandler(registry, cfg.Log),
	)
	serverApp.AddWorker(registry.Run)
	initConsumer(cfg, serverApp, healthHandler, shared)
	serverApp.OnShutdown(registry.Close)
	serverApp.OnShutdown(cfg.GracefulShutdown)
	serverApp.Run()
}

func initSignal(cfg *config.Config) signal.Signal {
	if cfg.StatusSignalBackend == config.SignalBackendMemory {
		cfg.Log.Info("Using in-process booking status signal")
		return signal.NewMemorySignal()
	}
	cfg.SetRedis()
	return signal.NewRedisSignal(cfg.Client.Redis, cfg.StatusSignalKey, cfg.Log)
}

func sessionSettings(cfg *config.Config) session.Settings {
	return session.Settings{
		Ceilings: search.Ceilings{
			Search:  cfg.SearchPriceCeiling,
			Listing: cfg.ListingPriceCeiling,
		},
		Listing: search.ListingConfig{
			Debounce:       cfg.SearchDebounce,
			PageSize:       cfg.SearchPageSize,
			RequestTimeout: cfg.APIRequestTimeout,
		},
		AvailabilityDebounce: cfg.AvailabilityDebounce,
		RequestTimeout:       cfg.APIRequestTimeout,
		Intervals: history.Intervals{
			MyBookings:    cfg.BookingsPollInterval,
			BookingStatus: cfg.BookingsFastPollInterval,
		},
		Payment: payment.Config{
			Delay:         cfg.PaymentDelay,
			RedirectDelay: cfg.PaymentRedirectDelay,
		},
		TaxRate:       cfg.TaxRate,
		InboxCapacity: cfg.NotificationInboxCapacity,
	}
}

// initConsumer touches the shared status signal for every booking status
// event, so sessions refresh without waiting for their next poll.
func initConsumer(cfg *config.Config, serverApp *app.Application, healthHandler *health.HealthHandler, shared signal.Signal) {
	kcfg := kafka_config.Load(cfg.Log)
	if !kcfg.Enabled {
		cfg.Log.Info("Kafka disabled, sessions rely on the status signal and polling")
		return
	}

	onEvent := func(ctx context.Context, event model.BookingStatusEvent) error {
		_, err := shared.Touch(ctx)
		return err
	}
	consumer, err := kafka.NewConsumer(kcfg, kcfg.BookingStatusTopic, kcfg.GatewayGroupID, kcfg.DLQTopic,
		kafka.BookingStatusHandler(onEvent), cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	metrics := kafkamw.NewMetrics()
	consumer.Use(kafkamw.LoggingConsumerMiddleware(cfg.Log))
	consumer.Use(metrics.Consumer())
	healthHandler.WithStats("kafka", func() any { return metrics.Snapshot() })

	serverApp.AddWorker(func(ctx context.Context) {
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			cfg.Log.Error("Kafka consumer stopped", "error", err)
		}
	})
	serverApp.OnShutdown(func() {
		if err := consumer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka consumer", "error", err)
		}
	})
}
