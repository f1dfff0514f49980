package main

import (
	"context"
	"net/http"

	bookingshandler "staybook/internal/bookings/handler"
	bookingsrepo "staybook/internal/bookings/repository"
	bookingsservice "staybook/internal/bookings/service"
	"staybook/internal/bookings/validator"
	"staybook/internal/health"
	hotelshandler "staybook/internal/hotels/handler"
	hotelsrepo "staybook/internal/hotels/repository"
	hotelsservice "staybook/internal/hotels/service"
	"staybook/pkg/app"
	"staybook/pkg/config"
	httputil "staybook/pkg/http"
	"staybook/pkg/kafka"
	kafka_config "staybook/pkg/kafka/config"
	kafkamw "staybook/pkg/kafka/middleware"
	"staybook/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

// indexHandler answers GET / so probes hitting the root get a body.
type indexHandler struct{}

func (indexHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		httputil.WriteSuccess(w, map[string]string{"message": "StayBook API is running"})
	})
}

func main() {
	cfg := config.Load(config.ServiceBackend)
	cfg.SetMongo()

	cfg.Log.Info("Starting StayBook backend")
	metrics := kafkamw.NewMetrics()
	publisher, closePublisher := initPublisher(cfg, metrics)

	hotelRepo := hotelsrepo.NewMongoHotelRepository(cfg)
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	hotelService := hotelsservice.NewHotelService(hotelRepo, bookingRepo, cfg)
	bookingService := bookingsservice.NewBookingService(
		bookingRepo,
		bookingsrepo.NewRoomLockRepository(cfg),
		hotelRepo,
		validator.NewBookingValidator(cfg.Log),
		kafka.NewBookingEventPublisher(publisher, config.ServiceBackend),
		cfg,
	)
	cfg.Log.Info("Backend services initialized", "database", cfg.MongoDatabaseName)

	healthHandler := health.NewHealthHandler(cfg.Log).
		WithCheck("database", func(ctx context.Context) error {
			return cfg.Client.Mongo.Ping(ctx, nil)
		}).
		WithStats("kafka", func() any { return metrics.Snapshot() })

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, healthHandler, middleware.ClientIP,
		indexHandler{},
		hotelshandler.NewHotelHandler(hotelService, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
	)
	serverApp.OnShutdown(closePublisher)
	serverApp.OnShutdown(cfg.GracefulShutdown)
	serverApp.Run()
}

func initPublisher(cfg *config.Config, metrics *kafkamw.Metrics) (kafka.Publisher, func()) {
	kcfg := kafka_config.Load(cfg.Log)
	if !kcfg.Enabled {
		cfg.Log.Info("Kafka disabled, booking status events are not published")
		return kafka.NopPublisher{}, func() {}
	}

	producer, err := kafka.NewProducer(kcfg, kcfg.BookingStatusTopic, kcfg.DLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafkamw.LoggingProducerMiddleware(cfg.Log))
	producer.Use(metrics.Producer())
	return producer, func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}
}
