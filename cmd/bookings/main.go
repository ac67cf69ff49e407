package main

import (
	"mymentor/internal/bookings/handler"
	"mymentor/internal/bookings/repository"
	"mymentor/internal/bookings/service"
	"mymentor/internal/bookings/validator"
	classrepository "mymentor/internal/classes/repository"
	schedulehandler "mymentor/internal/schedule/handler"
	scheduleservice "mymentor/internal/schedule/service"
	"mymentor/pkg/app"
	"mymentor/pkg/config"
	"mymentor/pkg/contracts"
	"mymentor/pkg/events"

	"github.com/julienschmidt/httprouter"
)

const ServiceName = "bookings"

// compositeHandler mounts the booking lifecycle routes and the derived
// schedule view on the same server; both read the same ledger.
type compositeHandler struct {
	handlers []contracts.Handler
}

func (c *compositeHandler) RegisterRoutes(router *httprouter.Router) {
	for _, h := range c.handlers {
		h.RegisterRoutes(router)
	}
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Bookings service")

	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.BookingEventsTopic, cfg.BookingEventsDLQTopic)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka publisher", "error", err)
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		cfg.Log.Info("Booking event publishing enabled",
			"topic", cfg.BookingEventsTopic,
			"dlq_topic", cfg.BookingEventsDLQTopic,
		)
	} else {
		cfg.Log.Info("Booking event publishing disabled, no Kafka brokers configured")
	}

	bookingService, scheduleService := initServices(cfg, publisher)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(&compositeHandler{handlers: []contracts.Handler{
		handler.NewBookingHandler(bookingService, cfg.Log),
		schedulehandler.NewScheduleHandler(scheduleService, cfg.Log),
	}})
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) (service.BookingService, scheduleservice.ScheduleService) {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	classRepo := classrepository.NewMongoClassRepository(cfg)

	bookingService := service.NewBookingService(
		bookingRepo,
		classRepo,
		bookingValidator,
		publisher,
		cfg,
	)
	scheduleService := scheduleservice.NewScheduleService(bookingRepo, classRepo, cfg)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService, scheduleService
}
