package main

import (
	bookingrepository "mymentor/internal/bookings/repository"
	classrepository "mymentor/internal/classes/repository"
	"mymentor/internal/reviews/handler"
	"mymentor/internal/reviews/repository"
	"mymentor/internal/reviews/service"
	"mymentor/internal/reviews/validator"
	"mymentor/pkg/app"
	"mymentor/pkg/config"
)

const ServiceName = "reviews"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Reviews service")
	reviewService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewReviewHandler(reviewService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.ReviewService {
	reviewValidator := validator.NewReviewValidator(cfg.Log)
	reviewRepo := repository.NewMongoReviewRepository(cfg)
	reportRepo := repository.NewMongoReportRepository(cfg)

	// The ledger gates review creation on a Completed booking; classes
	// resolve names for listings.
	bookingRepo := bookingrepository.NewMongoBookingRepository(cfg)
	classRepo := classrepository.NewMongoClassRepository(cfg)

	reviewService := service.NewReviewService(
		reviewRepo,
		reportRepo,
		bookingRepo,
		classRepo,
		reviewValidator,
		cfg,
	)

	cfg.Log.Info("Review service initialized", "database", cfg.MongoDatabaseName)
	return reviewService
}
