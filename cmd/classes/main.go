package main

import (
	"mymentor/internal/classes/handler"
	"mymentor/internal/classes/repository"
	"mymentor/internal/classes/service"
	"mymentor/internal/classes/validator"
	reviewrepository "mymentor/internal/reviews/repository"
	"mymentor/pkg/app"
	"mymentor/pkg/config"
)

const ServiceName = "classes"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Classes service")
	classService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewClassHandler(classService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.ClassService {
	classValidator := validator.NewClassValidator(cfg.Log)
	classRepo := repository.NewMongoClassRepository(cfg)

	// Review data feeds the rating snapshot stamped on new classes.
	reviewRepo := reviewrepository.NewMongoReviewRepository(cfg)

	classService := service.NewClassService(
		classRepo,
		reviewRepo,
		classValidator,
		cfg,
	)

	cfg.Log.Info("Class service initialized", "database", cfg.MongoDatabaseName)
	return classService
}
