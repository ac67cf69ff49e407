package main

import (
	"mymentor/internal/tutors/handler"
	"mymentor/internal/tutors/repository"
	"mymentor/internal/tutors/service"
	"mymentor/internal/tutors/validator"
	"mymentor/pkg/app"
	"mymentor/pkg/config"
	"mymentor/pkg/media"
)

const ServiceName = "tutors"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Tutors service")
	tutorService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewTutorHandler(tutorService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.TutorService {
	tutorValidator := validator.NewTutorValidator(cfg.Log)
	tutorRepo := repository.NewMongoTutorRepository(cfg)
	imageStore := media.NewMongoStore(cfg.Client.Mongo.Database(cfg.MongoDatabaseName))

	tutorService := service.NewTutorService(
		tutorRepo,
		imageStore,
		tutorValidator,
		cfg,
	)

	cfg.Log.Info("Tutor service initialized", "database", cfg.MongoDatabaseName)
	return tutorService
}
