package repository

import (
	"context"
	"fmt"
	"time"

	"mymentor/pkg/config"
	"mymentor/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	ReportCollectionName = "Reports"
)

type mongoReportRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type ReportRepository interface {
	Create(ctx context.Context, report *model.Report) error
}

func NewMongoReportRepository(cfg *config.Config) ReportRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReportRepository{
		cfg:        cfg,
		collection: db.Collection(ReportCollectionName),
	}
}

func (r *mongoReportRepository) Create(ctx context.Context, report *model.Report) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	report.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		report.ID = oid.Hex()
	}
	return nil
}
