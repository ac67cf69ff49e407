package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mymentor/internal/migrations/mongo/validators"
)

var (
	ClassesIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "tutor_id", Value: 1},
			{Key: "availability", Value: 1},
			{Key: "date", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "tutor_id", Value: 1},
			{Key: "date", Value: 1},
		}},
	}

	// The partial unique index is the storage-level backstop for the one
	// accepted booking per class rule: even if application code regresses, a
	// second Accepted row for the same class cannot be written.
	BookingsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "class_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": "Accepted"}),
		},
		{Keys: bson.D{
			{Key: "tutor_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "created_at", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "class_id", Value: 1},
			{Key: "student_id", Value: 1},
			{Key: "status", Value: 1},
		}},
	}

	ReviewsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "tutor_id", Value: 1},
			{Key: "date", Value: -1},
		}},
	}

	ReportsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "review_id", Value: 1}}},
	}

	TutorsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	MediaIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
	}
)

func RunMigration(ctx context.Context, client *mongo.Client, dbName string) error {
	db := client.Database(dbName)
	fmt.Printf("Running Mongo migrations on database: %s\n", dbName)

	collections := map[string]struct {
		Indexes   []mongo.IndexModel
		Validator bson.M
	}{
		"Classes": {
			Indexes:   ClassesIndexes,
			Validator: validators.ClassValidator,
		},
		"Bookings": {
			Indexes:   BookingsIndexes,
			Validator: validators.BookingValidator,
		},
		"Reviews": {
			Indexes:   ReviewsIndexes,
			Validator: validators.ReviewValidator,
		},
		"Reports": {
			Indexes:   ReportsIndexes,
			Validator: validators.ReportValidator,
		},
		"Tutors": {
			Indexes:   TutorsIndexes,
			Validator: validators.TutorValidator,
		},
		"Media": {
			Indexes: MediaIndexes,
		},
	}

	for name, def := range collections {
		if err := ensureCollection(ctx, db, name, def.Validator); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	fmt.Println("All migrations applied successfully.")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		fmt.Printf("Creating collection: %s\n", name)
		opts := options.CreateCollection()
		if validator != nil {
			opts.SetValidator(validator)
		}
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	if validator == nil {
		return nil
	}

	fmt.Printf("Collection %s already exists, updating validator if needed\n", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		fmt.Printf("Warning: failed updating validator for %s: %v\n", name, err)
	}

	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	if len(models) == 0 {
		return nil
	}

	coll := db.Collection(name)
	_, err := coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	fmt.Printf("Ensured indexes for %s\n", name)
	return nil
}
