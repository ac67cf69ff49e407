package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	classeserrors "mymentor/internal/classes/errors"
	"mymentor/pkg/config"
	mongotx "mymentor/pkg/db/mongo"
	"mymentor/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Classes"
)

type mongoClassRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type ClassRepository interface {
	Create(ctx context.Context, class *model.Class) error
	FindByID(ctx context.Context, id string) (*model.Class, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.Class, error)
	FindByIDsFromDate(ctx context.Context, ids []string, from time.Time) ([]*model.Class, error)
	FindByTutorAndAvailability(ctx context.Context, tutorID string, available bool, limit int, offset int64) ([]*model.Class, error)
	CountByTutorAndAvailability(ctx context.Context, tutorID string, available bool) (int64, error)
	FindByTutorAndDateRange(ctx context.Context, tutorID string, start, end time.Time, limit int, offset int64) ([]*model.Class, error)
	Update(ctx context.Context, id string, class *model.Class) (*mongo.UpdateResult, error)
	SetAvailability(ctx context.Context, id string, value bool) error
	SetAvailabilityIf(ctx context.Context, id string, expected, value bool) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoClassRepository(cfg *config.Config) ClassRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoClassRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// SessionContexts are returned unchanged with a no-op cancel, since wrapping
// them would break transaction semantics.
func (r *mongoClassRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoClassRepository) Create(ctx context.Context, class *model.Class) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	class.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, class)
	if err != nil {
		return fmt.Errorf("failed to create class: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		class.ID = oid.Hex()
	}
	return nil
}

func (r *mongoClassRepository) FindByID(ctx context.Context, id string) (*model.Class, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", classeserrors.ErrInvalidID, id)
	}

	var class model.Class
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&class)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, classeserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find class: %w", err)
	}

	return &class, nil
}

func (r *mongoClassRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Class, error) {
	return r.findByIDsFilter(ctx, ids, bson.M{})
}

func (r *mongoClassRepository) FindByIDsFromDate(ctx context.Context, ids []string, from time.Time) ([]*model.Class, error) {
	return r.findByIDsFilter(ctx, ids, bson.M{"date": bson.M{"$gte": from}})
}

func (r *mongoClassRepository) findByIDsFilter(ctx context.Context, ids []string, extra bson.M) ([]*model.Class, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objectID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", classeserrors.ErrInvalidID, id)
		}
		objectIDs = append(objectIDs, objectID)
	}
	if len(objectIDs) == 0 {
		return []*model.Class{}, nil
	}

	filter := bson.M{"_id": bson.M{"$in": objectIDs}}
	for key, value := range extra {
		filter[key] = value
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find classes: %w", err)
	}
	defer cursor.Close(ctx)

	classes := []*model.Class{}
	if err = cursor.All(ctx, &classes); err != nil {
		return nil, fmt.Errorf("failed to decode classes: %w", err)
	}

	return classes, nil
}

func (r *mongoClassRepository) FindByTutorAndAvailability(ctx context.Context, tutorID string, available bool, limit int, offset int64) ([]*model.Class, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"tutor_id": tutorID, "availability": available}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find classes: %w", err)
	}
	defer cursor.Close(ctx)

	classes := []*model.Class{}
	if err = cursor.All(ctx, &classes); err != nil {
		return nil, fmt.Errorf("failed to decode classes: %w", err)
	}

	return classes, nil
}

func (r *mongoClassRepository) CountByTutorAndAvailability(ctx context.Context, tutorID string, available bool) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"tutor_id": tutorID, "availability": available})
	if err != nil {
		return 0, fmt.Errorf("failed to count classes: %w", err)
	}
	return count, nil
}

// FindByTutorAndDateRange matches the half-open interval [start, end).
func (r *mongoClassRepository) FindByTutorAndDateRange(ctx context.Context, tutorID string, start, end time.Time, limit int, offset int64) ([]*model.Class, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"tutor_id": tutorID,
		"date": bson.M{
			"$gte": start,
			"$lt":  end,
		},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find classes: %w", err)
	}
	defer cursor.Close(ctx)

	classes := []*model.Class{}
	if err = cursor.All(ctx, &classes); err != nil {
		return nil, fmt.Errorf("failed to decode classes: %w", err)
	}

	return classes, nil
}

func (r *mongoClassRepository) Update(ctx context.Context, id string, class *model.Class) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", classeserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	update := bson.M{
		"$set": bson.M{
			"name":        class.Name,
			"date":        class.Date,
			"subject":     class.Subject,
			"area":        class.Area,
			"description": class.Description,
			"cost":        class.Cost,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update class: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, classeserrors.ErrNotFound
	}

	return result, nil
}

func (r *mongoClassRepository) SetAvailability(ctx context.Context, id string, value bool) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", classeserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"availability": value}},
	)
	if err != nil {
		return fmt.Errorf("failed to set class availability: %w", err)
	}
	if result.MatchedCount == 0 {
		return classeserrors.ErrNotFound
	}

	return nil
}

// SetAvailabilityIf flips the availability flag only if it currently holds the
// expected value. This is the conditional atomic write the availability
// coordinator serializes concurrent accepts on: under a race, exactly one
// caller matches and every other caller gets ErrAvailabilityChanged.
func (r *mongoClassRepository) SetAvailabilityIf(ctx context.Context, id string, expected, value bool) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", classeserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "availability": expected},
		bson.M{"$set": bson.M{"availability": value}},
	)
	if err != nil {
		return fmt.Errorf("failed to set class availability: %w", err)
	}
	if result.MatchedCount == 0 {
		return classeserrors.ErrAvailabilityChanged
	}

	return nil
}

func (r *mongoClassRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
