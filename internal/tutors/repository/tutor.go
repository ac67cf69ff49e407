package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tutorserrors "mymentor/internal/tutors/errors"
	"mymentor/pkg/config"
	"mymentor/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionName = "Tutors"
)

type mongoTutorRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

type TutorRepository interface {
	Create(ctx context.Context, tutor *model.Tutor) error
	FindByID(ctx context.Context, id string) (*model.Tutor, error)
	FindByEmail(ctx context.Context, email string) (*model.Tutor, error)
	Update(ctx context.Context, id string, tutor *model.Tutor) error
	SetImageID(ctx context.Context, id, imageID string) error
}

func NewMongoTutorRepository(cfg *config.Config) TutorRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTutorRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoTutorRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

// Create inserts the profile. When the id is preset (the actor id issued by
// the identity gateway) it becomes the document key; otherwise Mongo assigns
// one.
func (r *mongoTutorRepository) Create(ctx context.Context, tutor *model.Tutor) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	tutor.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	var doc any = tutor
	if tutor.ID != "" {
		objectID, err := primitive.ObjectIDFromHex(tutor.ID)
		if err != nil {
			return fmt.Errorf("%w: %s", tutorserrors.ErrInvalidID, tutor.ID)
		}
		body := *tutor
		body.ID = ""
		doc = struct {
			ID    primitive.ObjectID `bson:"_id"`
			Tutor model.Tutor        `bson:",inline"`
		}{ID: objectID, Tutor: body}
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		// Two unique constraints can reject the insert: the email index, and
		// _id itself when the same actor registers twice concurrently. The
		// offending index name in the write error tells them apart.
		if mongo.IsDuplicateKeyError(err) {
			if duplicateKeyOnIndex(err, "email") {
				return tutorserrors.ErrEmailInUse
			}
			return tutorserrors.ErrProfileExists
		}
		return fmt.Errorf("failed to create tutor: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		tutor.ID = oid.Hex()
	}
	return nil
}

// duplicateKeyOnIndex reports whether a duplicate-key error was raised by an
// index on the named field. Mongo embeds the index name in the write error
// message ("... index: email_1 dup key: ...").
func duplicateKeyOnIndex(err error, field string) bool {
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, we := range writeErr.WriteErrors {
			if strings.Contains(we.Message, "index: "+field) {
				return true
			}
		}
		return false
	}
	return strings.Contains(err.Error(), "index: "+field)
}

func (r *mongoTutorRepository) FindByID(ctx context.Context, id string) (*model.Tutor, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", tutorserrors.ErrInvalidID, id)
	}

	var tutor model.Tutor
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&tutor)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, tutorserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find tutor: %w", err)
	}

	return &tutor, nil
}

func (r *mongoTutorRepository) FindByEmail(ctx context.Context, email string) (*model.Tutor, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var tutor model.Tutor
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&tutor)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, tutorserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find tutor: %w", err)
	}

	return &tutor, nil
}

func (r *mongoTutorRepository) Update(ctx context.Context, id string, tutor *model.Tutor) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", tutorserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"institution": tutor.Institution,
			"semester":    tutor.Semester,
			"description": tutor.Description,
			"category":    tutor.Category,
			"gpa":         tutor.GPA,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update tutor: %w", err)
	}
	if result.MatchedCount == 0 {
		return tutorserrors.ErrNotFound
	}

	return nil
}

func (r *mongoTutorRepository) SetImageID(ctx context.Context, id, imageID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", tutorserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"image_id": imageID}},
	)
	if err != nil {
		return fmt.Errorf("failed to set tutor image: %w", err)
	}
	if result.MatchedCount == 0 {
		return tutorserrors.ErrNotFound
	}

	return nil
}
