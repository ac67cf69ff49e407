// Package media stores binary attachments (tutor profile images) in their own
// Mongo collection, keyed by an opaque id. Opaque to the rest of the core.
package media

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "Media"

var ErrNotFound = errors.New("media object not found")

type Object struct {
	ID          string    `bson:"_id,omitempty"`
	OwnerID     string    `bson:"owner_id"`
	ContentType string    `bson:"content_type"`
	Data        []byte    `bson:"data"`
	CreatedAt   time.Time `bson:"created_at"`
}

type Store interface {
	Put(ctx context.Context, ownerID, contentType string, data []byte) (string, error)
	Get(ctx context.Context, id string) (*Object, error)
	Delete(ctx context.Context, id string) error
}

type mongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(db *mongo.Database) Store {
	return &mongoStore{collection: db.Collection(CollectionName)}
}

func (s *mongoStore) Put(ctx context.Context, ownerID, contentType string, data []byte) (string, error) {
	obj := Object{
		OwnerID:     ownerID,
		ContentType: contentType,
		Data:        data,
		CreatedAt:   time.Now().UTC(),
	}

	result, err := s.collection.InsertOne(ctx, obj)
	if err != nil {
		return "", err
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", errors.New("unexpected inserted id type")
	}
	return oid.Hex(), nil
}

func (s *mongoStore) Get(ctx context.Context, id string) (*Object, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var obj Object
	err = s.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&obj)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	obj.ID = id

	return &obj, nil
}

func (s *mongoStore) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
