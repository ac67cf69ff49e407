package repository

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func duplicateKeyError(message string) error {
	return mongo.WriteException{
		WriteErrors: mongo.WriteErrors{
			{Code: 11000, Message: message},
		},
	}
}

func TestDuplicateKeyOnIndex(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		field string
		want  bool
	}{
		{
			"email index collision",
			duplicateKeyError(`E11000 duplicate key error collection: mymentor.Tutors index: email_1 dup key: { email: "maria@example.edu" }`),
			"email",
			true,
		},
		{
			"id collision is not an email collision",
			duplicateKeyError(`E11000 duplicate key error collection: mymentor.Tutors index: _id_ dup key: { _id: ObjectId('64b2f0c4e13f4a0001a1b2c5') }`),
			"email",
			false,
		},
		{
			"wrapped write error",
			errors.New(`write exception: E11000 duplicate key error collection: mymentor.Tutors index: email_1 dup key`),
			"email",
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := duplicateKeyOnIndex(tt.err, tt.field); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
