package model

import "time"

// Report is a tutor's dispute of a review. Append-only.
type Report struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ReviewID    string    `json:"review_id" bson:"review_id" validate:"required,mongodb"`
	TutorID     string    `json:"tutor_id" bson:"tutor_id" validate:"required,mongodb"`
	Description string    `json:"description" bson:"description" validate:"required,min=10,max=2000"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}
