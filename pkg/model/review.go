package model

import "time"

// Review is written by a student for a class that reached Completed.
// Immutable once created.
type Review struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	StudentID string    `json:"student_id" bson:"student_id" validate:"required,mongodb"`
	ClassID   string    `json:"class_id" bson:"class_id" validate:"required,mongodb"`
	TutorID   string    `json:"tutor_id" bson:"tutor_id" validate:"required,mongodb"`
	Comment   string    `json:"comment" bson:"comment" validate:"required,min=2,max=2000"`
	Stars     int       `json:"stars" bson:"stars" validate:"required,min=1,max=5"`
	Date      time.Time `json:"date" bson:"date" validate:"omitempty"`
}

// ReviewWithClass is the listing shape returned to tutors: the review plus the
// class name resolved through a single batch fetch.
type ReviewWithClass struct {
	Review    `bson:",inline"`
	ClassName string `json:"class_name" bson:"-"`
}
