package model

import "time"

// Tutor is the descriptive profile behind a tutor actor id. Authentication and
// credentials live in the identity gateway; this record carries only what the
// marketplace displays. The profile image is stored separately in the media
// store and referenced by id.
type Tutor struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	FirstName   string    `json:"first_name" bson:"first_name" validate:"required,min=3,max=50"`
	LastName    string    `json:"last_name" bson:"last_name" validate:"required,min=3,max=50"`
	Email       string    `json:"email" bson:"email" validate:"required,email"`
	Institution string    `json:"institution" bson:"institution" validate:"required,min=2,max=100"`
	Semester    int       `json:"semester,omitempty" bson:"semester,omitempty" validate:"omitempty,min=1,max=20"`
	Description string    `json:"description" bson:"description" validate:"required,min=2,max=2000"`
	Category    string    `json:"category" bson:"category" validate:"required,min=2,max=100"`
	GPA         float64   `json:"gpa,omitempty" bson:"gpa,omitempty" validate:"omitempty,min=0,max=5"`
	ImageID     string    `json:"image_id,omitempty" bson:"image_id,omitempty" validate:"omitempty,mongodb"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// TutorUpdate carries the mutable profile fields.
type TutorUpdate struct {
	Institution string   `json:"institution,omitempty" validate:"omitempty,min=2,max=100"`
	Semester    *int     `json:"semester,omitempty" validate:"omitempty,min=1,max=20"`
	Description string   `json:"description,omitempty" validate:"omitempty,min=2,max=2000"`
	Category    string   `json:"category,omitempty" validate:"omitempty,min=2,max=100"`
	GPA         *float64 `json:"gpa,omitempty" validate:"omitempty,min=0,max=5"`
}
