package model

import "time"

// Class is a tutor-authored, datable teaching session offered for booking.
// Availability is a derived flag: true exactly while no booking against this
// class is Accepted (a completed class stays unavailable — the instance is
// spent and must be re-listed). Classes are never deleted; cancellation is a
// status flip on the booking side.
type Class struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TutorID      string    `json:"tutor_id" bson:"tutor_id" validate:"required,mongodb"`
	Name         string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Date         time.Time `json:"date" bson:"date" validate:"required"`
	Subject      string    `json:"subject" bson:"subject" validate:"required,min=2,max=100"`
	Area         string    `json:"area,omitempty" bson:"area,omitempty" validate:"omitempty,max=100"`
	Description  string    `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=2000"`
	Cost         *float64  `json:"cost" bson:"cost" validate:"required,min=0"` // pointer: a free class (0) is valid, an omitted cost is not
	TutorRating  *float64  `json:"tutor_rating,omitempty" bson:"tutor_rating,omitempty" validate:"omitempty,min=0,max=5"`
	Availability bool      `json:"availability" bson:"availability"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// ClassUpdate carries the descriptive fields a tutor may change on its own
// class. Date and cost changes are rejected while the class holds an accepted
// booking, since they would invalidate an existing commitment.
type ClassUpdate struct {
	Name        string     `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Date        *time.Time `json:"date,omitempty" validate:"omitempty"`
	Subject     string     `json:"subject,omitempty" validate:"omitempty,min=2,max=100"`
	Area        string     `json:"area,omitempty" validate:"omitempty,max=100"`
	Description string     `json:"description,omitempty" validate:"omitempty,max=2000"`
	Cost        *float64   `json:"cost,omitempty" validate:"omitempty,min=0"`
}
