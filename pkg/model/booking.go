package model

import "time"

type BookingStatus string

const (
	BookingRequested BookingStatus = "Requested"
	BookingAccepted  BookingStatus = "Accepted"
	BookingDeclined  BookingStatus = "Declined"
	BookingCancelled BookingStatus = "Cancelled"
	BookingCompleted BookingStatus = "Completed"
)

// Terminal reports whether no further transition is permitted out of s.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingDeclined, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// Booking is a student's claim against a Class. The tutor id is denormalized
// from the class for query convenience and is covered by the
// (tutor_id, status) index maintained by the migration job. Bookings are never
// deleted; every lifecycle step is a status transition.
type Booking struct {
	ID        string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ClassID   string        `json:"class_id" bson:"class_id" validate:"required,mongodb"`
	StudentID string        `json:"student_id" bson:"student_id" validate:"required,mongodb"`
	TutorID   string        `json:"tutor_id" bson:"tutor_id" validate:"required,mongodb"`
	Status    BookingStatus `json:"status" bson:"status" validate:"required,oneof=Requested Accepted Declined Cancelled Completed"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at" validate:"omitempty"`
}
