// Package events publishes booking lifecycle events to Kafka so downstream
// consumers (notifications, analytics) can react without coupling to the core.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types carried in the event-type header.
const (
	BookingRequested = "booking.requested"
	BookingAccepted  = "booking.accepted"
	BookingDeclined  = "booking.declined"
	BookingCancelled = "booking.cancelled"
	BookingCompleted = "booking.completed"
)

// Header keys shared with downstream consumers.
const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
	HeaderSource    = "source"
	HeaderTimestamp = "timestamp"
)

// Header keys stamped on messages parked on the dead-letter topic.
const (
	HeaderOriginalTopic = "original-topic"
	HeaderDLQError      = "dlq-error"
	HeaderDLQTimestamp  = "dlq-timestamp"
)

// Message is a single event bound for the booking events topic. Key is the
// class id so all events for one class land on the same partition in order.
type Message struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// BookingEvent is the JSON payload for every booking lifecycle event.
type BookingEvent struct {
	BookingID  string    `json:"booking_id"`
	ClassID    string    `json:"class_id"`
	StudentID  string    `json:"student_id"`
	TutorID    string    `json:"tutor_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewBookingMessage builds a fully-headed message for a booking transition.
func NewBookingMessage(eventType, source string, payload BookingEvent) (Message, error) {
	value, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}

	now := time.Now()
	return Message{
		Key:   payload.ClassID,
		Value: value,
		Headers: map[string]string{
			HeaderEventID:   uuid.New().String(),
			HeaderEventType: eventType,
			HeaderSource:    source,
			HeaderTimestamp: now.Format(time.RFC3339),
		},
		Timestamp: now,
	}, nil
}
