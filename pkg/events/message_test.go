package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewBookingMessage(t *testing.T) {
	payload := BookingEvent{
		BookingID:  "64b2f0c4e13f4a0001a1b2c6",
		ClassID:    "64b2f0c4e13f4a0001a1b2c3",
		StudentID:  "64b2f0c4e13f4a0001a1b2c4",
		TutorID:    "64b2f0c4e13f4a0001a1b2c5",
		Status:     "Accepted",
		OccurredAt: time.Now().UTC(),
	}

	msg, err := NewBookingMessage(BookingAccepted, "bookings-service", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg.Key != payload.ClassID {
		t.Errorf("expected key %s for per-class ordering, got %s", payload.ClassID, msg.Key)
	}
	if msg.Headers[HeaderEventType] != BookingAccepted {
		t.Errorf("expected event type header %s, got %s", BookingAccepted, msg.Headers[HeaderEventType])
	}
	if msg.Headers[HeaderSource] != "bookings-service" {
		t.Errorf("expected source header, got %s", msg.Headers[HeaderSource])
	}
	if msg.Headers[HeaderEventID] == "" {
		t.Error("expected non-empty event id header")
	}

	var decoded BookingEvent
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if decoded.BookingID != payload.BookingID || decoded.Status != payload.Status {
		t.Errorf("payload mismatch: %+v", decoded)
	}
}

func TestNewBookingMessage_DistinctEventIDs(t *testing.T) {
	payload := BookingEvent{ClassID: "64b2f0c4e13f4a0001a1b2c3"}

	first, err := NewBookingMessage(BookingRequested, "bookings-service", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := NewBookingMessage(BookingRequested, "bookings-service", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Headers[HeaderEventID] == second.Headers[HeaderEventID] {
		t.Error("expected unique event ids per message")
	}
}
