package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNew_TagsServiceAttribute(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Level:   INFO,
		Format:  JSON,
		Output:  &buf,
		Service: "bookings",
	})

	log.Info("Booking created", "booking_id", "64b2f0c4e13f4a0001a1b2c6")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry[SERVICE] != "bookings" {
		t.Errorf("expected service attribute, got %v", entry[SERVICE])
	}
	if entry["booking_id"] != "64b2f0c4e13f4a0001a1b2c6" {
		t.Errorf("expected structured field, got %v", entry["booking_id"])
	}
}

func TestNew_DefaultsSuppressDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf})

	log.Debug("should be filtered at the default level")
	if buf.Len() != 0 {
		t.Errorf("expected debug suppressed by default, got %q", buf.String())
	}

	log.Info("visible")
	if buf.Len() == 0 {
		t.Error("expected info logged at the default level")
	}
}
