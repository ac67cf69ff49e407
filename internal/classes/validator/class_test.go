package validator

import (
	"strings"
	"testing"
	"time"

	"mymentor/pkg/logger"
	"mymentor/pkg/model"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
}

func validClass() *model.Class {
	cost := 35.0
	return &model.Class{
		TutorID: "64b2f0c4e13f4a0001a1b2c5",
		Name:    "Calculus II Exam Prep",
		Date:    time.Now().Add(48 * time.Hour),
		Subject: "mathematics",
		Cost:    &cost,
	}
}

func TestValidate_ValidClass(t *testing.T) {
	v := NewClassValidator(testLogger())

	if err := v.Validate(validClass()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *model.Class)
		field  string
	}{
		{"missing name", func(c *model.Class) { c.Name = "" }, "Name"},
		{"missing subject", func(c *model.Class) { c.Subject = "" }, "Subject"},
		{"missing tutor id", func(c *model.Class) { c.TutorID = "" }, "TutorID"},
	}

	v := NewClassValidator(testLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class := validClass()
			tt.mutate(class)

			err := v.Validate(class)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("expected error to mention %s, got: %v", tt.field, err)
			}
		})
	}
}

func TestValidate_ZeroDate(t *testing.T) {
	v := NewClassValidator(testLogger())

	class := validClass()
	class.Date = time.Time{}
	if err := v.Validate(class); err == nil {
		t.Fatal("expected error for zero date")
	}
}

func TestValidate_MissingCost(t *testing.T) {
	v := NewClassValidator(testLogger())

	class := validClass()
	class.Cost = nil
	err := v.Validate(class)
	if err == nil {
		t.Fatal("expected error for missing cost")
	}
	if !strings.Contains(err.Error(), "Cost") {
		t.Errorf("expected error to mention Cost, got: %v", err)
	}
}

func TestValidate_FreeClass(t *testing.T) {
	v := NewClassValidator(testLogger())

	class := validClass()
	zero := 0.0
	class.Cost = &zero
	if err := v.Validate(class); err != nil {
		t.Fatalf("unexpected error for zero cost: %v", err)
	}
}

func TestValidate_NegativeCost(t *testing.T) {
	v := NewClassValidator(testLogger())

	class := validClass()
	negative := -1.0
	class.Cost = &negative
	if err := v.Validate(class); err == nil {
		t.Fatal("expected error for negative cost")
	}
}

func TestValidate_InvalidTutorID(t *testing.T) {
	v := NewClassValidator(testLogger())

	class := validClass()
	class.TutorID = "not-an-object-id"
	err := v.Validate(class)
	if err == nil {
		t.Fatal("expected error for malformed tutor id")
	}
	if !strings.Contains(err.Error(), "ObjectID") {
		t.Errorf("expected ObjectID message, got: %v", err)
	}
}

func TestValidateUpdate_ZeroDatePointer(t *testing.T) {
	v := NewClassValidator(testLogger())

	zero := time.Time{}
	err := v.ValidateUpdate(&model.ClassUpdate{Date: &zero})
	if err == nil {
		t.Fatal("expected error for zero date pointer")
	}
}

func TestValidateUpdate_Empty(t *testing.T) {
	v := NewClassValidator(testLogger())

	if err := v.ValidateUpdate(&model.ClassUpdate{}); err != nil {
		t.Fatalf("unexpected error for empty update: %v", err)
	}
}
