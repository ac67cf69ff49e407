package service

import (
	"context"
	"time"

	"mymentor/pkg/config"
	apperrors "mymentor/pkg/errors"
	"mymentor/pkg/model"
)

// BookingSource yields a tutor's full booking set for one status. The schedule
// is derived, never stored, so it reads straight from the ledger.
type BookingSource interface {
	FindAllByTutorAndStatus(ctx context.Context, tutorID string, status model.BookingStatus) ([]*model.Booking, error)
}

// ClassSource resolves the classes behind accepted bookings, filtered to dates
// at or after a cutoff.
type ClassSource interface {
	FindByIDsFromDate(ctx context.Context, ids []string, from time.Time) ([]*model.Class, error)
}

type ScheduleService interface {
	UpcomingAccepted(ctx context.Context, tutorID string, asOf time.Time) ([]*model.Class, error)
}

type scheduleService struct {
	bookings BookingSource
	classes  ClassSource
	cfg      *config.Config
}

func NewScheduleService(bookings BookingSource, classes ClassSource, cfg *config.Config) ScheduleService {
	return &scheduleService{
		bookings: bookings,
		classes:  classes,
		cfg:      cfg,
	}
}

// UpcomingAccepted returns the tutor's accepted classes dated at or after
// asOf, soonest first. A zero asOf means now.
func (s *scheduleService) UpcomingAccepted(ctx context.Context, tutorID string, asOf time.Time) ([]*model.Class, error) {
	if tutorID == "" {
		return nil, apperrors.InvalidInput("Tutor ID cannot be empty")
	}
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	accepted, err := s.bookings.FindAllByTutorAndStatus(ctx, tutorID, model.BookingAccepted)
	if err != nil {
		s.cfg.Log.Error("Failed to load accepted bookings", "tutor_id", tutorID, "error", err)
		return nil, apperrors.Internal("Failed to load accepted bookings", err)
	}
	if len(accepted) == 0 {
		return []*model.Class{}, nil
	}

	// Each class holds at most one accepted booking, but historic data may
	// predate that guarantee, so dedupe anyway.
	seen := make(map[string]bool, len(accepted))
	ids := make([]string, 0, len(accepted))
	for _, booking := range accepted {
		if !seen[booking.ClassID] {
			seen[booking.ClassID] = true
			ids = append(ids, booking.ClassID)
		}
	}

	classes, err := s.classes.FindByIDsFromDate(ctx, ids, asOf)
	if err != nil {
		s.cfg.Log.Error("Failed to resolve scheduled classes", "tutor_id", tutorID, "error", err)
		return nil, apperrors.Internal("Failed to resolve scheduled classes", err)
	}

	return classes, nil
}
