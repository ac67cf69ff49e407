package service

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingserrors "mymentor/internal/bookings/errors"
	"mymentor/internal/bookings/repository"
	"mymentor/internal/bookings/validator"
	classeserrors "mymentor/internal/classes/errors"
	"mymentor/pkg/config"
	apperrors "mymentor/pkg/errors"
	"mymentor/pkg/events"
	"mymentor/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// ClassStore is the slice of the class repository the booking service needs:
// lookups plus the availability writes that serialize concurrent accepts.
type ClassStore interface {
	FindByID(ctx context.Context, id string) (*model.Class, error)
	SetAvailability(ctx context.Context, id string, value bool) error
	SetAvailabilityIf(ctx context.Context, id string, expected, value bool) error
}

type BookingService interface {
	Request(ctx context.Context, studentID, classID string) (*model.Booking, error)
	GetByID(ctx context.Context, id, actorID string) (*model.Booking, error)
	ListByTutorAndStatus(ctx context.Context, tutorID string, status model.BookingStatus, limit int, offset int64) ([]*model.Booking, int64, error)
	Accept(ctx context.Context, id, actorID string) (*model.Booking, error)
	Decline(ctx context.Context, id, actorID string) (*model.Booking, error)
	Cancel(ctx context.Context, id, actorID string) (*model.Booking, error)
	Complete(ctx context.Context, id, actorID string) (*model.Booking, error)
}

// allowedTransitions is the whole lifecycle. Requested forks to Accepted or
// Declined; Accepted forks to Cancelled or Completed. Everything else is
// terminal.
var allowedTransitions = map[model.BookingStatus]map[model.BookingStatus]bool{
	model.BookingRequested: {
		model.BookingAccepted: true,
		model.BookingDeclined: true,
	},
	model.BookingAccepted: {
		model.BookingCancelled: true,
		model.BookingCompleted: true,
	},
}

const eventSource = "bookings-service"

type bookingService struct {
	repo      repository.BookingRepository
	classes   ClassStore
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	classes ClassStore,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		classes:   classes,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *bookingService) Request(ctx context.Context, studentID, classID string) (*model.Booking, error) {
	if classID == "" {
		return nil, apperrors.InvalidInput("Class ID cannot be empty")
	}

	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return nil, mapClassLookupError(err, classID)
	}

	if class.TutorID == studentID {
		return nil, apperrors.Forbidden("Tutors cannot book their own classes")
	}
	if !class.Availability {
		return nil, apperrors.Conflict("Class is no longer available")
	}

	booking := &model.Booking{
		ClassID:   classID,
		StudentID: studentID,
		TutorID:   class.TutorID,
		Status:    model.BookingRequested,
	}

	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "class_id", classID, "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to create booking", "class_id", classID, "student_id", studentID, "error", err)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking requested",
		"id", booking.ID,
		"class_id", classID,
		"student_id", studentID,
		"tutor_id", booking.TutorID,
	)
	s.publish(ctx, events.BookingRequested, booking)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id, actorID string) (*model.Booking, error) {
	booking, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.StudentID != actorID && booking.TutorID != actorID {
		return nil, apperrors.Forbidden("Only booking participants may view this booking")
	}

	return booking, nil
}

func (s *bookingService) ListByTutorAndStatus(ctx context.Context, tutorID string, status model.BookingStatus, limit int, offset int64) ([]*model.Booking, int64, error) {
	if tutorID == "" {
		return nil, 0, apperrors.InvalidInput("Tutor ID cannot be empty")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByTutorAndStatus(ctx, tutorID, status)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "tutor_id", tutorID, "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindByTutorAndStatus(ctx, tutorID, status, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "tutor_id", tutorID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// Accept commits the class to this booking. The availability flip and the
// status write happen in one transaction, and both are conditional: the flip
// admits exactly one accept per class, the status write exactly one transition
// per booking.
func (s *bookingService) Accept(ctx context.Context, id, actorID string) (*model.Booking, error) {
	booking, err := s.checkTransition(ctx, id, model.BookingAccepted)
	if err != nil {
		return nil, err
	}
	if booking.TutorID != actorID {
		return nil, apperrors.Forbidden("Only the class tutor may accept a booking")
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.classes.SetAvailabilityIf(sessCtx, booking.ClassID, true, false); err != nil {
			if errors.Is(err, classeserrors.ErrAvailabilityChanged) {
				return apperrors.Conflict("Class is no longer available")
			}
			return apperrors.Internal("Failed to reserve class", err)
		}
		return s.updateStatusIf(sessCtx, id, model.BookingRequested, model.BookingAccepted)
	})
	if err != nil {
		return nil, err
	}

	booking.Status = model.BookingAccepted
	s.cfg.Log.Info("Booking accepted", "id", id, "class_id", booking.ClassID, "tutor_id", actorID)
	s.publish(ctx, events.BookingAccepted, booking)
	return booking, nil
}

// Decline rejects a request. The class was never reserved, so availability is
// untouched.
func (s *bookingService) Decline(ctx context.Context, id, actorID string) (*model.Booking, error) {
	booking, err := s.checkTransition(ctx, id, model.BookingDeclined)
	if err != nil {
		return nil, err
	}
	if booking.TutorID != actorID {
		return nil, apperrors.Forbidden("Only the class tutor may decline a booking")
	}

	if err := s.updateStatusIf(ctx, id, model.BookingRequested, model.BookingDeclined); err != nil {
		return nil, err
	}

	booking.Status = model.BookingDeclined
	s.cfg.Log.Info("Booking declined", "id", id, "class_id", booking.ClassID, "tutor_id", actorID)
	s.publish(ctx, events.BookingDeclined, booking)
	return booking, nil
}

// Cancel releases an accepted booking. The class goes back on the market, so
// the status write and the availability restore commit together.
func (s *bookingService) Cancel(ctx context.Context, id, actorID string) (*model.Booking, error) {
	booking, err := s.checkTransition(ctx, id, model.BookingCancelled)
	if err != nil {
		return nil, err
	}
	if booking.StudentID != actorID && booking.TutorID != actorID {
		return nil, apperrors.Forbidden("Only booking participants may cancel a booking")
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.updateStatusIf(sessCtx, id, model.BookingAccepted, model.BookingCancelled); err != nil {
			return err
		}
		if err := s.classes.SetAvailability(sessCtx, booking.ClassID, true); err != nil {
			return apperrors.Internal("Failed to restore class availability", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	booking.Status = model.BookingCancelled
	s.cfg.Log.Info("Booking cancelled", "id", id, "class_id", booking.ClassID, "actor_id", actorID)
	s.publish(ctx, events.BookingCancelled, booking)
	return booking, nil
}

// Complete marks an accepted booking as delivered. The class stays
// unavailable: it was consumed, not released.
func (s *bookingService) Complete(ctx context.Context, id, actorID string) (*model.Booking, error) {
	booking, err := s.checkTransition(ctx, id, model.BookingCompleted)
	if err != nil {
		return nil, err
	}
	if booking.TutorID != actorID {
		return nil, apperrors.Forbidden("Only the class tutor may complete a booking")
	}

	if err := s.updateStatusIf(ctx, id, model.BookingAccepted, model.BookingCompleted); err != nil {
		return nil, err
	}

	booking.Status = model.BookingCompleted
	s.cfg.Log.Info("Booking completed", "id", id, "class_id", booking.ClassID, "tutor_id", actorID)
	s.publish(ctx, events.BookingCompleted, booking)
	return booking, nil
}

// --- Helpers ---

func (s *bookingService) findByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

// checkTransition loads the booking and rejects targets the lifecycle does
// not permit from its current status. The conditional status write still
// guards against the status moving between this read and the write.
func (s *bookingService) checkTransition(ctx context.Context, id string, target model.BookingStatus) (*model.Booking, error) {
	booking, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !allowedTransitions[booking.Status][target] {
		return nil, apperrors.InvalidTransition(string(booking.Status), string(target))
	}

	return booking, nil
}

// updateStatusIf performs the conditional status write and turns a lost race
// into an InvalidTransition against the status the booking actually holds.
func (s *bookingService) updateStatusIf(ctx context.Context, id string, from, to model.BookingStatus) error {
	err := s.repo.UpdateStatusIf(ctx, id, from, to)
	if err == nil {
		return nil
	}

	if errors.Is(err, bookingserrors.ErrStatusChanged) {
		current, findErr := s.repo.FindByID(ctx, id)
		if findErr != nil {
			return apperrors.InvalidTransition(string(from), string(to))
		}
		return apperrors.InvalidTransition(string(current.Status), string(to))
	}
	if errors.Is(err, bookingserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid booking ID format")
	}

	s.cfg.Log.Error("Failed to update booking status", "id", id, "from", from, "to", to, "error", err)
	return apperrors.Internal("Failed to update booking status", err)
}

// publish emits a lifecycle event after the transition committed. A nil
// publisher disables events; publish failures are logged and never surface to
// the caller, the state change already happened.
func (s *bookingService) publish(ctx context.Context, eventType string, booking *model.Booking) {
	if s.publisher == nil {
		return
	}

	msg, err := events.NewBookingMessage(eventType, eventSource, events.BookingEvent{
		BookingID:  booking.ID,
		ClassID:    booking.ClassID,
		StudentID:  booking.StudentID,
		TutorID:    booking.TutorID,
		Status:     string(booking.Status),
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.cfg.Log.Error("Failed to build booking event", "id", booking.ID, "event_type", eventType, "error", err)
		return
	}

	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.cfg.Log.Error("Failed to publish booking event", "id", booking.ID, "event_type", eventType, "error", err)
	}
}

func mapClassLookupError(err error, id string) error {
	if errors.Is(err, classeserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Class", id)
	}
	if errors.Is(err, classeserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid class ID format")
	}
	return apperrors.Internal("Failed to retrieve class", err)
}
