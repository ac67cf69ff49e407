package service

import (
	"context"
	"sync"
	"testing"
	"time"

	bookingserrors "mymentor/internal/bookings/errors"
	"mymentor/internal/bookings/validator"
	classeserrors "mymentor/internal/classes/errors"
	"mymentor/pkg/config"
	mongotx "mymentor/pkg/db/mongo"
	apperrors "mymentor/pkg/errors"
	"mymentor/pkg/events"
	"mymentor/pkg/logger"
	"mymentor/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	testClassID   = "64b2f0c4e13f4a0001a1b2c3"
	testStudentID = "64b2f0c4e13f4a0001a1b2c4"
	testTutorID   = "64b2f0c4e13f4a0001a1b2c5"
	testBookingID = "64b2f0c4e13f4a0001a1b2c6"
)

// Mock repository for testing
type mockBookingRepository struct {
	createFunc               func(ctx context.Context, booking *model.Booking) error
	findByIDFunc             func(ctx context.Context, id string) (*model.Booking, error)
	findByTutorAndStatusFunc func(ctx context.Context, tutorID string, status model.BookingStatus, limit int, offset int64) ([]*model.Booking, error)
	countFunc                func(ctx context.Context, tutorID string, status model.BookingStatus) (int64, error)
	findAllFunc              func(ctx context.Context, tutorID string, status model.BookingStatus) ([]*model.Booking, error)
	hasBookingFunc           func(ctx context.Context, classID, studentID string, status model.BookingStatus) (bool, error)
	updateStatusIfFunc       func(ctx context.Context, id string, from, to model.BookingStatus) error
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	booking.ID = testBookingID
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) FindByTutorAndStatus(ctx context.Context, tutorID string, status model.BookingStatus, limit int, offset int64) ([]*model.Booking, error) {
	if m.findByTutorAndStatusFunc != nil {
		return m.findByTutorAndStatusFunc(ctx, tutorID, status, limit, offset)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) CountByTutorAndStatus(ctx context.Context, tutorID string, status model.BookingStatus) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, tutorID, status)
	}
	return 0, nil
}

func (m *mockBookingRepository) FindAllByTutorAndStatus(ctx context.Context, tutorID string, status model.BookingStatus) ([]*model.Booking, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, tutorID, status)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) HasBookingWithStatus(ctx context.Context, classID, studentID string, status model.BookingStatus) (bool, error) {
	if m.hasBookingFunc != nil {
		return m.hasBookingFunc(ctx, classID, studentID, status)
	}
	return false, nil
}

func (m *mockBookingRepository) UpdateStatusIf(ctx context.Context, id string, from, to model.BookingStatus) error {
	if m.updateStatusIfFunc != nil {
		return m.updateStatusIfFunc(ctx, id, from, to)
	}
	return nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockClassStore struct {
	findByIDFunc          func(ctx context.Context, id string) (*model.Class, error)
	setAvailabilityFunc   func(ctx context.Context, id string, value bool) error
	setAvailabilityIfFunc func(ctx context.Context, id string, expected, value bool) error
}

func (m *mockClassStore) FindByID(ctx context.Context, id string) (*model.Class, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, classeserrors.ErrNotFound
}

func (m *mockClassStore) SetAvailability(ctx context.Context, id string, value bool) error {
	if m.setAvailabilityFunc != nil {
		return m.setAvailabilityFunc(ctx, id, value)
	}
	return nil
}

func (m *mockClassStore) SetAvailabilityIf(ctx context.Context, id string, expected, value bool) error {
	if m.setAvailabilityIfFunc != nil {
		return m.setAvailabilityIfFunc(ctx, id, expected, value)
	}
	return nil
}

type mockPublisher struct {
	mu       sync.Mutex
	messages []events.Message
	err      error
}

func (m *mockPublisher) Publish(ctx context.Context, msg events.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.messages))
	for _, msg := range m.messages {
		types = append(types, msg.Headers[events.HeaderEventType])
	}
	return types
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

func newTestService(repo *mockBookingRepository, classes *mockClassStore, publisher events.Publisher) BookingService {
	cfg := testConfig()
	return NewBookingService(repo, classes, validator.NewBookingValidator(cfg.Log), publisher, cfg)
}

func availableClass() *model.Class {
	return &model.Class{
		ID:           testClassID,
		TutorID:      testTutorID,
		Name:         "Linear Algebra Crash Course",
		Availability: true,
	}
}

func requestedBooking() *model.Booking {
	return &model.Booking{
		ID:        testBookingID,
		ClassID:   testClassID,
		StudentID: testStudentID,
		TutorID:   testTutorID,
		Status:    model.BookingRequested,
	}
}

func acceptedBooking() *model.Booking {
	b := requestedBooking()
	b.Status = model.BookingAccepted
	return b
}

func TestRequest_Success(t *testing.T) {
	classes := &mockClassStore{
		findByIDFunc: func(ctx context.Context, id string) (*model.Class, error) {
			return availableClass(), nil
		},
	}
	publisher := &mockPublisher{}
	svc := newTestService(&mockBookingRepository{}, classes, publisher)

	booking, err := svc.Request(context.Background(), testStudentID, testClassID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != model.BookingRequested {
		t.Errorf("expected status Requested, got %s", booking.Status)
	}
	if booking.TutorID != testTutorID {
		t.Errorf("expected tutor id copied from class, got %s", booking.TutorID)
	}
	if got := publisher.eventTypes(); len(got) != 1 || got[0] != events.BookingRequested {
		t.Errorf("expected one %s event, got %v", events.BookingRequested, got)
	}
}

func TestRequest_UnavailableClass(t *testing.T) {
	classes := &mockClassStore{
		findByIDFunc: func(ctx context.Context, id string) (*model.Class, error) {
			class := availableClass()
			class.Availability = false
			return class, nil
		},
	}
	svc := newTestService(&mockBookingRepository{}, classes, nil)

	_, err := svc.Request(context.Background(), testStudentID, testClassID)
	assertAppErrorCode(t, err, apperrors.CodeConflict)
}

func TestRequest_OwnClass(t *testing.T) {
	classes := &mockClassStore{
		findByIDFunc: func(ctx context.Context, id string) (*model.Class, error) {
			return availableClass(), nil
		},
	}
	svc := newTestService(&mockBookingRepository{}, classes, nil)

	_, err := svc.Request(context.Background(), testTutorID, testClassID)
	assertAppErrorCode(t, err, apperrors.CodeForbidden)
}

func TestRequest_ClassNotFound(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, &mockClassStore{}, nil)

	_, err := svc.Request(context.Background(), testStudentID, testClassID)
	assertAppErrorCode(t, err, apperrors.CodeNotFound)
}

func TestAccept_Success(t *testing.T) {
	var flipped bool
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return requestedBooking(), nil
		},
	}
	classes := &mockClassStore{
		setAvailabilityIfFunc: func(ctx context.Context, id string, expected, value bool) error {
			if !expected || value {
				t.Errorf("expected flip from available to unavailable, got expected=%v value=%v", expected, value)
			}
			flipped = true
			return nil
		},
	}
	publisher := &mockPublisher{}
	svc := newTestService(repo, classes, publisher)

	booking, err := svc.Accept(context.Background(), testBookingID, testTutorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != model.BookingAccepted {
		t.Errorf("expected status Accepted, got %s", booking.Status)
	}
	if !flipped {
		t.Error("expected class availability to be flipped")
	}
	if got := publisher.eventTypes(); len(got) != 1 || got[0] != events.BookingAccepted {
		t.Errorf("expected one %s event, got %v", events.BookingAccepted, got)
	}
}

func TestAccept_WrongTutor(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return requestedBooking(), nil
		},
	}
	svc := newTestService(repo, &mockClassStore{}, nil)

	_, err := svc.Accept(context.Background(), testBookingID, testStudentID)
	assertAppErrorCode(t, err, apperrors.CodeForbidden)
}

func TestAccept_LostAvailabilityRace(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return requestedBooking(), nil
		},
	}
	classes := &mockClassStore{
		setAvailabilityIfFunc: func(ctx context.Context, id string, expected, value bool) error {
			return classeserrors.ErrAvailabilityChanged
		},
	}
	svc := newTestService(repo, classes, nil)

	_, err := svc.Accept(context.Background(), testBookingID, testTutorID)
	assertAppErrorCode(t, err, apperrors.CodeConflict)
}

// Two requests against the same class accepted concurrently: the conditional
// availability write admits exactly one.
func TestAccept_ConcurrentSameClass(t *testing.T) {
	bookingIDs := []string{
		"64b2f0c4e13f4a0001a1b2d1",
		"64b2f0c4e13f4a0001a1b2d2",
	}

	var mu sync.Mutex
	available := true
	statuses := map[string]model.BookingStatus{
		bookingIDs[0]: model.BookingRequested,
		bookingIDs[1]: model.BookingRequested,
	}

	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			mu.Lock()
			defer mu.Unlock()
			b := requestedBooking()
			b.ID = id
			b.Status = statuses[id]
			return b, nil
		},
		updateStatusIfFunc: func(ctx context.Context, id string, from, to model.BookingStatus) error {
			mu.Lock()
			defer mu.Unlock()
			if statuses[id] != from {
				return bookingserrors.ErrStatusChanged
			}
			statuses[id] = to
			return nil
		},
	}
	classes := &mockClassStore{
		setAvailabilityIfFunc: func(ctx context.Context, id string, expected, value bool) error {
			mu.Lock()
			defer mu.Unlock()
			if available != expected {
				return classeserrors.ErrAvailabilityChanged
			}
			available = value
			return nil
		},
	}
	svc := newTestService(repo, classes, nil)

	var wg sync.WaitGroup
	results := make([]error, len(bookingIDs))
	for i, id := range bookingIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, results[i] = svc.Accept(context.Background(), id, testTutorID)
		}(i, id)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		if appErr := apperrors.AsAppError(err); appErr.Code == apperrors.CodeConflict {
			conflicts++
		}
	}

	if successes != 1 {
		t.Errorf("expected exactly 1 successful accept, got %d", successes)
	}
	if conflicts != 1 {
		t.Errorf("expected exactly 1 conflict, got %d", conflicts)
	}

	accepted := 0
	for _, status := range statuses {
		if status == model.BookingAccepted {
			accepted++
		}
	}
	if accepted != 1 {
		t.Errorf("expected exactly 1 accepted booking, got %d", accepted)
	}
	if available {
		t.Error("expected class to end unavailable")
	}
}

func TestDecline_KeepsAvailability(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return requestedBooking(), nil
		},
	}
	classes := &mockClassStore{
		setAvailabilityFunc: func(ctx context.Context, id string, value bool) error {
			t.Error("decline must not touch class availability")
			return nil
		},
		setAvailabilityIfFunc: func(ctx context.Context, id string, expected, value bool) error {
			t.Error("decline must not touch class availability")
			return nil
		},
	}
	publisher := &mockPublisher{}
	svc := newTestService(repo, classes, publisher)

	booking, err := svc.Decline(context.Background(), testBookingID, testTutorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != model.BookingDeclined {
		t.Errorf("expected status Declined, got %s", booking.Status)
	}
	if got := publisher.eventTypes(); len(got) != 1 || got[0] != events.BookingDeclined {
		t.Errorf("expected one %s event, got %v", events.BookingDeclined, got)
	}
}

func TestCancel_RestoresAvailability(t *testing.T) {
	var restored bool
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return acceptedBooking(), nil
		},
	}
	classes := &mockClassStore{
		setAvailabilityFunc: func(ctx context.Context, id string, value bool) error {
			if !value {
				t.Errorf("expected availability restored to true, got %v", value)
			}
			restored = true
			return nil
		},
	}
	svc := newTestService(repo, classes, nil)

	booking, err := svc.Cancel(context.Background(), testBookingID, testStudentID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != model.BookingCancelled {
		t.Errorf("expected status Cancelled, got %s", booking.Status)
	}
	if !restored {
		t.Error("expected class availability to be restored")
	}
}

func TestCancel_NonParticipant(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return acceptedBooking(), nil
		},
	}
	svc := newTestService(repo, &mockClassStore{}, nil)

	_, err := svc.Cancel(context.Background(), testBookingID, "64b2f0c4e13f4a0001a1b2ff")
	assertAppErrorCode(t, err, apperrors.CodeForbidden)
}

func TestComplete_KeepsClassUnavailable(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return acceptedBooking(), nil
		},
	}
	classes := &mockClassStore{
		setAvailabilityFunc: func(ctx context.Context, id string, value bool) error {
			t.Error("complete must not touch class availability")
			return nil
		},
		setAvailabilityIfFunc: func(ctx context.Context, id string, expected, value bool) error {
			t.Error("complete must not touch class availability")
			return nil
		},
	}
	svc := newTestService(repo, classes, nil)

	booking, err := svc.Complete(context.Background(), testBookingID, testTutorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != model.BookingCompleted {
		t.Errorf("expected status Completed, got %s", booking.Status)
	}
}

func TestTransitions_InvalidFromStatus(t *testing.T) {
	type operation struct {
		name    string
		actorID string
		call    func(svc BookingService, id string) error
	}
	accept := operation{"Accept", testTutorID, func(svc BookingService, id string) error {
		_, err := svc.Accept(context.Background(), id, testTutorID)
		return err
	}}
	decline := operation{"Decline", testTutorID, func(svc BookingService, id string) error {
		_, err := svc.Decline(context.Background(), id, testTutorID)
		return err
	}}
	cancel := operation{"Cancel", testStudentID, func(svc BookingService, id string) error {
		_, err := svc.Cancel(context.Background(), id, testStudentID)
		return err
	}}
	complete := operation{"Complete", testTutorID, func(svc BookingService, id string) error {
		_, err := svc.Complete(context.Background(), id, testTutorID)
		return err
	}}

	tests := []struct {
		from model.BookingStatus
		op   operation
	}{
		{model.BookingRequested, cancel},
		{model.BookingRequested, complete},
		{model.BookingAccepted, accept},
		{model.BookingAccepted, decline},
		{model.BookingDeclined, accept},
		{model.BookingDeclined, cancel},
		{model.BookingCancelled, accept},
		{model.BookingCancelled, complete},
		{model.BookingCompleted, accept},
		{model.BookingCompleted, cancel},
		{model.BookingCompleted, complete},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_"+tt.op.name, func(t *testing.T) {
			repo := &mockBookingRepository{
				findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
					b := requestedBooking()
					b.Status = tt.from
					return b, nil
				},
			}
			svc := newTestService(repo, &mockClassStore{}, nil)

			err := tt.op.call(svc, testBookingID)
			assertAppErrorCode(t, err, apperrors.CodeInvalidTransition)
		})
	}
}

func TestGetByID_NonParticipant(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return requestedBooking(), nil
		},
	}
	svc := newTestService(repo, &mockClassStore{}, nil)

	_, err := svc.GetByID(context.Background(), testBookingID, "64b2f0c4e13f4a0001a1b2ff")
	assertAppErrorCode(t, err, apperrors.CodeForbidden)
}

func TestAccept_PublishFailureDoesNotFailTransition(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return requestedBooking(), nil
		},
	}
	publisher := &mockPublisher{err: context.DeadlineExceeded}
	svc := newTestService(repo, &mockClassStore{}, publisher)

	booking, err := svc.Accept(context.Background(), testBookingID, testTutorID)
	if err != nil {
		t.Fatalf("expected transition to succeed despite publish failure, got %v", err)
	}
	if booking.Status != model.BookingAccepted {
		t.Errorf("expected status Accepted, got %s", booking.Status)
	}
}

func TestListByTutorAndStatus_ConcurrentCountAndFind(t *testing.T) {
	repo := &mockBookingRepository{
		countFunc: func(ctx context.Context, tutorID string, status model.BookingStatus) (int64, error) {
			time.Sleep(10 * time.Millisecond)
			return 3, nil
		},
		findByTutorAndStatusFunc: func(ctx context.Context, tutorID string, status model.BookingStatus, limit int, offset int64) ([]*model.Booking, error) {
			time.Sleep(10 * time.Millisecond)
			return []*model.Booking{requestedBooking()}, nil
		},
	}
	svc := newTestService(repo, &mockClassStore{}, nil)

	for i := 0; i < 20; i++ {
		bookings, count, err := svc.ListByTutorAndStatus(context.Background(), testTutorID, model.BookingRequested, 10, 0)
		if err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", i, err)
		}
		if count != 3 {
			t.Errorf("iteration %d: expected count 3, got %d", i, count)
		}
		if len(bookings) != 1 {
			t.Errorf("iteration %d: expected 1 booking, got %d", i, len(bookings))
		}
	}
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != code {
		t.Fatalf("expected error code %s, got %s (%v)", code, appErr.Code, err)
	}
}
