package service

import (
	"context"
	"testing"
	"time"

	classeserrors "mymentor/internal/classes/errors"
	reviewserrors "mymentor/internal/reviews/errors"
	"mymentor/internal/reviews/validator"
	"mymentor/pkg/config"
	apperrors "mymentor/pkg/errors"
	"mymentor/pkg/logger"
	"mymentor/pkg/model"
)

const (
	testClassID   = "64b2f0c4e13f4a0001a1b2c3"
	testStudentID = "64b2f0c4e13f4a0001a1b2c4"
	testTutorID   = "64b2f0c4e13f4a0001a1b2c5"
	testReviewID  = "64b2f0c4e13f4a0001a1b2c8"
)

// Mock repository for testing
type mockReviewRepository struct {
	createFunc      func(ctx context.Context, review *model.Review) error
	findByIDFunc    func(ctx context.Context, id string) (*model.Review, error)
	findByTutorFunc func(ctx context.Context, tutorID string, limit int, offset int64) ([]*model.Review, error)
	countFunc       func(ctx context.Context, tutorID string) (int64, error)
	averageFunc     func(ctx context.Context, tutorID string) (*float64, error)
}

func (m *mockReviewRepository) Create(ctx context.Context, review *model.Review) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, review)
	}
	review.ID = testReviewID
	return nil
}

func (m *mockReviewRepository) FindByID(ctx context.Context, id string) (*model.Review, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, reviewserrors.ErrNotFound
}

func (m *mockReviewRepository) FindByTutor(ctx context.Context, tutorID string, limit int, offset int64) ([]*model.Review, error) {
	if m.findByTutorFunc != nil {
		return m.findByTutorFunc(ctx, tutorID, limit, offset)
	}
	return []*model.Review{}, nil
}

func (m *mockReviewRepository) CountByTutor(ctx context.Context, tutorID string) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, tutorID)
	}
	return 0, nil
}

func (m *mockReviewRepository) AverageRatingByTutor(ctx context.Context, tutorID string) (*float64, error) {
	if m.averageFunc != nil {
		return m.averageFunc(ctx, tutorID)
	}
	return nil, nil
}

type mockReportRepository struct {
	createFunc func(ctx context.Context, report *model.Report) error
}

func (m *mockReportRepository) Create(ctx context.Context, report *model.Report) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, report)
	}
	report.ID = "64b2f0c4e13f4a0001a1b2c9"
	return nil
}

type mockCompletionSource struct {
	completed bool
	err       error
}

func (m *mockCompletionSource) HasBookingWithStatus(ctx context.Context, classID, studentID string, status model.BookingStatus) (bool, error) {
	return m.completed, m.err
}

type mockClassSource struct {
	findByIDFunc  func(ctx context.Context, id string) (*model.Class, error)
	findByIDsFunc func(ctx context.Context, ids []string) ([]*model.Class, error)
}

func (m *mockClassSource) FindByID(ctx context.Context, id string) (*model.Class, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, classeserrors.ErrNotFound
}

func (m *mockClassSource) FindByIDs(ctx context.Context, ids []string) ([]*model.Class, error) {
	if m.findByIDsFunc != nil {
		return m.findByIDsFunc(ctx, ids)
	}
	return []*model.Class{}, nil
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

func newTestService(
	repo *mockReviewRepository,
	reports *mockReportRepository,
	completions *mockCompletionSource,
	classes *mockClassSource,
) ReviewService {
	cfg := testConfig()
	return NewReviewService(repo, reports, completions, classes, validator.NewReviewValidator(cfg.Log), cfg)
}

func classSourceWithClass() *mockClassSource {
	return &mockClassSource{
		findByIDFunc: func(ctx context.Context, id string) (*model.Class, error) {
			return &model.Class{ID: testClassID, TutorID: testTutorID, Name: "Statistics 101"}, nil
		},
	}
}

func validReview() *model.Review {
	return &model.Review{
		ClassID: testClassID,
		Comment: "Great session, well prepared.",
		Stars:   5,
	}
}

func TestCreate_RequiresCompletedBooking(t *testing.T) {
	svc := newTestService(
		&mockReviewRepository{},
		&mockReportRepository{},
		&mockCompletionSource{completed: false},
		classSourceWithClass(),
	)

	err := svc.Create(context.Background(), testStudentID, validReview())
	assertAppErrorCode(t, err, apperrors.CodeForbidden)
}

func TestCreate_Success(t *testing.T) {
	svc := newTestService(
		&mockReviewRepository{},
		&mockReportRepository{},
		&mockCompletionSource{completed: true},
		classSourceWithClass(),
	)

	review := validReview()
	if err := svc.Create(context.Background(), testStudentID, review); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if review.StudentID != testStudentID {
		t.Errorf("expected student id stamped, got %s", review.StudentID)
	}
	if review.TutorID != testTutorID {
		t.Errorf("expected tutor id resolved from class, got %s", review.TutorID)
	}
}

func TestCreate_StarsOutOfRange(t *testing.T) {
	svc := newTestService(
		&mockReviewRepository{},
		&mockReportRepository{},
		&mockCompletionSource{completed: true},
		classSourceWithClass(),
	)

	review := validReview()
	review.Stars = 6
	err := svc.Create(context.Background(), testStudentID, review)
	assertAppErrorCode(t, err, apperrors.CodeValidation)
}

func TestAverageRating_NilWhenNoReviews(t *testing.T) {
	svc := newTestService(
		&mockReviewRepository{averageFunc: func(ctx context.Context, tutorID string) (*float64, error) {
			return nil, nil
		}},
		&mockReportRepository{},
		&mockCompletionSource{},
		&mockClassSource{},
	)

	rating, err := svc.AverageRating(context.Background(), testTutorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rating != nil {
		t.Errorf("expected nil rating for unreviewed tutor, got %v", *rating)
	}
}

func TestAverageRating_Value(t *testing.T) {
	svc := newTestService(
		&mockReviewRepository{averageFunc: func(ctx context.Context, tutorID string) (*float64, error) {
			value := 4.0
			return &value, nil
		}},
		&mockReportRepository{},
		&mockCompletionSource{},
		&mockClassSource{},
	)

	rating, err := svc.AverageRating(context.Background(), testTutorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rating == nil || *rating != 4.0 {
		t.Errorf("expected rating 4.0, got %v", rating)
	}
}

func TestListByTutor_AttachesClassNames(t *testing.T) {
	reviews := []*model.Review{
		{ID: testReviewID, ClassID: testClassID, TutorID: testTutorID, Stars: 5, Comment: "Great"},
		{ID: "64b2f0c4e13f4a0001a1b2ca", ClassID: testClassID, TutorID: testTutorID, Stars: 3, Comment: "Okay"},
	}

	var requestedIDs []string
	svc := newTestService(
		&mockReviewRepository{
			findByTutorFunc: func(ctx context.Context, tutorID string, limit int, offset int64) ([]*model.Review, error) {
				return reviews, nil
			},
			countFunc: func(ctx context.Context, tutorID string) (int64, error) {
				return 2, nil
			},
		},
		&mockReportRepository{},
		&mockCompletionSource{},
		&mockClassSource{
			findByIDsFunc: func(ctx context.Context, ids []string) ([]*model.Class, error) {
				requestedIDs = ids
				return []*model.Class{{ID: testClassID, Name: "Statistics 101"}}, nil
			},
		},
	)

	enriched, total, err := svc.ListByTutor(context.Background(), testTutorID, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 {
		t.Errorf("expected total 2, got %d", total)
	}
	if len(requestedIDs) != 1 {
		t.Errorf("expected batch lookup with deduplicated ids, got %v", requestedIDs)
	}
	for _, item := range enriched {
		if item.ClassName != "Statistics 101" {
			t.Errorf("expected class name attached, got %q", item.ClassName)
		}
	}
}

func TestReport_WrongTutor(t *testing.T) {
	svc := newTestService(
		&mockReviewRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Review, error) {
				return &model.Review{ID: testReviewID, TutorID: testTutorID}, nil
			},
		},
		&mockReportRepository{},
		&mockCompletionSource{},
		&mockClassSource{},
	)

	err := svc.Report(context.Background(), "64b2f0c4e13f4a0001a1b2ff", &model.Report{
		ReviewID:    testReviewID,
		Description: "This review is about a different class entirely.",
	})
	assertAppErrorCode(t, err, apperrors.CodeForbidden)
}

func TestReport_Success(t *testing.T) {
	svc := newTestService(
		&mockReviewRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Review, error) {
				return &model.Review{ID: testReviewID, TutorID: testTutorID}, nil
			},
		},
		&mockReportRepository{},
		&mockCompletionSource{},
		&mockClassSource{},
	)

	report := &model.Report{
		ReviewID:    testReviewID,
		Description: "This review is about a different class entirely.",
	}
	if err := svc.Report(context.Background(), testTutorID, report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TutorID != testTutorID {
		t.Errorf("expected tutor id stamped, got %s", report.TutorID)
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
