package service

import (
	"context"
	"errors"
	"sync"

	classeserrors "mymentor/internal/classes/errors"
	reviewserrors "mymentor/internal/reviews/errors"
	"mymentor/internal/reviews/repository"
	"mymentor/internal/reviews/validator"
	"mymentor/pkg/config"
	apperrors "mymentor/pkg/errors"
	"mymentor/pkg/model"
	"mymentor/pkg/sanitizer"
)

// CompletionSource answers whether a student actually finished a class. Only
// students with a Completed booking may review it.
type CompletionSource interface {
	HasBookingWithStatus(ctx context.Context, classID, studentID string, status model.BookingStatus) (bool, error)
}

// ClassSource resolves classes for review creation and listing enrichment.
type ClassSource interface {
	FindByID(ctx context.Context, id string) (*model.Class, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.Class, error)
}

type ReviewService interface {
	Create(ctx context.Context, studentID string, review *model.Review) error
	ListByTutor(ctx context.Context, tutorID string, limit int, offset int64) ([]*model.ReviewWithClass, int64, error)
	AverageRating(ctx context.Context, tutorID string) (*float64, error)
	Report(ctx context.Context, tutorID string, report *model.Report) error
}

type reviewService struct {
	repo        repository.ReviewRepository
	reports     repository.ReportRepository
	completions CompletionSource
	classes     ClassSource
	validator   *validator.ReviewValidator
	cfg         *config.Config
}

func NewReviewService(
	repo repository.ReviewRepository,
	reports repository.ReportRepository,
	completions CompletionSource,
	classes ClassSource,
	validator *validator.ReviewValidator,
	cfg *config.Config,
) ReviewService {
	return &reviewService{
		repo:        repo,
		reports:     reports,
		completions: completions,
		classes:     classes,
		validator:   validator,
		cfg:         cfg,
	}
}

func (s *reviewService) Create(ctx context.Context, studentID string, review *model.Review) error {
	if review.ClassID == "" {
		return apperrors.InvalidInput("Class ID cannot be empty")
	}

	class, err := s.classes.FindByID(ctx, review.ClassID)
	if err != nil {
		if errors.Is(err, classeserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Class", review.ClassID)
		}
		if errors.Is(err, classeserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid class ID format")
		}
		return apperrors.Internal("Failed to retrieve class", err)
	}

	completed, err := s.completions.HasBookingWithStatus(ctx, review.ClassID, studentID, model.BookingCompleted)
	if err != nil {
		return apperrors.Internal("Failed to check booking history", err)
	}
	if !completed {
		return apperrors.Forbidden("Only students who completed this class may review it")
	}

	review.StudentID = studentID
	review.TutorID = class.TutorID
	review.Comment = sanitizer.NormalizeComment(review.Comment)

	if err := s.validator.Validate(review); err != nil {
		s.cfg.Log.Warn("Review validation failed", "class_id", review.ClassID, "error", err)
		return apperrors.Validation("Review validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, review); err != nil {
		s.cfg.Log.Error("Failed to create review", "class_id", review.ClassID, "student_id", studentID, "error", err)
		return apperrors.Internal("Failed to create review", err)
	}

	s.cfg.Log.Info("Review created",
		"id", review.ID,
		"class_id", review.ClassID,
		"tutor_id", review.TutorID,
		"stars", review.Stars,
	)
	return nil
}

func (s *reviewService) ListByTutor(ctx context.Context, tutorID string, limit int, offset int64) ([]*model.ReviewWithClass, int64, error) {
	if tutorID == "" {
		return nil, 0, apperrors.InvalidInput("Tutor ID cannot be empty")
	}

	var count int64
	var reviews []*model.Review
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByTutor(ctx, tutorID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reviews", "tutor_id", tutorID, "error", errCount)
			errCount = apperrors.Internal("Failed to count reviews", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reviews, errFind = s.repo.FindByTutor(ctx, tutorID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reviews", "tutor_id", tutorID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reviews", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	enriched, err := s.attachClassNames(ctx, reviews)
	if err != nil {
		return nil, 0, err
	}

	return enriched, count, nil
}

func (s *reviewService) AverageRating(ctx context.Context, tutorID string) (*float64, error) {
	if tutorID == "" {
		return nil, apperrors.InvalidInput("Tutor ID cannot be empty")
	}

	rating, err := s.repo.AverageRatingByTutor(ctx, tutorID)
	if err != nil {
		s.cfg.Log.Error("Failed to compute average rating", "tutor_id", tutorID, "error", err)
		return nil, apperrors.Internal("Failed to compute average rating", err)
	}

	return rating, nil
}

func (s *reviewService) Report(ctx context.Context, tutorID string, report *model.Report) error {
	if report.ReviewID == "" {
		return apperrors.InvalidInput("Review ID cannot be empty")
	}

	review, err := s.repo.FindByID(ctx, report.ReviewID)
	if err != nil {
		if errors.Is(err, reviewserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Review", report.ReviewID)
		}
		if errors.Is(err, reviewserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid review ID format")
		}
		return apperrors.Internal("Failed to retrieve review", err)
	}

	if review.TutorID != tutorID {
		return apperrors.Forbidden("Only the reviewed tutor may report this review")
	}

	report.TutorID = tutorID
	report.Description = sanitizer.NormalizeComment(report.Description)

	if err := s.validator.ValidateReport(report); err != nil {
		s.cfg.Log.Warn("Report validation failed", "review_id", report.ReviewID, "error", err)
		return apperrors.Validation("Report validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.reports.Create(ctx, report); err != nil {
		s.cfg.Log.Error("Failed to create report", "review_id", report.ReviewID, "error", err)
		return apperrors.Internal("Failed to create report", err)
	}

	s.cfg.Log.Info("Review reported", "id", report.ID, "review_id", report.ReviewID, "tutor_id", tutorID)
	return nil
}

// attachClassNames resolves class names for a page of reviews with one batch
// lookup keyed by class id.
func (s *reviewService) attachClassNames(ctx context.Context, reviews []*model.Review) ([]*model.ReviewWithClass, error) {
	if len(reviews) == 0 {
		return []*model.ReviewWithClass{}, nil
	}

	seen := make(map[string]bool, len(reviews))
	ids := make([]string, 0, len(reviews))
	for _, review := range reviews {
		if !seen[review.ClassID] {
			seen[review.ClassID] = true
			ids = append(ids, review.ClassID)
		}
	}

	classes, err := s.classes.FindByIDs(ctx, ids)
	if err != nil {
		s.cfg.Log.Error("Failed to resolve classes for reviews", "error", err)
		return nil, apperrors.Internal("Failed to resolve classes for reviews", err)
	}

	names := make(map[string]string, len(classes))
	for _, class := range classes {
		names[class.ID] = class.Name
	}

	enriched := make([]*model.ReviewWithClass, 0, len(reviews))
	for _, review := range reviews {
		enriched = append(enriched, &model.ReviewWithClass{
			Review:    *review,
			ClassName: names[review.ClassID],
		})
	}

	return enriched, nil
}
