package service

import (
	"context"
	"errors"
	"sync"
	"time"

	classeserrors "mymentor/internal/classes/errors"
	"mymentor/internal/classes/repository"
	"mymentor/internal/classes/validator"
	"mymentor/pkg/config"
	apperrors "mymentor/pkg/errors"
	"mymentor/pkg/model"
	"mymentor/pkg/sanitizer"
)

// RatingSource supplies a tutor's current average review score. The snapshot
// is stamped on the class at creation time and never refreshed afterwards, so
// a class's displayed rating does not drift as later reviews arrive.
type RatingSource interface {
	AverageRatingByTutor(ctx context.Context, tutorID string) (*float64, error)
}

type ClassService interface {
	Create(ctx context.Context, tutorID string, class *model.Class) error
	GetByID(ctx context.Context, id string) (*model.Class, error)
	GetByIDs(ctx context.Context, ids []string) ([]*model.Class, error)
	ListByAvailability(ctx context.Context, tutorID string, available bool, limit int, offset int64) ([]*model.Class, int64, error)
	SearchByDateRange(ctx context.Context, tutorID string, start, end time.Time, limit int, offset int64) ([]*model.Class, error)
	Update(ctx context.Context, id, tutorID string, updates *model.ClassUpdate) (*model.Class, error)
}

type classService struct {
	repo      repository.ClassRepository
	ratings   RatingSource
	validator *validator.ClassValidator
	cfg       *config.Config
}

func NewClassService(
	repo repository.ClassRepository,
	ratings RatingSource,
	validator *validator.ClassValidator,
	cfg *config.Config,
) ClassService {
	return &classService{
		repo:      repo,
		ratings:   ratings,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *classService) Create(ctx context.Context, tutorID string, class *model.Class) error {
	class.TutorID = tutorID
	class.Availability = true
	s.sanitize(class)

	if err := s.validate(class); err != nil {
		return err
	}

	rating, err := s.ratings.AverageRatingByTutor(ctx, tutorID)
	if err != nil {
		return apperrors.Internal("Failed to compute tutor rating snapshot", err)
	}
	class.TutorRating = rating

	if err := s.repo.Create(ctx, class); err != nil {
		s.cfg.Log.Error("Failed to create class", "tutor_id", tutorID, "error", err)
		return apperrors.Internal("Failed to create class", err)
	}

	s.cfg.Log.Info("Class created successfully",
		"id", class.ID,
		"tutor_id", tutorID,
		"date", class.Date,
	)
	return nil
}

func (s *classService) GetByID(ctx context.Context, id string) (*model.Class, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Class ID cannot be empty")
	}

	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, id)
	}

	return class, nil
}

func (s *classService) GetByIDs(ctx context.Context, ids []string) ([]*model.Class, error) {
	if len(ids) == 0 {
		return []*model.Class{}, nil
	}

	classes, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		if errors.Is(err, classeserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid class ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve classes", err)
	}

	return classes, nil
}

func (s *classService) ListByAvailability(ctx context.Context, tutorID string, available bool, limit int, offset int64) ([]*model.Class, int64, error) {
	if tutorID == "" {
		return nil, 0, apperrors.InvalidInput("Tutor ID cannot be empty")
	}

	var count int64
	var classes []*model.Class
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByTutorAndAvailability(ctx, tutorID, available)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count classes", "tutor_id", tutorID, "error", errCount)
			errCount = apperrors.Internal("Failed to count classes", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		classes, errFind = s.repo.FindByTutorAndAvailability(ctx, tutorID, available, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list classes", "tutor_id", tutorID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve classes", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return classes, count, nil
}

func (s *classService) SearchByDateRange(ctx context.Context, tutorID string, start, end time.Time, limit int, offset int64) ([]*model.Class, error) {
	if tutorID == "" {
		return nil, apperrors.InvalidInput("Tutor ID cannot be empty")
	}
	if !end.After(start) {
		return nil, apperrors.InvalidInput("end must be after start")
	}

	classes, err := s.repo.FindByTutorAndDateRange(ctx, tutorID, start, end, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to search classes",
			"tutor_id", tutorID,
			"start", start,
			"end", end,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to search classes", err)
	}

	return classes, nil
}

func (s *classService) Update(ctx context.Context, id, tutorID string, updates *model.ClassUpdate) (*model.Class, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Class ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, id)
	}

	if existing.TutorID != tutorID {
		return nil, apperrors.Forbidden("Only the owning tutor may update this class")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Class update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	// A class with availability=false holds a live commitment (accepted) or is
	// spent (completed). Either way its date and cost are frozen.
	if !existing.Availability && changesCommitment(existing, updates) {
		return nil, apperrors.Conflict("Class has an accepted booking; date and cost cannot change")
	}

	merged := s.mergeClassUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, classeserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Class", id)
		}
		s.cfg.Log.Error("Failed to update class", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update class", err)
	}

	s.cfg.Log.Info("Class updated successfully", "id", id, "tutor_id", tutorID)
	return merged, nil
}

// --- Helpers ---

func changesCommitment(existing *model.Class, updates *model.ClassUpdate) bool {
	if updates.Date != nil && !updates.Date.Equal(existing.Date) {
		return true
	}
	if updates.Cost != nil && (existing.Cost == nil || *updates.Cost != *existing.Cost) {
		return true
	}
	return false
}

func (s *classService) mergeClassUpdates(existing *model.Class, updates *model.ClassUpdate) *model.Class {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Date != nil {
		merged.Date = *updates.Date
	}
	if updates.Subject != "" {
		merged.Subject = updates.Subject
	}
	if updates.Area != "" {
		merged.Area = updates.Area
	}
	if updates.Description != "" {
		merged.Description = updates.Description
	}
	if updates.Cost != nil {
		merged.Cost = updates.Cost
	}

	return &merged
}

func (s *classService) sanitize(c *model.Class) {
	c.Name = sanitizer.NormalizeName(c.Name)
	c.Subject = sanitizer.NormalizeSubject(c.Subject)
	c.Area = sanitizer.NormalizeName(c.Area)
	c.Description = sanitizer.NormalizeComment(c.Description)
}

func (s *classService) validate(class *model.Class) error {
	if err := s.validator.Validate(class); err != nil {
		s.cfg.Log.Warn("Class validation failed", "error", err)
		return apperrors.Validation("Class validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func mapLookupError(err error, id string) error {
	if errors.Is(err, classeserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Class", id)
	}
	if errors.Is(err, classeserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid class ID format")
	}
	return apperrors.Internal("Failed to retrieve class", err)
}
