package service

import (
	"context"
	"errors"
	"strings"

	tutorserrors "mymentor/internal/tutors/errors"
	"mymentor/internal/tutors/repository"
	"mymentor/internal/tutors/validator"
	"mymentor/pkg/config"
	apperrors "mymentor/pkg/errors"
	"mymentor/pkg/media"
	"mymentor/pkg/model"
	"mymentor/pkg/sanitizer"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type TutorService interface {
	Register(ctx context.Context, actorID string, tutor *model.Tutor) error
	GetByID(ctx context.Context, id string) (*model.Tutor, error)
	Update(ctx context.Context, actorID string, updates *model.TutorUpdate) (*model.Tutor, error)
	UploadImage(ctx context.Context, actorID, contentType string, data []byte) (string, error)
	GetImage(ctx context.Context, tutorID string) (*media.Object, error)
}

type tutorService struct {
	repo      repository.TutorRepository
	images    media.Store
	validator *validator.TutorValidator
	cfg       *config.Config
}

func NewTutorService(
	repo repository.TutorRepository,
	images media.Store,
	validator *validator.TutorValidator,
	cfg *config.Config,
) TutorService {
	return &tutorService{
		repo:      repo,
		images:    images,
		validator: validator,
		cfg:       cfg,
	}
}

// Register creates the profile behind an actor id. The id comes from the
// identity gateway, so the profile document is keyed by it directly.
func (s *tutorService) Register(ctx context.Context, actorID string, tutor *model.Tutor) error {
	tutor.ID = actorID
	tutor.ImageID = ""
	s.sanitize(tutor)

	if err := s.validator.Validate(tutor); err != nil {
		s.cfg.Log.Warn("Tutor validation failed", "id", actorID, "error", err)
		return apperrors.Validation("Tutor validation failed", map[string]any{"error": err.Error()})
	}

	if _, err := s.repo.FindByID(ctx, actorID); err == nil {
		return apperrors.Conflict("Tutor profile already exists")
	} else if !errors.Is(err, tutorserrors.ErrNotFound) {
		if errors.Is(err, tutorserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid tutor ID format")
		}
		return apperrors.Internal("Failed to check tutor profile", err)
	}

	if err := s.repo.Create(ctx, tutor); err != nil {
		if errors.Is(err, tutorserrors.ErrEmailInUse) {
			return apperrors.Conflict("Email already registered")
		}
		// Lost a race with a concurrent registration by the same actor; the
		// check above cannot serialize two in-flight inserts.
		if errors.Is(err, tutorserrors.ErrProfileExists) {
			return apperrors.Conflict("Tutor profile already exists")
		}
		s.cfg.Log.Error("Failed to create tutor", "id", actorID, "error", err)
		return apperrors.Internal("Failed to create tutor", err)
	}

	s.cfg.Log.Info("Tutor registered", "id", tutor.ID, "email", tutor.Email)
	return nil
}

func (s *tutorService) GetByID(ctx context.Context, id string) (*model.Tutor, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Tutor ID cannot be empty")
	}

	tutor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, id)
	}

	return tutor, nil
}

func (s *tutorService) Update(ctx context.Context, actorID string, updates *model.TutorUpdate) (*model.Tutor, error) {
	existing, err := s.repo.FindByID(ctx, actorID)
	if err != nil {
		return nil, mapLookupError(err, actorID)
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Tutor update validation failed", "id", actorID, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeTutorUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validator.Validate(merged); err != nil {
		return nil, apperrors.Validation("Tutor validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Update(ctx, actorID, merged); err != nil {
		if errors.Is(err, tutorserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Tutor", actorID)
		}
		s.cfg.Log.Error("Failed to update tutor", "id", actorID, "error", err)
		return nil, apperrors.Internal("Failed to update tutor", err)
	}

	s.cfg.Log.Info("Tutor updated", "id", actorID)
	return merged, nil
}

// UploadImage stores a new profile image and swaps the reference. The old
// image is removed best-effort; a dangling media object is harmless.
func (s *tutorService) UploadImage(ctx context.Context, actorID, contentType string, data []byte) (string, error) {
	if !allowedImageTypes[contentType] {
		return "", apperrors.InvalidInput("Unsupported image content type: " + contentType)
	}
	if len(data) == 0 {
		return "", apperrors.InvalidInput("Image data cannot be empty")
	}
	if len(data) > s.cfg.MaxImageSize {
		return "", apperrors.Validation("Image exceeds maximum size", map[string]any{
			"max_bytes": s.cfg.MaxImageSize,
			"got_bytes": len(data),
		})
	}

	tutor, err := s.repo.FindByID(ctx, actorID)
	if err != nil {
		return "", mapLookupError(err, actorID)
	}

	imageID, err := s.images.Put(ctx, actorID, contentType, data)
	if err != nil {
		s.cfg.Log.Error("Failed to store image", "tutor_id", actorID, "error", err)
		return "", apperrors.Internal("Failed to store image", err)
	}

	if err := s.repo.SetImageID(ctx, actorID, imageID); err != nil {
		s.cfg.Log.Error("Failed to reference image", "tutor_id", actorID, "image_id", imageID, "error", err)
		return "", apperrors.Internal("Failed to reference image", err)
	}

	if tutor.ImageID != "" {
		if err := s.images.Delete(ctx, tutor.ImageID); err != nil && !errors.Is(err, media.ErrNotFound) {
			s.cfg.Log.Warn("Failed to delete previous image", "tutor_id", actorID, "image_id", tutor.ImageID, "error", err)
		}
	}

	s.cfg.Log.Info("Tutor image updated", "tutor_id", actorID, "image_id", imageID)
	return imageID, nil
}

func (s *tutorService) GetImage(ctx context.Context, tutorID string) (*media.Object, error) {
	tutor, err := s.repo.FindByID(ctx, tutorID)
	if err != nil {
		return nil, mapLookupError(err, tutorID)
	}
	if tutor.ImageID == "" {
		return nil, apperrors.NotFound("Tutor image")
	}

	obj, err := s.images.Get(ctx, tutor.ImageID)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			return nil, apperrors.NotFound("Tutor image")
		}
		return nil, apperrors.Internal("Failed to load image", err)
	}

	return obj, nil
}

// --- Helpers ---

func (s *tutorService) mergeTutorUpdates(existing *model.Tutor, updates *model.TutorUpdate) *model.Tutor {
	merged := *existing

	if updates.Institution != "" {
		merged.Institution = updates.Institution
	}
	if updates.Semester != nil {
		merged.Semester = *updates.Semester
	}
	if updates.Description != "" {
		merged.Description = updates.Description
	}
	if updates.Category != "" {
		merged.Category = updates.Category
	}
	if updates.GPA != nil {
		merged.GPA = *updates.GPA
	}

	return &merged
}

func (s *tutorService) sanitize(t *model.Tutor) {
	t.FirstName = sanitizer.NormalizeName(t.FirstName)
	t.LastName = sanitizer.NormalizeName(t.LastName)
	t.Email = strings.ToLower(sanitizer.TrimAndNormalize(t.Email))
	t.Institution = sanitizer.NormalizeName(t.Institution)
	t.Description = sanitizer.NormalizeComment(t.Description)
	t.Category = sanitizer.NormalizeName(t.Category)
}

func mapLookupError(err error, id string) error {
	if errors.Is(err, tutorserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Tutor", id)
	}
	if errors.Is(err, tutorserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid tutor ID format")
	}
	return apperrors.Internal("Failed to retrieve tutor", err)
}
