package handler

import (
	"encoding/json"
	"net/http"

	"mymentor/internal/reviews/service"
	apperrors "mymentor/pkg/errors"
	httputil "mymentor/pkg/http"
	"mymentor/pkg/identity"
	"mymentor/pkg/logger"
	"mymentor/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReviewHandler struct {
	service service.ReviewService
	log     *logger.Logger
}

func NewReviewHandler(service service.ReviewService, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		log:     log,
	}
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := identity.FromContext(r.Context())
	if !ok || !actor.IsStudent() {
		h.writeError(w, "Create", apperrors.Forbidden("Only students may write reviews"))
		return
	}

	var review model.Review
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.Create(r.Context(), actor.ID, &review); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, review); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tutorID := r.URL.Query().Get("tutor_id")
	if tutorID == "" {
		actor, ok := identity.FromContext(r.Context())
		if !ok || !actor.IsTutor() {
			h.writeError(w, "List", apperrors.InvalidInput("'tutor_id' query parameter is required"))
			return
		}
		tutorID = actor.ID
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	reviews, total, err := h.service.ListByTutor(r.Context(), tutorID, limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, reviews, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

type averageRatingResponse struct {
	TutorID string   `json:"tutor_id"`
	Rating  *float64 `json:"rating"`
}

func (h *ReviewHandler) AverageRating(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tutorID := ps.ByName("id")

	rating, err := h.service.AverageRating(r.Context(), tutorID)
	if err != nil {
		h.writeError(w, "AverageRating", err)
		return
	}

	if err := httputil.WriteSuccess(w, averageRatingResponse{TutorID: tutorID, Rating: rating}); err != nil {
		h.log.Error("failed to write success response", "handler", "AverageRating", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReviewHandler) Report(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := identity.FromContext(r.Context())
	if !ok || !actor.IsTutor() {
		h.writeError(w, "Report", apperrors.Forbidden("Only tutors may report reviews"))
		return
	}

	var report model.Report
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		h.writeError(w, "Report", apperrors.InvalidInput("Invalid request body"))
		return
	}
	report.ReviewID = ps.ByName("id")

	if err := h.service.Report(r.Context(), actor.ID, &report); err != nil {
		h.writeError(w, "Report", err)
		return
	}

	if err := httputil.WriteCreated(w, report); err != nil {
		h.log.Error("failed to write created response", "handler", "Report", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReviewHandler) writeError(w http.ResponseWriter, op string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", op, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ReviewHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reviews", h.Create)
	router.GET("/api/v1/reviews", h.List)
	router.GET("/api/v1/reviews/rating/:id", h.AverageRating)
	router.POST("/api/v1/reviews/id/:id/report", h.Report)
}
