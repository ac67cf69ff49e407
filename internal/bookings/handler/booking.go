package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"mymentor/internal/bookings/service"
	apperrors "mymentor/pkg/errors"
	httputil "mymentor/pkg/http"
	"mymentor/pkg/identity"
	"mymentor/pkg/logger"
	"mymentor/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

type requestBookingInput struct {
	ClassID string `json:"class_id"`
}

func (h *BookingHandler) Request(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := identity.FromContext(r.Context())
	if !ok || !actor.IsStudent() {
		h.writeError(w, "Request", apperrors.Forbidden("Only students may request bookings"))
		return
	}

	var input requestBookingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, "Request", apperrors.InvalidInput("Invalid request body"))
		return
	}

	booking, err := h.service.Request(r.Context(), actor.ID, input.ClassID)
	if err != nil {
		h.writeError(w, "Request", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Request", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := identity.FromContext(r.Context())
	if !ok {
		h.writeError(w, "GetByID", apperrors.Unauthorized("Missing actor identity"))
		return
	}

	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"), actor.ID)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := identity.FromContext(r.Context())
	if !ok || !actor.IsTutor() {
		h.writeError(w, "List", apperrors.Forbidden("Only tutors may list bookings"))
		return
	}

	status, err := parseStatus(r.URL.Query().Get("status"))
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	bookings, total, err := h.service.ListByTutorAndStatus(r.Context(), actor.ID, status, limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Accept(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "Accept", h.service.Accept)
}

func (h *BookingHandler) Decline(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "Decline", h.service.Decline)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "Cancel", h.service.Cancel)
}

func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "Complete", h.service.Complete)
}

func (h *BookingHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	ps httprouter.Params,
	op string,
	fn func(ctx context.Context, id, actorID string) (*model.Booking, error),
) {
	actor, ok := identity.FromContext(r.Context())
	if !ok {
		h.writeError(w, op, apperrors.Unauthorized("Missing actor identity"))
		return
	}

	booking, err := fn(r.Context(), ps.ByName("id"), actor.ID)
	if err != nil {
		h.writeError(w, op, err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", op, "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, op string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", op, "operation", "WriteError", "error", writeErr)
	}
}

// parseStatus maps the query parameter onto a booking status, defaulting to
// Requested, which is the tutor's work queue.
func parseStatus(s string) (model.BookingStatus, error) {
	if s == "" {
		return model.BookingRequested, nil
	}

	status := model.BookingStatus(s)
	switch status {
	case model.BookingRequested, model.BookingAccepted, model.BookingDeclined,
		model.BookingCancelled, model.BookingCompleted:
		return status, nil
	}
	return "", apperrors.InvalidInput("invalid status parameter: " + s)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Request)
	router.GET("/api/v1/bookings", h.List)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.POST("/api/v1/bookings/id/:id/accept", h.Accept)
	router.POST("/api/v1/bookings/id/:id/decline", h.Decline)
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)
	router.POST("/api/v1/bookings/id/:id/complete", h.Complete)
}
