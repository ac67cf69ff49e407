package handler

import (
	"net/http"

	"mymentor/internal/schedule/service"
	apperrors "mymentor/pkg/errors"
	httputil "mymentor/pkg/http"
	"mymentor/pkg/identity"
	"mymentor/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type ScheduleHandler struct {
	service service.ScheduleService
	log     *logger.Logger
}

func NewScheduleHandler(service service.ScheduleService, log *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		log:     log,
	}
}

func (h *ScheduleHandler) Upcoming(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := identity.FromContext(r.Context())
	if !ok || !actor.IsTutor() {
		h.writeError(w, "Upcoming", apperrors.Forbidden("Only tutors may view their schedule"))
		return
	}

	asOf, err := httputil.ExtractTime(r, "as_of")
	if err != nil {
		h.writeError(w, "Upcoming", err)
		return
	}

	classes, err := h.service.UpcomingAccepted(r.Context(), actor.ID, asOf)
	if err != nil {
		h.writeError(w, "Upcoming", err)
		return
	}

	if err := httputil.WriteSuccess(w, classes); err != nil {
		h.log.Error("failed to write success response", "handler", "Upcoming", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) writeError(w http.ResponseWriter, op string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", op, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ScheduleHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/schedule/upcoming", h.Upcoming)
}
