package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"mymentor/internal/classes/service"
	apperrors "mymentor/pkg/errors"
	httputil "mymentor/pkg/http"
	"mymentor/pkg/identity"
	"mymentor/pkg/logger"
	"mymentor/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ClassHandler struct {
	service service.ClassService
	log     *logger.Logger
}

func NewClassHandler(service service.ClassService, log *logger.Logger) *ClassHandler {
	return &ClassHandler{
		service: service,
		log:     log,
	}
}

func (h *ClassHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := h.requireTutor(w, r, "Create")
	if !ok {
		return
	}

	var class model.Class
	if err := json.NewDecoder(r.Body).Decode(&class); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.Create(r.Context(), actor.ID, &class); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, class); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ClassHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	class, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, class); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ClassHandler) GetBulk(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	idsParam := r.URL.Query().Get("ids")
	if idsParam == "" {
		h.writeError(w, "GetBulk", apperrors.InvalidInput("'ids' query parameter is required"))
		return
	}

	classes, err := h.service.GetByIDs(r.Context(), strings.Split(idsParam, ","))
	if err != nil {
		h.writeError(w, "GetBulk", err)
		return
	}

	if err := httputil.WriteSuccess(w, classes); err != nil {
		h.log.Error("failed to write success response", "handler", "GetBulk", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ClassHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := h.requireTutor(w, r, "List")
	if !ok {
		return
	}

	available := true
	if s := r.URL.Query().Get("available"); s != "" {
		parsed, err := strconv.ParseBool(s)
		if err != nil {
			h.writeError(w, "List", apperrors.InvalidInput("invalid available parameter: "+s))
			return
		}
		available = parsed
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	classes, total, err := h.service.ListByAvailability(r.Context(), actor.ID, available, limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, classes, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *ClassHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := h.requireTutor(w, r, "Search")
	if !ok {
		return
	}

	start, err := httputil.ExtractTime(r, "start")
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}
	end, err := httputil.ExtractTime(r, "end")
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}
	if start.IsZero() || end.IsZero() {
		h.writeError(w, "Search", apperrors.InvalidInput("'start' and 'end' query parameters are required"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	classes, err := h.service.SearchByDateRange(r.Context(), actor.ID, start, end, limit, offset)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WriteSuccess(w, classes); err != nil {
		h.log.Error("failed to write success response", "handler", "Search", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ClassHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := h.requireTutor(w, r, "Update")
	if !ok {
		return
	}

	var updates model.ClassUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	class, err := h.service.Update(r.Context(), ps.ByName("id"), actor.ID, &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, class); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ClassHandler) requireTutor(w http.ResponseWriter, r *http.Request, op string) (identity.Actor, bool) {
	actor, ok := identity.FromContext(r.Context())
	if !ok || !actor.IsTutor() {
		h.writeError(w, op, apperrors.Forbidden("Only tutors may perform this operation"))
		return identity.Actor{}, false
	}
	return actor, true
}

func (h *ClassHandler) writeError(w http.ResponseWriter, op string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", op, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ClassHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/classes", h.Create)
	router.GET("/api/v1/classes", h.List)
	router.GET("/api/v1/classes/bulk", h.GetBulk)
	router.GET("/api/v1/classes/search", h.Search)
	router.GET("/api/v1/classes/id/:id", h.GetByID)
	router.PATCH("/api/v1/classes/id/:id", h.Update)
}
