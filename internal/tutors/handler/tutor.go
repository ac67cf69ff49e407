package handler

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"

	"mymentor/internal/tutors/service"
	apperrors "mymentor/pkg/errors"
	httputil "mymentor/pkg/http"
	"mymentor/pkg/identity"
	"mymentor/pkg/logger"
	"mymentor/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type TutorHandler struct {
	service service.TutorService
	log     *logger.Logger
}

func NewTutorHandler(service service.TutorService, log *logger.Logger) *TutorHandler {
	return &TutorHandler{
		service: service,
		log:     log,
	}
}

func (h *TutorHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := h.requireTutor(w, r, "Register")
	if !ok {
		return
	}

	var tutor model.Tutor
	if err := json.NewDecoder(r.Body).Decode(&tutor); err != nil {
		h.writeError(w, "Register", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.Register(r.Context(), actor.ID, &tutor); err != nil {
		h.writeError(w, "Register", err)
		return
	}

	if err := httputil.WriteCreated(w, tutor); err != nil {
		h.log.Error("failed to write created response", "handler", "Register", "operation", "WriteCreated", "error", err)
	}
}

func (h *TutorHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tutor, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, tutor); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TutorHandler) GetMe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := h.requireTutor(w, r, "GetMe")
	if !ok {
		return
	}

	tutor, err := h.service.GetByID(r.Context(), actor.ID)
	if err != nil {
		h.writeError(w, "GetMe", err)
		return
	}

	if err := httputil.WriteSuccess(w, tutor); err != nil {
		h.log.Error("failed to write success response", "handler", "GetMe", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TutorHandler) Update(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := h.requireTutor(w, r, "Update")
	if !ok {
		return
	}

	var updates model.TutorUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	tutor, err := h.service.Update(r.Context(), actor.ID, &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, tutor); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

type uploadImageInput struct {
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
}

type uploadImageResponse struct {
	ImageID string `json:"image_id"`
}

// UploadImage accepts the image as base64 inside a JSON envelope so it passes
// through the same content-type and size middleware as every other write.
func (h *TutorHandler) UploadImage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := h.requireTutor(w, r, "UploadImage")
	if !ok {
		return
	}

	var input uploadImageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, "UploadImage", apperrors.InvalidInput("Invalid request body"))
		return
	}

	data, err := base64.StdEncoding.DecodeString(input.Data)
	if err != nil {
		h.writeError(w, "UploadImage", apperrors.InvalidInput("'data' must be valid base64"))
		return
	}

	imageID, err := h.service.UploadImage(r.Context(), actor.ID, input.ContentType, data)
	if err != nil {
		h.writeError(w, "UploadImage", err)
		return
	}

	if err := httputil.WriteSuccess(w, uploadImageResponse{ImageID: imageID}); err != nil {
		h.log.Error("failed to write success response", "handler", "UploadImage", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TutorHandler) GetImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	obj, err := h.service.GetImage(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetImage", err)
		return
	}

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	if _, err := w.Write(obj.Data); err != nil {
		h.log.Error("failed to write image response", "handler", "GetImage", "error", err)
	}
}

func (h *TutorHandler) requireTutor(w http.ResponseWriter, r *http.Request, op string) (identity.Actor, bool) {
	actor, ok := identity.FromContext(r.Context())
	if !ok || !actor.IsTutor() {
		h.writeError(w, op, apperrors.Forbidden("Only tutors may perform this operation"))
		return identity.Actor{}, false
	}
	return actor, true
}

func (h *TutorHandler) writeError(w http.ResponseWriter, op string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", op, "operation", "WriteError", "error", writeErr)
	}
}

func (h *TutorHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/tutors", h.Register)
	router.GET("/api/v1/tutors/me", h.GetMe)
	router.PATCH("/api/v1/tutors/me", h.Update)
	router.PUT("/api/v1/tutors/me/image", h.UploadImage)
	router.GET("/api/v1/tutors/id/:id", h.GetByID)
	router.GET("/api/v1/tutors/id/:id/image", h.GetImage)
}
