// internal/handlers/study_handler.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"defkeep/internal/model"
	"defkeep/internal/service"
	"defkeep/internal/webutil"
)

type StudyHandler struct {
	service service.StudyService
}

func NewStudyHandler(s service.StudyService) *StudyHandler {
	return &StudyHandler{service: s}
}

func (h *StudyHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	queue, err := h.service.BuildTodayQueue(r.Context())
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	if queue == nil {
		queue = []*model.StudyCard{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, queue)
}

func (h *StudyHandler) GetExtraQueue(w http.ResponseWriter, r *http.Request) {
	queue, err := h.service.BuildExtraQueue(r.Context())
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	if queue == nil {
		queue = []*model.StudyCard{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, queue)
}

func (h *StudyHandler) PostGrade(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		webutil.HandleError(w, model.NewAppError("INVALID_KEY", "A term key is required.", "key", model.ErrInvalidInput))
		return
	}

	var req model.GradeCardRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		webutil.HandleError(w, err)
		return
	}
	if err := webutil.Validator.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			webutil.HandleError(w, webutil.NewValidationErrorResponse(verrs))
			return
		}
		webutil.HandleError(w, err)
		return
	}

	card, err := h.service.Grade(r.Context(), key, model.Grade(*req.Grade))
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, card)
}

func (h *StudyHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, stats)
}
