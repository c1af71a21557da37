// internal/handlers/definition_handler.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"defkeep/internal/model"
	"defkeep/internal/service"
	"defkeep/internal/webutil"
)

type DefinitionHandler struct {
	service service.DefinitionService
}

func NewDefinitionHandler(s service.DefinitionService) *DefinitionHandler {
	return &DefinitionHandler{service: s}
}

func (h *DefinitionHandler) GetKeys(w http.ResponseWriter, r *http.Request) {
	keys := h.service.AllKeys(r.Context())
	webutil.RespondWithJSON(w, http.StatusOK, map[string][]string{"keys": keys})
}

func (h *DefinitionHandler) GetDefinition(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		webutil.HandleError(w, model.NewAppError("INVALID_KEY", "A lookup key is required.", "key", model.ErrInvalidInput))
		return
	}

	def, err := h.service.Lookup(r.Context(), key)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, def)
}

func (h *DefinitionHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RebuildAll(r.Context()); err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, map[string]int{"keys": len(h.service.AllKeys(r.Context()))})
}

func (h *DefinitionHandler) GetConsolidated(w http.ResponseWriter, r *http.Request) {
	listings := h.service.ConsolidatedListing(r.Context())
	if listings == nil {
		listings = []*model.ConsolidatedFileListing{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, listings)
}
