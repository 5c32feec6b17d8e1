package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"shelfwise/internal/api/middleware"
	"shelfwise/internal/app/service"
	"shelfwise/internal/common"

	"github.com/go-chi/chi/v5"
)

type AnnouncementHandler struct {
	annService *service.AnnouncementService
}

func NewAnnouncementHandler(annService *service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{annService: annService}
}

func (h *AnnouncementHandler) RegisterRoutes(r chi.Router, g *middleware.Guard) {
	r.With(g.Route("announcement-list")).Get("/", h.list)
	r.With(g.Route("announcement-list")).Post("/", h.create)
	r.With(g.Route("announcement-detail")).Get("/{announcementID}", h.get)
	r.With(g.Route("announcement-detail")).Put("/{announcementID}", h.update)
	r.With(g.Route("announcement-detail")).Delete("/{announcementID}", h.delete)
	r.With(g.Route("announcement-toggle-visibility")).Patch("/{announcementID}/toggle-visibility", h.toggleVisibility)
}

func (h *AnnouncementHandler) list(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	items, total, err := h.annService.List(r.Context(), ident, limit, offset)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"results": items,
		"count":   total,
	})
}

func (h *AnnouncementHandler) create(w http.ResponseWriter, r *http.Request) {
	var req service.AnnouncementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	a, err := h.annService.Create(r.Context(), req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, a)
}

func (h *AnnouncementHandler) get(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())
	a, err := h.annService.Get(r.Context(), ident, chi.URLParam(r, "announcementID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, a)
}

func (h *AnnouncementHandler) update(w http.ResponseWriter, r *http.Request) {
	var req service.AnnouncementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	a, err := h.annService.Update(r.Context(), chi.URLParam(r, "announcementID"), req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, a)
}

func (h *AnnouncementHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.annService.Delete(r.Context(), chi.URLParam(r, "announcementID")); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AnnouncementHandler) toggleVisibility(w http.ResponseWriter, r *http.Request) {
	a, err := h.annService.ToggleVisibility(r.Context(), chi.URLParam(r, "announcementID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, a)
}
