package handler

import (
	"encoding/json"
	"net/http"

	"shelfwise/internal/api/middleware"
	"shelfwise/internal/app/service"
	"shelfwise/internal/common"

	"github.com/go-chi/chi/v5"
)

type RatingHandler struct {
	ratingService *service.RatingService
}

func NewRatingHandler(ratingService *service.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: ratingService}
}

func (h *RatingHandler) RegisterRoutes(r chi.Router, g *middleware.Guard) {
	r.With(g.Route("rating-list")).Post("/", h.create)
	r.With(g.Route("rating-by-book")).Get("/book/{bookID}", h.listByBook)
	r.With(g.Route("rating-detail")).Delete("/{ratingID}", h.delete)
}

func (h *RatingHandler) create(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())
	var req service.RatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	rating, err := h.ratingService.Create(r.Context(), ident, req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, rating)
}

func (h *RatingHandler) listByBook(w http.ResponseWriter, r *http.Request) {
	ratings, err := h.ratingService.ListByBook(r.Context(), chi.URLParam(r, "bookID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"results": ratings})
}

func (h *RatingHandler) delete(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())
	if err := h.ratingService.Delete(r.Context(), ident, chi.URLParam(r, "ratingID")); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
