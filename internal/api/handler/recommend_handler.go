package handler

import (
	"net/http"
	"strconv"

	"shelfwise/internal/api/middleware"
	"shelfwise/internal/app/service"
	"shelfwise/internal/common"

	"github.com/go-chi/chi/v5"
)

type RecommendHandler struct {
	recommendService *service.RecommendService
}

func NewRecommendHandler(recommendService *service.RecommendService) *RecommendHandler {
	return &RecommendHandler{recommendService: recommendService}
}

func (h *RecommendHandler) RegisterRoutes(r chi.Router, g *middleware.Guard) {
	r.With(g.Route("recommendation-popular-books")).Get("/popular-books", h.popularBooks)
	r.With(g.Route("recommendation-predictive")).Get("/predictive", h.predictive)
}

func (h *RecommendHandler) popularBooks(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 10
	}
	books, err := h.recommendService.PopularBooks(r.Context(), limit)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"results": books})
}

func (h *RecommendHandler) predictive(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())
	if ident == nil {
		common.RespondWithAppError(w, common.ErrUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	books, err := h.recommendService.Recommend(r.Context(), ident, limit)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"results": books})
}
