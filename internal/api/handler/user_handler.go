package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"shelfwise/internal/api/middleware"
	"shelfwise/internal/app/service"
	"shelfwise/internal/common"
	"shelfwise/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) RegisterRoutes(r chi.Router, g *middleware.Guard) {
	r.With(g.Route("user-list")).Get("/", h.list)
	r.With(g.Route("user-list")).Post("/", h.create)
	r.With(g.Route("role-list")).Get("/roles", h.listRoles)
	r.With(g.Route("user-detail")).Get("/{userID}", h.get)
	r.With(g.Route("user-detail")).Put("/{userID}", h.update)
	r.With(g.Route("user-detail")).Delete("/{userID}", h.delete)
	r.With(g.Route("user-assign-roles")).Put("/{userID}/roles", h.assignRoles)
}

func (h *UserHandler) list(w http.ResponseWriter, r *http.Request) {
	// Listing all users is an admin view; a plain GET passes the route guard
	// as a safe method, so the tier check lives here.
	ident := middleware.IdentityFromContext(r.Context())
	if ident.Tier() < model.TierAdmin {
		common.RespondWithAppError(w, common.ErrForbidden)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	users, total, err := h.userService.List(r.Context(), limit, offset)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"results": users,
		"count":   total,
	})
}

func (h *UserHandler) create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	user, err := h.userService.Create(r.Context(), req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) get(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())
	user, err := h.userService.Get(r.Context(), ident, chi.URLParam(r, "userID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	user, err := h.userService.Update(r.Context(), chi.URLParam(r, "userID"), req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.Delete(r.Context(), chi.URLParam(r, "userID")); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) assignRoles(w http.ResponseWriter, r *http.Request) {
	var req service.AssignRolesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if err := h.userService.AssignRoles(r.Context(), chi.URLParam(r, "userID"), req); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "roles updated"})
}

func (h *UserHandler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.userService.ListRoles(r.Context())
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"results": roles})
}
