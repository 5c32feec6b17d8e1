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

type BorrowHandler struct {
	borrowService *service.BorrowService
}

func NewBorrowHandler(borrowService *service.BorrowService) *BorrowHandler {
	return &BorrowHandler{borrowService: borrowService}
}

func (h *BorrowHandler) RegisterRoutes(r chi.Router, g *middleware.Guard) {
	r.With(g.Route("borrow-record-list")).Get("/", h.list)
	r.With(g.Route("borrow-record-list")).Post("/", h.create)
	r.With(g.Route("borrow-record-check-book-status")).Get("/check-book-status", h.checkBookStatus)
	r.With(g.Route("borrow-record-pending-approvals")).Get("/pending-approvals", h.pendingApprovals)
	r.With(g.Route("borrow-record-detail")).Get("/{recordID}", h.get)
	r.With(g.Route("borrow-record-return")).Post("/{recordID}/return", h.requestReturn)
	r.With(g.Route("borrow-record-approve")).Post("/{recordID}/approve", h.approve)
}

func (h *BorrowHandler) list(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	req := service.BorrowListRequest{
		Status:    model.BorrowStatus(r.URL.Query().Get("status")),
		BookTitle: r.URL.Query().Get("title"),
		Username:  r.URL.Query().Get("username"),
		Limit:     limit,
		Offset:    offset,
	}
	records, total, err := h.borrowService.List(r.Context(), ident, req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"results": records,
		"count":   total,
	})
}

func (h *BorrowHandler) create(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())
	var req service.CreateBorrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	rec, err := h.borrowService.Create(r.Context(), ident, req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Borrow request submitted successfully, awaiting approval",
		"record":  rec,
	})
}

func (h *BorrowHandler) get(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())
	rec, err := h.borrowService.Get(r.Context(), ident, chi.URLParam(r, "recordID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, rec)
}

func (h *BorrowHandler) requestReturn(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())
	rec, err := h.borrowService.RequestReturn(r.Context(), ident, chi.URLParam(r, "recordID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Return request submitted, awaiting confirmation",
		"record":  rec,
	})
}

func (h *BorrowHandler) approve(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())
	var req service.ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	rec, err := h.borrowService.Approve(r.Context(), ident, chi.URLParam(r, "recordID"), req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, rec)
}

func (h *BorrowHandler) checkBookStatus(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())
	status, err := h.borrowService.CheckStatus(r.Context(), ident, r.URL.Query().Get("book_id"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, status)
}

func (h *BorrowHandler) pendingApprovals(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())
	records, err := h.borrowService.PendingApprovals(r.Context(), ident)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"results": records})
}
