package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"shelfwise/internal/api/middleware"
	"shelfwise/internal/app/service"
	"shelfwise/internal/common"
	"shelfwise/internal/domain/repository"

	"github.com/go-chi/chi/v5"
)

type BookHandler struct {
	bookService *service.BookService
}

func NewBookHandler(bookService *service.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

func (h *BookHandler) RegisterRoutes(r chi.Router, g *middleware.Guard) {
	r.With(g.Route("book-list")).Get("/", h.list)
	r.With(g.Route("book-list")).Post("/", h.create)
	r.With(g.Route("book-top-rated")).Get("/top-rated", h.topRated)
	r.With(g.Route("book-detail")).Get("/{bookID}", h.get)
	r.With(g.Route("book-detail")).Put("/{bookID}", h.update)
	r.With(g.Route("book-detail")).Delete("/{bookID}", h.delete)
}

func (h *BookHandler) RegisterAuthorRoutes(r chi.Router, g *middleware.Guard) {
	r.With(g.Route("author-list")).Get("/", h.listAuthors)
	r.With(g.Route("author-list")).Post("/", h.createAuthor)
	r.With(g.Route("author-detail")).Get("/{authorID}", h.getAuthor)
	r.With(g.Route("author-detail")).Put("/{authorID}", h.updateAuthor)
	r.With(g.Route("author-detail")).Delete("/{authorID}", h.deleteAuthor)
}

func (h *BookHandler) RegisterCategoryRoutes(r chi.Router, g *middleware.Guard) {
	r.With(g.Route("category-list")).Get("/", h.listCategories)
	r.With(g.Route("category-list")).Post("/", h.createCategory)
	r.With(g.Route("category-detail")).Get("/{categoryID}", h.getCategory)
	r.With(g.Route("category-detail")).Put("/{categoryID}", h.updateCategory)
	r.With(g.Route("category-detail")).Delete("/{categoryID}", h.deleteCategory)
}

func (h *BookHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	filter := repository.BookFilter{
		Title:      r.URL.Query().Get("title"),
		CategoryID: r.URL.Query().Get("category_id"),
		AuthorID:   r.URL.Query().Get("author_id"),
		Limit:      limit,
		Offset:     offset,
	}
	if v := r.URL.Query().Get("available"); v != "" {
		available := v == "true"
		filter.Available = &available
	}

	books, total, err := h.bookService.List(r.Context(), filter)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"results": books,
		"count":   total,
	})
}

func (h *BookHandler) create(w http.ResponseWriter, r *http.Request) {
	var req service.BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	book, err := h.bookService.Create(r.Context(), req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, book)
}

func (h *BookHandler) get(w http.ResponseWriter, r *http.Request) {
	book, err := h.bookService.Get(r.Context(), chi.URLParam(r, "bookID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, book)
}

func (h *BookHandler) update(w http.ResponseWriter, r *http.Request) {
	var req service.BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	book, err := h.bookService.Update(r.Context(), chi.URLParam(r, "bookID"), req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, book)
}

func (h *BookHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.bookService.Delete(r.Context(), chi.URLParam(r, "bookID")); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BookHandler) topRated(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	books, err := h.bookService.TopRated(r.Context(), limit)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"results": books})
}

func (h *BookHandler) listAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.bookService.ListAuthors(r.Context())
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"results": authors})
}

func (h *BookHandler) createAuthor(w http.ResponseWriter, r *http.Request) {
	var req service.NameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	author, err := h.bookService.CreateAuthor(r.Context(), req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, author)
}

func (h *BookHandler) getAuthor(w http.ResponseWriter, r *http.Request) {
	author, err := h.bookService.GetAuthor(r.Context(), chi.URLParam(r, "authorID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, author)
}

func (h *BookHandler) updateAuthor(w http.ResponseWriter, r *http.Request) {
	var req service.NameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	author, err := h.bookService.UpdateAuthor(r.Context(), chi.URLParam(r, "authorID"), req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, author)
}

func (h *BookHandler) deleteAuthor(w http.ResponseWriter, r *http.Request) {
	if err := h.bookService.DeleteAuthor(r.Context(), chi.URLParam(r, "authorID")); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BookHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.bookService.ListCategories(r.Context())
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"results": categories})
}

func (h *BookHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req service.NameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	category, err := h.bookService.CreateCategory(r.Context(), req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, category)
}

func (h *BookHandler) getCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.bookService.GetCategory(r.Context(), chi.URLParam(r, "categoryID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, category)
}

func (h *BookHandler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req service.NameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	category, err := h.bookService.UpdateCategory(r.Context(), chi.URLParam(r, "categoryID"), req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, category)
}

func (h *BookHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.bookService.DeleteCategory(r.Context(), chi.URLParam(r, "categoryID")); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
