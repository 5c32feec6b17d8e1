package service

import (
	"context"
	"fmt"

	"shelfwise/internal/common"
	"shelfwise/internal/domain/model"
	"shelfwise/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type BookService struct {
	bookRepo     repository.BookRepository
	authorRepo   repository.AuthorRepository
	categoryRepo repository.CategoryRepository
	ratingRepo   repository.RatingRepository
}

func NewBookService(bookRepo repository.BookRepository, authorRepo repository.AuthorRepository, categoryRepo repository.CategoryRepository, ratingRepo repository.RatingRepository) *BookService {
	return &BookService{bookRepo: bookRepo, authorRepo: authorRepo, categoryRepo: categoryRepo, ratingRepo: ratingRepo}
}

type BookRequest struct {
	Title       string `json:"title"`
	AuthorID    string `json:"author_id"`
	CategoryID  string `json:"category_id"`
	Description string `json:"description"`
}

func (r BookRequest) validate() error {
	if r.Title == "" || r.AuthorID == "" || r.CategoryID == "" {
		return common.Errorf("title, author_id and category_id are required: %w", common.ErrValidation)
	}
	return nil
}

func (s *BookService) Create(ctx context.Context, req BookRequest) (*model.Book, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	book := &model.Book{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Slug:        slug.Make(req.Title),
		AuthorID:    req.AuthorID,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		IsAvailable: true, // New books start available; only the lifecycle manager flips this
	}
	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}
	return book, nil
}

func (s *BookService) Update(ctx context.Context, id string, req BookRequest) (*model.Book, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	book, err := s.bookRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	book.Title = req.Title
	book.Slug = slug.Make(req.Title)
	book.AuthorID = req.AuthorID
	book.CategoryID = req.CategoryID
	book.Description = req.Description
	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}
	return s.bookRepo.FindByID(ctx, id)
}

func (s *BookService) Delete(ctx context.Context, id string) error {
	return s.bookRepo.Delete(ctx, id)
}

func (s *BookService) Get(ctx context.Context, id string) (*model.Book, error) {
	return s.bookRepo.FindByID(ctx, id)
}

func (s *BookService) GetBySlug(ctx context.Context, bookSlug string) (*model.Book, error) {
	return s.bookRepo.FindBySlug(ctx, bookSlug)
}

func (s *BookService) List(ctx context.Context, f repository.BookFilter) ([]model.Book, int, error) {
	return s.bookRepo.List(ctx, f)
}

func (s *BookService) TopRated(ctx context.Context, limit int) ([]model.ScoredBook, error) {
	return s.ratingRepo.TopRated(ctx, limit)
}

type NameRequest struct {
	Name string `json:"name"`
}

func (s *BookService) CreateAuthor(ctx context.Context, req NameRequest) (*model.Author, error) {
	if req.Name == "" {
		return nil, common.Errorf("name is required: %w", common.ErrValidation)
	}
	author := &model.Author{ID: uuid.NewString(), Name: req.Name}
	if err := s.authorRepo.Create(ctx, author); err != nil {
		return nil, err
	}
	return author, nil
}

func (s *BookService) UpdateAuthor(ctx context.Context, id string, req NameRequest) (*model.Author, error) {
	if req.Name == "" {
		return nil, common.Errorf("name is required: %w", common.ErrValidation)
	}
	author := &model.Author{ID: id, Name: req.Name}
	if err := s.authorRepo.Update(ctx, author); err != nil {
		return nil, err
	}
	return author, nil
}

func (s *BookService) DeleteAuthor(ctx context.Context, id string) error {
	return s.authorRepo.Delete(ctx, id)
}

func (s *BookService) GetAuthor(ctx context.Context, id string) (*model.Author, error) {
	return s.authorRepo.FindByID(ctx, id)
}

func (s *BookService) ListAuthors(ctx context.Context) ([]model.Author, error) {
	return s.authorRepo.List(ctx)
}

func (s *BookService) CreateCategory(ctx context.Context, req NameRequest) (*model.Category, error) {
	if req.Name == "" {
		return nil, common.Errorf("name is required: %w", common.ErrValidation)
	}
	category := &model.Category{ID: uuid.NewString(), Name: req.Name}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *BookService) UpdateCategory(ctx context.Context, id string, req NameRequest) (*model.Category, error) {
	if req.Name == "" {
		return nil, common.Errorf("name is required: %w", common.ErrValidation)
	}
	category := &model.Category{ID: id, Name: req.Name}
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *BookService) DeleteCategory(ctx context.Context, id string) error {
	return s.categoryRepo.Delete(ctx, id)
}

func (s *BookService) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	return s.categoryRepo.FindByID(ctx, id)
}

func (s *BookService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.categoryRepo.List(ctx)
}
