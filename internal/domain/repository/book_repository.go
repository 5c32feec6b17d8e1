package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shelfwise/internal/common"
	"shelfwise/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type BookFilter struct {
	Title       string
	CategoryID  string
	AuthorID    string
	Available   *bool
	Limit       int
	Offset      int
}

type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	Update(ctx context.Context, book *model.Book) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Book, error)
	FindBySlug(ctx context.Context, slug string) (*model.Book, error)
	List(ctx context.Context, f BookFilter) ([]model.Book, int, error)
}

type pgBookRepository struct {
	db *sql.DB
}

func NewPgBookRepository(db *sql.DB) BookRepository {
	return &pgBookRepository{db: db}
}

func (r *pgBookRepository) Create(ctx context.Context, b *model.Book) error {
	query := `INSERT INTO books (id, title, slug, author_id, category_id, description, is_available)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, b.ID, b.Title, b.Slug, b.AuthorID, b.CategoryID, b.Description, b.IsAvailable)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // Unique constraint for slug
				return fmt.Errorf("book with this slug already exists: %w", common.ErrConflict)
			}
			if pgErr.Code == "23503" { // FK violation: unknown author/category
				return fmt.Errorf("author or category does not exist: %w", common.ErrValidation)
			}
		}
		return fmt.Errorf("pgBookRepository.Create: %w", err)
	}
	return nil
}

// Update deliberately leaves is_available alone: only the borrow lifecycle
// manager writes the availability flag.
func (r *pgBookRepository) Update(ctx context.Context, b *model.Book) error {
	query := `UPDATE books SET
	            title = $1, slug = $2, author_id = $3, category_id = $4,
	            description = $5, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $6`
	res, err := r.db.ExecContext(ctx, query, b.Title, b.Slug, b.AuthorID, b.CategoryID, b.Description, b.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("book with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgBookRepository.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgBookRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgBookRepository.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

const bookSelect = `
	SELECT b.id, b.title, b.slug, b.author_id, b.category_id, b.description, b.is_available,
	       b.created_at, b.updated_at, a.name AS author_name, c.name AS category_name
	FROM books b
	LEFT JOIN authors a ON b.author_id = a.id
	LEFT JOIN categories c ON b.category_id = c.id`

func scanBook(scanner interface{ Scan(dest ...any) error }) (*model.Book, error) {
	book := &model.Book{}
	err := scanner.Scan(
		&book.ID, &book.Title, &book.Slug, &book.AuthorID, &book.CategoryID, &book.Description,
		&book.IsAvailable, &book.CreatedAt, &book.UpdatedAt, &book.AuthorName, &book.CategoryName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return book, nil
}

func (r *pgBookRepository) FindByID(ctx context.Context, id string) (*model.Book, error) {
	book, err := scanBook(r.db.QueryRowContext(ctx, bookSelect+` WHERE b.id = $1`, id))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("pgBookRepository.FindByID: %w", err)
	}
	return book, nil
}

func (r *pgBookRepository) FindBySlug(ctx context.Context, slug string) (*model.Book, error) {
	book, err := scanBook(r.db.QueryRowContext(ctx, bookSelect+` WHERE b.slug = $1`, slug))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("pgBookRepository.FindBySlug: %w", err)
	}
	return book, nil
}

func (r *pgBookRepository) List(ctx context.Context, f BookFilter) ([]model.Book, int, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}

	where := " WHERE 1=1"
	args := []interface{}{}
	argPos := 1
	addArg := func(clause string, value interface{}) {
		where += fmt.Sprintf(clause, argPos)
		args = append(args, value)
		argPos++
	}

	if f.Title != "" {
		addArg(" AND b.title ILIKE '%%' || $%d || '%%'", f.Title)
	}
	if f.CategoryID != "" {
		addArg(" AND b.category_id = $%d", f.CategoryID)
	}
	if f.AuthorID != "" {
		addArg(" AND b.author_id = $%d", f.AuthorID)
	}
	if f.Available != nil {
		addArg(" AND b.is_available = $%d", *f.Available)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM books b` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgBookRepository.List count: %w", err)
	}

	query := bookSelect + where + fmt.Sprintf(" ORDER BY b.title LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgBookRepository.List: %w", err)
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("pgBookRepository.List scan: %w", err)
		}
		books = append(books, *book)
	}
	return books, total, rows.Err()
}
