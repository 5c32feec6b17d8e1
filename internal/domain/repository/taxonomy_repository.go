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

// AuthorRepository and CategoryRepository back the plain-CRUD taxonomy
// resources books hang off of.

type AuthorRepository interface {
	Create(ctx context.Context, a *model.Author) error
	Update(ctx context.Context, a *model.Author) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Author, error)
	List(ctx context.Context) ([]model.Author, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, c *model.Category) error
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
}

type pgAuthorRepository struct {
	db *sql.DB
}

func NewPgAuthorRepository(db *sql.DB) AuthorRepository {
	return &pgAuthorRepository{db: db}
}

func (r *pgAuthorRepository) Create(ctx context.Context, a *model.Author) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO authors (id, name) VALUES ($1, $2)`, a.ID, a.Name)
	if err != nil {
		return fmt.Errorf("pgAuthorRepository.Create: %w", err)
	}
	return nil
}

func (r *pgAuthorRepository) Update(ctx context.Context, a *model.Author) error {
	res, err := r.db.ExecContext(ctx, `UPDATE authors SET name = $1 WHERE id = $2`, a.Name, a.ID)
	if err != nil {
		return fmt.Errorf("pgAuthorRepository.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgAuthorRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // books still reference it
			return fmt.Errorf("author still referenced by books: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgAuthorRepository.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgAuthorRepository) FindByID(ctx context.Context, id string) (*model.Author, error) {
	author := &model.Author{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM authors WHERE id = $1`, id).
		Scan(&author.ID, &author.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgAuthorRepository.FindByID: %w", err)
	}
	return author, nil
}

func (r *pgAuthorRepository) List(ctx context.Context) ([]model.Author, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM authors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("pgAuthorRepository.List: %w", err)
	}
	defer rows.Close()

	var authors []model.Author
	for rows.Next() {
		var a model.Author
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("pgAuthorRepository.List scan: %w", err)
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

type pgCategoryRepository struct {
	db *sql.DB
}

func NewPgCategoryRepository(db *sql.DB) CategoryRepository {
	return &pgCategoryRepository{db: db}
}

func (r *pgCategoryRepository) Create(ctx context.Context, c *model.Category) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO categories (id, name) VALUES ($1, $2)`, c.ID, c.Name)
	if err != nil {
		return fmt.Errorf("pgCategoryRepository.Create: %w", err)
	}
	return nil
}

func (r *pgCategoryRepository) Update(ctx context.Context, c *model.Category) error {
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET name = $1 WHERE id = $2`, c.Name, c.ID)
	if err != nil {
		return fmt.Errorf("pgCategoryRepository.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgCategoryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("category still referenced by books: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgCategoryRepository.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgCategoryRepository) FindByID(ctx context.Context, id string) (*model.Category, error) {
	category := &model.Category{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).
		Scan(&category.ID, &category.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCategoryRepository.FindByID: %w", err)
	}
	return category, nil
}

func (r *pgCategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("pgCategoryRepository.List: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("pgCategoryRepository.List scan: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
