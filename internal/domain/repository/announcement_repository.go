package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shelfwise/internal/common"
	"shelfwise/internal/domain/model"
)

type AnnouncementRepository interface {
	Create(ctx context.Context, a *model.Announcement) error
	Update(ctx context.Context, a *model.Announcement) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Announcement, error)
	// List returns announcements ordered by publish date; visibleOnly hides
	// unpublished entries from non-admin callers.
	List(ctx context.Context, visibleOnly bool, limit, offset int) ([]model.Announcement, int, error)
	SetVisibility(ctx context.Context, id string, visible bool) error
}

type pgAnnouncementRepository struct {
	db *sql.DB
}

func NewPgAnnouncementRepository(db *sql.DB) AnnouncementRepository {
	return &pgAnnouncementRepository{db: db}
}

func (r *pgAnnouncementRepository) Create(ctx context.Context, a *model.Announcement) error {
	query := `INSERT INTO announcements (id, title, content, is_visible, published_at)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.Title, a.Content, a.IsVisible, a.PublishedAt)
	if err != nil {
		return fmt.Errorf("pgAnnouncementRepository.Create: %w", err)
	}
	return nil
}

func (r *pgAnnouncementRepository) Update(ctx context.Context, a *model.Announcement) error {
	query := `UPDATE announcements SET title = $1, content = $2, is_visible = $3,
	            published_at = $4, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, a.Title, a.Content, a.IsVisible, a.PublishedAt, a.ID)
	if err != nil {
		return fmt.Errorf("pgAnnouncementRepository.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgAnnouncementRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgAnnouncementRepository.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgAnnouncementRepository) FindByID(ctx context.Context, id string) (*model.Announcement, error) {
	query := `SELECT id, title, content, is_visible, published_at, created_at, updated_at
	          FROM announcements WHERE id = $1`
	a := &model.Announcement{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.Title, &a.Content, &a.IsVisible, &a.PublishedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgAnnouncementRepository.FindByID: %w", err)
	}
	return a, nil
}

func (r *pgAnnouncementRepository) List(ctx context.Context, visibleOnly bool, limit, offset int) ([]model.Announcement, int, error) {
	if limit <= 0 {
		limit = 20
	}
	where := ""
	if visibleOnly {
		where = " WHERE is_visible = TRUE"
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM announcements`+where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgAnnouncementRepository.List count: %w", err)
	}

	query := `SELECT id, title, content, is_visible, published_at, created_at, updated_at
	          FROM announcements` + where + ` ORDER BY published_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("pgAnnouncementRepository.List: %w", err)
	}
	defer rows.Close()

	var items []model.Announcement
	for rows.Next() {
		var a model.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.IsVisible, &a.PublishedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("pgAnnouncementRepository.List scan: %w", err)
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *pgAnnouncementRepository) SetVisibility(ctx context.Context, id string, visible bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE announcements SET is_visible = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`, visible, id)
	if err != nil {
		return fmt.Errorf("pgAnnouncementRepository.SetVisibility: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}
