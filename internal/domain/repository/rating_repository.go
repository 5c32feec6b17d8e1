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

type RatingRepository interface {
	Create(ctx context.Context, rating *model.Rating) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Rating, error)
	ListByBook(ctx context.Context, bookID string) ([]model.Rating, error)
	// ListAll feeds the recommendation scorer with every (user, book, score)
	// interaction.
	ListAll(ctx context.Context) ([]model.Rating, error)
	// TopRated returns books ranked by average score.
	TopRated(ctx context.Context, limit int) ([]model.ScoredBook, error)
}

type pgRatingRepository struct {
	db *sql.DB
}

func NewPgRatingRepository(db *sql.DB) RatingRepository {
	return &pgRatingRepository{db: db}
}

func (r *pgRatingRepository) Create(ctx context.Context, rating *model.Rating) error {
	query := `INSERT INTO ratings (id, user_id, book_id, score, comment)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, rating.ID, rating.UserID, rating.BookID, rating.Score, rating.Comment)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // One rating per (user, book)
				return fmt.Errorf("you have already rated this book: %w", common.ErrConflict)
			}
			if pgErr.Code == "23503" {
				return fmt.Errorf("book does not exist: %w", common.ErrNotFound)
			}
		}
		return fmt.Errorf("pgRatingRepository.Create: %w", err)
	}
	return nil
}

func (r *pgRatingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ratings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgRatingRepository.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

const ratingSelect = `
	SELECT r.id, r.user_id, r.book_id, r.score, r.comment, r.created_at, u.username, b.title
	FROM ratings r
	LEFT JOIN users u ON r.user_id = u.id
	LEFT JOIN books b ON r.book_id = b.id`

func scanRating(scanner interface{ Scan(dest ...any) error }) (*model.Rating, error) {
	rating := &model.Rating{}
	err := scanner.Scan(
		&rating.ID, &rating.UserID, &rating.BookID, &rating.Score, &rating.Comment,
		&rating.CreatedAt, &rating.Username, &rating.BookTitle,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return rating, nil
}

func (r *pgRatingRepository) FindByID(ctx context.Context, id string) (*model.Rating, error) {
	rating, err := scanRating(r.db.QueryRowContext(ctx, ratingSelect+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("pgRatingRepository.FindByID: %w", err)
	}
	return rating, nil
}

func (r *pgRatingRepository) ListByBook(ctx context.Context, bookID string) ([]model.Rating, error) {
	rows, err := r.db.QueryContext(ctx, ratingSelect+` WHERE r.book_id = $1 ORDER BY r.created_at DESC`, bookID)
	if err != nil {
		return nil, fmt.Errorf("pgRatingRepository.ListByBook: %w", err)
	}
	defer rows.Close()
	return collectRatings(rows)
}

func (r *pgRatingRepository) ListAll(ctx context.Context) ([]model.Rating, error) {
	rows, err := r.db.QueryContext(ctx, ratingSelect+` ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("pgRatingRepository.ListAll: %w", err)
	}
	defer rows.Close()
	return collectRatings(rows)
}

func (r *pgRatingRepository) TopRated(ctx context.Context, limit int) ([]model.ScoredBook, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT b.id, b.title, AVG(r.score) AS avg_score
	          FROM ratings r
	          JOIN books b ON r.book_id = b.id
	          GROUP BY b.id, b.title
	          ORDER BY avg_score DESC, b.title
	          LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pgRatingRepository.TopRated: %w", err)
	}
	defer rows.Close()

	var result []model.ScoredBook
	for rows.Next() {
		var sb model.ScoredBook
		if err := rows.Scan(&sb.BookID, &sb.Title, &sb.Score); err != nil {
			return nil, fmt.Errorf("pgRatingRepository.TopRated scan: %w", err)
		}
		result = append(result, sb)
	}
	return result, rows.Err()
}

func collectRatings(rows *sql.Rows) ([]model.Rating, error) {
	var ratings []model.Rating
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("rating scan: %w", err)
		}
		ratings = append(ratings, *rating)
	}
	return ratings, rows.Err()
}
