package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shelfwise/internal/common"
	"shelfwise/internal/domain/model"
)

type BorrowFilter struct {
	UserID    string
	BookID    string
	Status    model.BorrowStatus
	BookTitle string
	Username  string
	Limit     int
	Offset    int
}

type BorrowRepository interface {
	Create(ctx context.Context, rec *model.BorrowRecord) error
	FindByID(ctx context.Context, id string) (*model.BorrowRecord, error)
	LatestForUserBook(ctx context.Context, userID, bookID string) (*model.BorrowRecord, error)
	List(ctx context.Context, f BorrowFilter) ([]model.BorrowRecord, int, error)
	CountBorrowsPerBook(ctx context.Context, limit int) ([]model.PopularBook, error)

	// Transition applies one row of the lifecycle table: a compare-and-swap
	// on status keyed by record id, plus the paired book availability write,
	// committed as one transaction. A CAS miss (the record is no longer in
	// the expected status) returns ErrInvalidTransition; exactly one of two
	// concurrent approvals can win.
	Transition(ctx context.Context, recordID string, from model.BorrowStatus, tr model.BorrowTransition, returnDate *time.Time) error
}

type pgBorrowRepository struct {
	db *sql.DB
}

func NewPgBorrowRepository(db *sql.DB) BorrowRepository {
	return &pgBorrowRepository{db: db}
}

func (r *pgBorrowRepository) Create(ctx context.Context, rec *model.BorrowRecord) error {
	query := `INSERT INTO borrow_records (id, user_id, book_id, borrow_date, status)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, rec.ID, rec.UserID, rec.BookID, rec.BorrowDate, string(rec.Status))
	if err != nil {
		return fmt.Errorf("pgBorrowRepository.Create: %w", err)
	}
	return nil
}

const borrowSelect = `
	SELECT br.id, br.user_id, br.book_id, br.borrow_date, br.return_date, br.status,
	       u.username, b.title
	FROM borrow_records br
	LEFT JOIN users u ON br.user_id = u.id
	LEFT JOIN books b ON br.book_id = b.id`

func scanBorrow(scanner interface{ Scan(dest ...any) error }) (*model.BorrowRecord, error) {
	rec := &model.BorrowRecord{}
	var status string
	err := scanner.Scan(
		&rec.ID, &rec.UserID, &rec.BookID, &rec.BorrowDate, &rec.ReturnDate, &status,
		&rec.Username, &rec.BookTitle,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	rec.Status = model.BorrowStatus(status)
	return rec, nil
}

func (r *pgBorrowRepository) FindByID(ctx context.Context, id string) (*model.BorrowRecord, error) {
	rec, err := scanBorrow(r.db.QueryRowContext(ctx, borrowSelect+` WHERE br.id = $1`, id))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("pgBorrowRepository.FindByID: %w", err)
	}
	return rec, nil
}

func (r *pgBorrowRepository) LatestForUserBook(ctx context.Context, userID, bookID string) (*model.BorrowRecord, error) {
	query := borrowSelect + ` WHERE br.user_id = $1 AND br.book_id = $2
	          ORDER BY br.borrow_date DESC LIMIT 1`
	rec, err := scanBorrow(r.db.QueryRowContext(ctx, query, userID, bookID))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("pgBorrowRepository.LatestForUserBook: %w", err)
	}
	return rec, nil
}

func (r *pgBorrowRepository) List(ctx context.Context, f BorrowFilter) ([]model.BorrowRecord, int, error) {
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

	if f.UserID != "" {
		addArg(" AND br.user_id = $%d", f.UserID)
	}
	if f.BookID != "" {
		addArg(" AND br.book_id = $%d", f.BookID)
	}
	if f.Status != "" {
		addArg(" AND br.status = $%d", string(f.Status))
	}
	if f.BookTitle != "" {
		addArg(" AND b.title ILIKE '%%' || $%d || '%%'", f.BookTitle)
	}
	if f.Username != "" {
		addArg(" AND u.username ILIKE '%%' || $%d || '%%'", f.Username)
	}

	countQuery := `SELECT COUNT(*) FROM borrow_records br
	               LEFT JOIN users u ON br.user_id = u.id
	               LEFT JOIN books b ON br.book_id = b.id` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgBorrowRepository.List count: %w", err)
	}

	query := borrowSelect + where + fmt.Sprintf(" ORDER BY br.borrow_date DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgBorrowRepository.List: %w", err)
	}
	defer rows.Close()

	var records []model.BorrowRecord
	for rows.Next() {
		rec, err := scanBorrow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("pgBorrowRepository.List scan: %w", err)
		}
		records = append(records, *rec)
	}
	return records, total, rows.Err()
}

func (r *pgBorrowRepository) CountBorrowsPerBook(ctx context.Context, limit int) ([]model.PopularBook, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT b.id, b.title, COUNT(br.id) AS borrow_count
	          FROM books b
	          JOIN borrow_records br ON br.book_id = b.id AND br.status IN ('borrowed', 'return_pending', 'returned')
	          GROUP BY b.id, b.title
	          ORDER BY borrow_count DESC, b.title
	          LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pgBorrowRepository.CountBorrowsPerBook: %w", err)
	}
	defer rows.Close()

	var result []model.PopularBook
	for rows.Next() {
		var pb model.PopularBook
		if err := rows.Scan(&pb.BookID, &pb.Title, &pb.BorrowCount); err != nil {
			return nil, fmt.Errorf("pgBorrowRepository.CountBorrowsPerBook scan: %w", err)
		}
		result = append(result, pb)
	}
	return result, rows.Err()
}

func (r *pgBorrowRepository) Transition(ctx context.Context, recordID string, from model.BorrowStatus, tr model.BorrowTransition, returnDate *time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgBorrowRepository.Transition begin: %w", err)
	}
	defer tx.Rollback()

	var res sql.Result
	if tr.SetReturnDate {
		res, err = tx.ExecContext(ctx,
			`UPDATE borrow_records SET status = $1, return_date = $2 WHERE id = $3 AND status = $4`,
			string(tr.To), returnDate, recordID, string(from))
	} else {
		res, err = tx.ExecContext(ctx,
			`UPDATE borrow_records SET status = $1 WHERE id = $2 AND status = $3`,
			string(tr.To), recordID, string(from))
	}
	if err != nil {
		return fmt.Errorf("pgBorrowRepository.Transition update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgBorrowRepository.Transition rows: %w", err)
	}
	if n == 0 {
		// The record moved out of the expected status underneath us (or a
		// concurrent caller won the race). State is unchanged.
		return fmt.Errorf("record %s is not in status %s: %w", recordID, from, common.ErrInvalidTransition)
	}

	if tr.SetAvailability != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE books SET is_available = $1, updated_at = CURRENT_TIMESTAMP
			 WHERE id = (SELECT book_id FROM borrow_records WHERE id = $2)`,
			*tr.SetAvailability, recordID)
		if err != nil {
			return fmt.Errorf("pgBorrowRepository.Transition book: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgBorrowRepository.Transition commit: %w", err)
	}
	return nil
}
