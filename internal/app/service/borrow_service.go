package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shelfwise/internal/common"
	"shelfwise/internal/domain/model"
	"shelfwise/internal/domain/repository"

	"github.com/google/uuid"
)

// BorrowService is the lifecycle manager for borrow records. All status
// transitions and the paired book availability writes go through it; the
// legal transitions live in model.NextApproveTransition and
// model.NextReturnRequestTransition, nowhere else.
type BorrowService struct {
	borrowRepo repository.BorrowRepository
	bookRepo   repository.BookRepository
	authz      *AuthzService
	loanPeriod time.Duration
	now        func() time.Time
}

func NewBorrowService(borrowRepo repository.BorrowRepository, bookRepo repository.BookRepository, authz *AuthzService, loanPeriodDays int) *BorrowService {
	return &BorrowService{
		borrowRepo: borrowRepo,
		bookRepo:   bookRepo,
		authz:      authz,
		loanPeriod: time.Duration(loanPeriodDays) * 24 * time.Hour,
		now:        time.Now,
	}
}

type CreateBorrowRequest struct {
	BookID string `json:"book_id"`
}

// Create files a new borrow request in pending. An unavailable book is
// accepted on purpose: additional pending requests queue up behind the open
// one and a librarian resolves them (usually by rejecting).
func (s *BorrowService) Create(ctx context.Context, ident *model.Identity, req CreateBorrowRequest) (*model.BorrowRecord, error) {
	if req.BookID == "" {
		return nil, common.Errorf("book_id is required: %w", common.ErrValidation)
	}
	book, err := s.bookRepo.FindByID(ctx, req.BookID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("book %s not found: %w", req.BookID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load book: %w", err)
	}

	rec := &model.BorrowRecord{
		ID:         uuid.NewString(),
		UserID:     ident.ID,
		BookID:     book.ID,
		BorrowDate: s.now(),
		Status:     model.StatusPending,
		Username:   &ident.Username,
		BookTitle:  &book.Title,
	}
	if err := s.borrowRepo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create borrow record: %w", err)
	}
	return rec, nil
}

// RequestReturn moves a borrowed record into return_pending. Only the owner
// (or an admin tier) may ask.
func (s *BorrowService) RequestReturn(ctx context.Context, ident *model.Identity, recordID string) (*model.BorrowRecord, error) {
	rec, err := s.borrowRepo.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.AuthorizeOwner(ident, rec.UserID); err != nil {
		return nil, err
	}

	tr, ok := model.NextReturnRequestTransition(rec.Status)
	if !ok {
		return nil, common.Errorf("only borrowed books can be returned (current status %s): %w", rec.Status, common.ErrInvalidTransition)
	}
	if err := s.borrowRepo.Transition(ctx, rec.ID, rec.Status, tr, nil); err != nil {
		return nil, err
	}
	rec.Status = tr.To
	return rec, nil
}

type ApproveRequest struct {
	Decision model.ApproveDecision `json:"status"`
}

// Approve is the single librarian decision endpoint: what it means is
// inferred from the record's current status. pending + borrowed approves the
// loan (stamps return date, flips the book unavailable), pending + rejected
// declines it, return_pending confirms the return (book available again).
func (s *BorrowService) Approve(ctx context.Context, ident *model.Identity, recordID string, req ApproveRequest) (*model.BorrowRecord, error) {
	if err := s.authz.RequireTier(ident, model.TierLibrarian); err != nil {
		return nil, err
	}

	rec, err := s.borrowRepo.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if rec.Status == model.StatusPending && req.Decision != model.DecisionBorrowed && req.Decision != model.DecisionRejected {
		return nil, common.Errorf("approval status must be 'borrowed' or 'rejected': %w", common.ErrValidation)
	}

	tr, ok := model.NextApproveTransition(rec.Status, req.Decision)
	if !ok {
		return nil, common.Errorf("cannot approve record in status %s: %w", rec.Status, common.ErrInvalidTransition)
	}

	var returnDate *time.Time
	if tr.SetReturnDate {
		due := s.now().Add(s.loanPeriod)
		returnDate = &due
	}

	// The repository applies the status CAS and the book flag in one
	// transaction; a concurrent approval loses the CAS and surfaces
	// ErrInvalidTransition with state unchanged.
	if err := s.borrowRepo.Transition(ctx, rec.ID, rec.Status, tr, returnDate); err != nil {
		return nil, err
	}

	rec.Status = tr.To
	if returnDate != nil {
		rec.ReturnDate = returnDate
	}
	return rec, nil
}

type BorrowListRequest struct {
	Status    model.BorrowStatus
	BookTitle string
	Username  string
	Limit     int
	Offset    int
}

// List applies the query-side policy: non-admin callers see only their own
// records; admin callers see everything and may filter by holder.
func (s *BorrowService) List(ctx context.Context, ident *model.Identity, req BorrowListRequest) ([]model.BorrowRecord, int, error) {
	if req.Status != "" && !req.Status.Valid() {
		return nil, 0, common.Errorf("unknown status %q: %w", req.Status, common.ErrValidation)
	}

	filter := repository.BorrowFilter{
		Status:    req.Status,
		BookTitle: req.BookTitle,
		Limit:     req.Limit,
		Offset:    req.Offset,
	}
	if ident.Tier() >= model.TierLibrarian {
		filter.Username = req.Username
	} else {
		filter.UserID = ident.ID
	}
	return s.borrowRepo.List(ctx, filter)
}

func (s *BorrowService) Get(ctx context.Context, ident *model.Identity, recordID string) (*model.BorrowRecord, error) {
	rec, err := s.borrowRepo.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.AuthorizeOwner(ident, rec.UserID); err != nil {
		return nil, err
	}
	return rec, nil
}

// PendingApprovals lists every record awaiting a librarian decision.
func (s *BorrowService) PendingApprovals(ctx context.Context, ident *model.Identity) ([]model.BorrowRecord, error) {
	if err := s.authz.RequireTier(ident, model.TierLibrarian); err != nil {
		return nil, err
	}
	pending, _, err := s.borrowRepo.List(ctx, repository.BorrowFilter{Status: model.StatusPending, Limit: 100})
	if err != nil {
		return nil, err
	}
	returns, _, err := s.borrowRepo.List(ctx, repository.BorrowFilter{Status: model.StatusReturnPending, Limit: 100})
	if err != nil {
		return nil, err
	}
	return append(pending, returns...), nil
}

type BookStatus struct {
	BookID        string     `json:"book_id"`
	Status        string     `json:"status"`
	CanBorrow     bool       `json:"can_borrow"`
	RecordID      string     `json:"record_id,omitempty"`
	ReturnDate    *time.Time `json:"return_date,omitempty"`
	DaysRemaining *int       `json:"days_remaining,omitempty"`
}

// CheckStatus reports the caller's standing against one book, derived from
// their latest record. No record, or a terminal one, means the book can be
// requested again.
func (s *BorrowService) CheckStatus(ctx context.Context, ident *model.Identity, bookID string) (*BookStatus, error) {
	if bookID == "" {
		return nil, common.Errorf("book_id is required: %w", common.ErrValidation)
	}

	rec, err := s.borrowRepo.LatestForUserBook(ctx, ident.ID, bookID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		// No record for this user: confirm the book exists, then report it
		// borrowable.
		if _, err := s.bookRepo.FindByID(ctx, bookID); err != nil {
			return nil, err
		}
		return &BookStatus{BookID: bookID, Status: "available", CanBorrow: true}, nil
	}

	if !rec.Status.Open() {
		return &BookStatus{BookID: bookID, Status: "available", CanBorrow: true}, nil
	}

	status := &BookStatus{
		BookID:   bookID,
		Status:   string(rec.Status),
		RecordID: rec.ID,
	}
	if rec.Status == model.StatusBorrowed && rec.ReturnDate != nil {
		status.ReturnDate = rec.ReturnDate
		days := int(rec.ReturnDate.Sub(s.now()).Hours() / 24)
		status.DaysRemaining = &days
	}
	return status, nil
}
