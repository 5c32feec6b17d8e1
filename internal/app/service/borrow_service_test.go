package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shelfwise/internal/common"
	"shelfwise/internal/domain/model"
)

type borrowFixture struct {
	svc    *BorrowService
	books  *memBookRepo
	borrow *memBorrowRepo

	reader    *model.Identity
	librarian *model.Identity
}

func newBorrowFixture(t *testing.T) *borrowFixture {
	t.Helper()
	userRepo := newMemUserRepo()
	catalogRepo := newMemCatalogRepo()
	authz := NewAuthzService(userRepo, catalogRepo, newMemRoleCache())

	books := newMemBookRepo()
	borrow := newMemBorrowRepo(books)

	books.books["b1"] = model.Book{ID: "b1", Title: "The Go Programming Language", Slug: "the-go-programming-language", IsAvailable: true}

	svc := NewBorrowService(borrow, books, authz, 15)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	return &borrowFixture{
		svc:       svc,
		books:     books,
		borrow:    borrow,
		reader:    &model.Identity{ID: "reader-1", Username: "alice", UserType: model.UserTypeReader},
		librarian: &model.Identity{ID: "lib-1", Username: "bob", UserType: model.UserTypeLibrarian},
	}
}

func TestBorrowLifecycle(t *testing.T) {
	f := newBorrowFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, f.reader, CreateBorrowRequest{BookID: "b1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Status != model.StatusPending {
		t.Fatalf("Status = %s, want pending", rec.Status)
	}

	// Librarian approves: record borrowed, book unavailable, due date stamped.
	approved, err := f.svc.Approve(ctx, f.librarian, rec.ID, ApproveRequest{Decision: model.DecisionBorrowed})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != model.StatusBorrowed {
		t.Fatalf("Status = %s, want borrowed", approved.Status)
	}
	if approved.ReturnDate == nil {
		t.Fatal("ReturnDate should be stamped on approval")
	}
	wantDue := time.Date(2026, 3, 16, 12, 0, 0, 0, time.UTC)
	if !approved.ReturnDate.Equal(wantDue) {
		t.Errorf("ReturnDate = %v, want %v (15 day loan)", approved.ReturnDate, wantDue)
	}
	if book, _ := f.books.FindByID(ctx, "b1"); book.IsAvailable {
		t.Error("book should be unavailable while borrowed")
	}

	// Reader asks to return.
	returned, err := f.svc.RequestReturn(ctx, f.reader, rec.ID)
	if err != nil {
		t.Fatalf("RequestReturn: %v", err)
	}
	if returned.Status != model.StatusReturnPending {
		t.Fatalf("Status = %s, want return_pending", returned.Status)
	}
	if book, _ := f.books.FindByID(ctx, "b1"); book.IsAvailable {
		t.Error("book stays unavailable until the return is confirmed")
	}

	// Librarian confirms the return.
	confirmed, err := f.svc.Approve(ctx, f.librarian, rec.ID, ApproveRequest{})
	if err != nil {
		t.Fatalf("Approve (return): %v", err)
	}
	if confirmed.Status != model.StatusReturned {
		t.Fatalf("Status = %s, want returned", confirmed.Status)
	}
	if book, _ := f.books.FindByID(ctx, "b1"); !book.IsAvailable {
		t.Error("book should be available after the return is confirmed")
	}

	// Terminal record: further approvals are invalid transitions.
	if _, err := f.svc.Approve(ctx, f.librarian, rec.ID, ApproveRequest{Decision: model.DecisionBorrowed}); !errors.Is(err, common.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestApproveRejection(t *testing.T) {
	f := newBorrowFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, f.reader, CreateBorrowRequest{BookID: "b1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rejected, err := f.svc.Approve(ctx, f.librarian, rec.ID, ApproveRequest{Decision: model.DecisionRejected})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if rejected.Status != model.StatusRejected {
		t.Fatalf("Status = %s, want rejected", rejected.Status)
	}
	if rejected.ReturnDate != nil {
		t.Error("rejection must not stamp a return date")
	}
	if book, _ := f.books.FindByID(ctx, "b1"); !book.IsAvailable {
		t.Error("rejection must not touch availability")
	}
}

func TestApproveRequiresLibrarianTier(t *testing.T) {
	f := newBorrowFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, f.reader, CreateBorrowRequest{BookID: "b1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Readers cannot approve, not even their own request.
	if _, err := f.svc.Approve(ctx, f.reader, rec.ID, ApproveRequest{Decision: model.DecisionBorrowed}); !errors.Is(err, common.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	got, err := f.borrow.FindByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Status != model.StatusPending {
		t.Errorf("denied approval must leave the record pending, got %s", got.Status)
	}
}

func TestApproveValidatesDecisionOnPending(t *testing.T) {
	f := newBorrowFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, f.reader, CreateBorrowRequest{BookID: "b1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := f.svc.Approve(ctx, f.librarian, rec.ID, ApproveRequest{Decision: "maybe"}); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestConcurrentApprovalsExactlyOneWins(t *testing.T) {
	f := newBorrowFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, f.reader, CreateBorrowRequest{BookID: "b1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Approve(ctx, f.librarian, rec.ID, ApproveRequest{Decision: model.DecisionBorrowed})
		}(i)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, common.ErrInvalidTransition):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1", wins)
	}
	if losses != n-1 {
		t.Fatalf("losses = %d, want %d", losses, n-1)
	}

	got, err := f.borrow.FindByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Status != model.StatusBorrowed {
		t.Errorf("Status = %s, want borrowed", got.Status)
	}
}

func TestRequestReturnOwnership(t *testing.T) {
	f := newBorrowFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, f.reader, CreateBorrowRequest{BookID: "b1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Approve(ctx, f.librarian, rec.ID, ApproveRequest{Decision: model.DecisionBorrowed}); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	stranger := &model.Identity{ID: "reader-2", UserType: model.UserTypeReader}
	if _, err := f.svc.RequestReturn(ctx, stranger, rec.ID); !errors.Is(err, common.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.RequestReturn(ctx, f.reader, rec.ID); err != nil {
		t.Fatalf("owner return request: %v", err)
	}
}

func TestRequestReturnRequiresBorrowedStatus(t *testing.T) {
	f := newBorrowFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, f.reader, CreateBorrowRequest{BookID: "b1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := f.svc.RequestReturn(ctx, f.reader, rec.ID); !errors.Is(err, common.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition for pending record", err)
	}
}

func TestCreateQueuesBehindUnavailableBook(t *testing.T) {
	f := newBorrowFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.reader, CreateBorrowRequest{BookID: "b1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Approve(ctx, f.librarian, first.ID, ApproveRequest{Decision: model.DecisionBorrowed}); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	// The book is now unavailable; a second reader may still file a request.
	second := &model.Identity{ID: "reader-2", Username: "carol", UserType: model.UserTypeReader}
	rec, err := f.svc.Create(ctx, second, CreateBorrowRequest{BookID: "b1"})
	if err != nil {
		t.Fatalf("Create on unavailable book: %v", err)
	}
	if rec.Status != model.StatusPending {
		t.Errorf("Status = %s, want pending", rec.Status)
	}
}

func TestCreateUnknownBook(t *testing.T) {
	f := newBorrowFixture(t)

	_, err := f.svc.Create(context.Background(), f.reader, CreateBorrowRequest{BookID: "missing"})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListScopesReadersToOwnRecords(t *testing.T) {
	f := newBorrowFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, f.reader, CreateBorrowRequest{BookID: "b1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	other := &model.Identity{ID: "reader-2", Username: "carol", UserType: model.UserTypeReader}
	if _, err := f.svc.Create(ctx, other, CreateBorrowRequest{BookID: "b1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	mine, _, err := f.svc.List(ctx, f.reader, BorrowListRequest{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, rec := range mine {
		if rec.UserID != f.reader.ID {
			t.Errorf("reader saw a foreign record %s", rec.ID)
		}
	}
	if len(mine) != 1 {
		t.Errorf("len = %d, want 1", len(mine))
	}

	all, _, err := f.svc.List(ctx, f.librarian, BorrowListRequest{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("librarian len = %d, want 2", len(all))
	}

	if _, _, err := f.svc.List(ctx, f.reader, BorrowListRequest{Status: "approval"}); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation for unknown status", err)
	}
}

func TestCheckStatus(t *testing.T) {
	f := newBorrowFixture(t)
	ctx := context.Background()

	t.Run("no record means borrowable", func(t *testing.T) {
		status, err := f.svc.CheckStatus(ctx, f.reader, "b1")
		if err != nil {
			t.Fatalf("CheckStatus: %v", err)
		}
		if status.Status != "available" || !status.CanBorrow {
			t.Errorf("got %+v, want available/can_borrow", status)
		}
	})

	t.Run("unknown book is not found", func(t *testing.T) {
		if _, err := f.svc.CheckStatus(ctx, f.reader, "missing"); !errors.Is(err, common.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("borrowed reports due date and days remaining", func(t *testing.T) {
		rec, err := f.svc.Create(ctx, f.reader, CreateBorrowRequest{BookID: "b1"})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, err := f.svc.Approve(ctx, f.librarian, rec.ID, ApproveRequest{Decision: model.DecisionBorrowed}); err != nil {
			t.Fatalf("Approve: %v", err)
		}

		status, err := f.svc.CheckStatus(ctx, f.reader, "b1")
		if err != nil {
			t.Fatalf("CheckStatus: %v", err)
		}
		if status.Status != string(model.StatusBorrowed) {
			t.Errorf("Status = %s, want borrowed", status.Status)
		}
		if status.RecordID != rec.ID {
			t.Errorf("RecordID = %s, want %s", status.RecordID, rec.ID)
		}
		if status.DaysRemaining == nil || *status.DaysRemaining != 15 {
			t.Errorf("DaysRemaining = %v, want 15", status.DaysRemaining)
		}
	})

	t.Run("terminal record means borrowable again", func(t *testing.T) {
		rec, err := f.svc.RequestReturn(ctx, f.reader, mustLatest(t, f, "b1").ID)
		if err != nil {
			t.Fatalf("RequestReturn: %v", err)
		}
		if _, err := f.svc.Approve(ctx, f.librarian, rec.ID, ApproveRequest{}); err != nil {
			t.Fatalf("Approve: %v", err)
		}

		status, err := f.svc.CheckStatus(ctx, f.reader, "b1")
		if err != nil {
			t.Fatalf("CheckStatus: %v", err)
		}
		if status.Status != "available" || !status.CanBorrow {
			t.Errorf("got %+v, want available after return", status)
		}
	})
}

func mustLatest(t *testing.T, f *borrowFixture, bookID string) *model.BorrowRecord {
	t.Helper()
	rec, err := f.borrow.LatestForUserBook(context.Background(), f.reader.ID, bookID)
	if err != nil {
		t.Fatalf("LatestForUserBook: %v", err)
	}
	return rec
}

func TestPendingApprovals(t *testing.T) {
	f := newBorrowFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.reader, CreateBorrowRequest{BookID: "b1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Approve(ctx, f.librarian, first.ID, ApproveRequest{Decision: model.DecisionBorrowed}); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := f.svc.RequestReturn(ctx, f.reader, first.ID); err != nil {
		t.Fatalf("RequestReturn: %v", err)
	}
	other := &model.Identity{ID: "reader-2", Username: "carol", UserType: model.UserTypeReader}
	if _, err := f.svc.Create(ctx, other, CreateBorrowRequest{BookID: "b1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	records, err := f.svc.PendingApprovals(ctx, f.librarian)
	if err != nil {
		t.Fatalf("PendingApprovals: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2 (one pending, one return_pending)", len(records))
	}

	if _, err := f.svc.PendingApprovals(ctx, f.reader); !errors.Is(err, common.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden for reader", err)
	}
}
