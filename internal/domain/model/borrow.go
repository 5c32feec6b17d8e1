package model

import "time"

type BorrowStatus string

const (
	// StatusPending: created by a reader, awaiting a librarian decision.
	StatusPending BorrowStatus = "pending"
	// StatusBorrowed: approved; the linked book is unavailable.
	StatusBorrowed BorrowStatus = "borrowed"
	// StatusReturnPending: the reader asked to return; awaiting confirmation.
	StatusReturnPending BorrowStatus = "return_pending"
	// StatusReturned and StatusRejected are terminal.
	StatusReturned BorrowStatus = "returned"
	StatusRejected BorrowStatus = "rejected"
)

func (s BorrowStatus) Valid() bool {
	switch s {
	case StatusPending, StatusBorrowed, StatusReturnPending, StatusReturned, StatusRejected:
		return true
	}
	return false
}

// Open reports whether the record still ties up the book or requires a
// librarian decision.
func (s BorrowStatus) Open() bool {
	return s == StatusPending || s == StatusBorrowed || s == StatusReturnPending
}

type BorrowRecord struct {
	ID         string       `json:"id"`
	UserID     string       `json:"user_id"`
	BookID     string       `json:"book_id"`
	BorrowDate time.Time    `json:"borrow_date"`
	ReturnDate *time.Time   `json:"return_date,omitempty"`
	Status     BorrowStatus `json:"status"`

	Username  *string `json:"username,omitempty"`   // For display
	BookTitle *string `json:"book_title,omitempty"` // For display
}

// ApproveDecision is the tagged input to the single approve operation. What
// it means depends on the record's current status.
type ApproveDecision string

const (
	DecisionBorrowed ApproveDecision = "borrowed"
	DecisionRejected ApproveDecision = "rejected"
)

// BorrowTransition is one row of the lifecycle table. SetAvailability, when
// non-nil, is the paired book.is_available write that must commit atomically
// with the status change. SetReturnDate marks the transitions that stamp
// borrow_date + loan period.
type BorrowTransition struct {
	To              BorrowStatus
	SetAvailability *bool
	SetReturnDate   bool
}

func boolPtr(b bool) *bool { return &b }

// NextApproveTransition is the single source of truth for what "approve"
// means against a record's current status. Handlers and services must not
// branch on status themselves.
func NextApproveTransition(current BorrowStatus, decision ApproveDecision) (BorrowTransition, bool) {
	switch current {
	case StatusPending:
		switch decision {
		case DecisionBorrowed:
			return BorrowTransition{To: StatusBorrowed, SetAvailability: boolPtr(false), SetReturnDate: true}, true
		case DecisionRejected:
			return BorrowTransition{To: StatusRejected}, true
		}
		return BorrowTransition{}, false
	case StatusReturnPending:
		// A return confirmation ignores the posted decision: the only legal
		// outcome is "returned". The expected return date stays on the
		// record for history.
		return BorrowTransition{To: StatusReturned, SetAvailability: boolPtr(true)}, true
	}
	return BorrowTransition{}, false
}

// NextReturnRequestTransition governs the reader-initiated half of the
// lifecycle: only an approved (borrowed) record may enter return_pending.
func NextReturnRequestTransition(current BorrowStatus) (BorrowTransition, bool) {
	if current != StatusBorrowed {
		return BorrowTransition{}, false
	}
	return BorrowTransition{To: StatusReturnPending}, true
}
