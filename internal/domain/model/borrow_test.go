package model

import "testing"

func TestNextApproveTransition(t *testing.T) {
	tests := []struct {
		name     string
		current  BorrowStatus
		decision ApproveDecision
		wantTo   BorrowStatus
		wantOK   bool
		wantAvail *bool
		wantDate bool
	}{
		{
			name:      "pending approved",
			current:   StatusPending,
			decision:  DecisionBorrowed,
			wantTo:    StatusBorrowed,
			wantOK:    true,
			wantAvail: boolPtr(false),
			wantDate:  true,
		},
		{
			name:     "pending rejected",
			current:  StatusPending,
			decision: DecisionRejected,
			wantTo:   StatusRejected,
			wantOK:   true,
		},
		{
			name:     "pending with garbage decision",
			current:  StatusPending,
			decision: "maybe",
			wantOK:   false,
		},
		{
			name:      "return_pending confirms regardless of decision",
			current:   StatusReturnPending,
			decision:  DecisionRejected,
			wantTo:    StatusReturned,
			wantOK:    true,
			wantAvail: boolPtr(true),
		},
		{
			name:     "borrowed cannot be approved",
			current:  StatusBorrowed,
			decision: DecisionBorrowed,
			wantOK:   false,
		},
		{
			name:     "returned is terminal",
			current:  StatusReturned,
			decision: DecisionBorrowed,
			wantOK:   false,
		},
		{
			name:     "rejected is terminal",
			current:  StatusRejected,
			decision: DecisionBorrowed,
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, ok := NextApproveTransition(tt.current, tt.decision)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if tr.To != tt.wantTo {
				t.Errorf("To = %s, want %s", tr.To, tt.wantTo)
			}
			if tr.SetReturnDate != tt.wantDate {
				t.Errorf("SetReturnDate = %v, want %v", tr.SetReturnDate, tt.wantDate)
			}
			if (tr.SetAvailability == nil) != (tt.wantAvail == nil) {
				t.Fatalf("SetAvailability = %v, want %v", tr.SetAvailability, tt.wantAvail)
			}
			if tr.SetAvailability != nil && *tr.SetAvailability != *tt.wantAvail {
				t.Errorf("SetAvailability = %v, want %v", *tr.SetAvailability, *tt.wantAvail)
			}
		})
	}
}

func TestNextReturnRequestTransition(t *testing.T) {
	tr, ok := NextReturnRequestTransition(StatusBorrowed)
	if !ok {
		t.Fatal("borrowed record should be returnable")
	}
	if tr.To != StatusReturnPending {
		t.Errorf("To = %s, want %s", tr.To, StatusReturnPending)
	}
	if tr.SetAvailability != nil {
		t.Error("requesting a return must not touch availability")
	}

	for _, status := range []BorrowStatus{StatusPending, StatusReturnPending, StatusReturned, StatusRejected} {
		if _, ok := NextReturnRequestTransition(status); ok {
			t.Errorf("status %s should not allow a return request", status)
		}
	}
}

func TestBorrowStatusOpen(t *testing.T) {
	open := []BorrowStatus{StatusPending, StatusBorrowed, StatusReturnPending}
	closed := []BorrowStatus{StatusReturned, StatusRejected}

	for _, s := range open {
		if !s.Open() {
			t.Errorf("%s should be open", s)
		}
	}
	for _, s := range closed {
		if s.Open() {
			t.Errorf("%s should not be open", s)
		}
	}
}

func TestBorrowStatusValid(t *testing.T) {
	if BorrowStatus("approval").Valid() {
		t.Error("unknown status should be invalid")
	}
	if !StatusReturnPending.Valid() {
		t.Error("return_pending should be valid")
	}
}
