package model

import "time"

// Rating is one user's score for one book. The (user, book) pair is unique.
type Rating struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	Score     int       `json:"score"` // 1..5
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Username  *string `json:"username,omitempty"`   // For display
	BookTitle *string `json:"book_title,omitempty"` // For display
}

// PopularBook is a borrow-count aggregate used by the popularity analysis.
type PopularBook struct {
	BookID      string `json:"book_id"`
	Title       string `json:"title"`
	BorrowCount int    `json:"borrow_count"`
}

// ScoredBook is the output of the recommendation scorer.
type ScoredBook struct {
	BookID string  `json:"book_id"`
	Title  string  `json:"title"`
	Score  float64 `json:"score"`
}
