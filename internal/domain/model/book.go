package model

import "time"

type Book struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	AuthorID    string    `json:"author_id"`
	CategoryID  string    `json:"category_id"`
	Description string    `json:"description,omitempty"`
	// IsAvailable is written only by the borrow lifecycle manager, paired
	// with the owning record's status in one transaction.
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	AuthorName   *string `json:"author_name,omitempty"`   // For display
	CategoryName *string `json:"category_name,omitempty"` // For display
}

type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
