package book

import (
	"time"

	"github.com/google/uuid"
)

type ReadingStatus string

const (
	StatusWantToRead ReadingStatus = "want_to_read"
	StatusReading    ReadingStatus = "reading"
	StatusFinished   ReadingStatus = "finished"
)

type Book struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Author    string    `json:"author" db:"author"`
	CoverURL  *string   `json:"cover_url,omitempty" db:"cover_url"`
	PageCount *int      `json:"page_count,omitempty" db:"page_count"`
	ISBN      *string   `json:"isbn,omitempty" db:"isbn"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// LibraryEntry ties a book to a user's shelf with a reading status.
type LibraryEntry struct {
	Book
	Status     ReadingStatus `json:"status" db:"status"`
	AddedAt    time.Time     `json:"added_at" db:"added_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty" db:"finished_at"`
}

type AddToLibraryRequest struct {
	BookID string `json:"book_id"`
	Status string `json:"status,omitempty"`
}

type UpdateLibraryRequest struct {
	BookID string `json:"book_id"`
	Status string `json:"status"`
}
