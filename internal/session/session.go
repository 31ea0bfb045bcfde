package session

import (
	"time"

	"github.com/google/uuid"
)

// ReadingSession is one logged reading event. Only the calendar date of
// SessionDate matters for streaks; a session with PagesRead == 0 is a
// bookmark-style log that does not count toward a streak day.
type ReadingSession struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	BookID      *uuid.UUID `json:"book_id,omitempty" db:"book_id"`
	SessionDate time.Time  `json:"session_date" db:"session_date"`
	PagesRead   int        `json:"pages_read" db:"pages_read"`
	Note        *string    `json:"note,omitempty" db:"note"`
	LoggedAt    time.Time  `json:"logged_at" db:"logged_at"`
}

type LogSessionRequest struct {
	BookID    string  `json:"book_id,omitempty"`
	PagesRead int     `json:"pages_read"`
	Date      string  `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
	Note      *string `json:"note,omitempty"`
}

// ReadingPost is a feed entry: a friend's (or discoverable reader's) session
// with its note, enriched with the author's public profile bits.
type ReadingPost struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	Username     string     `json:"username"`
	UserImageURL *string    `json:"user_image_url"`
	BookTitle    *string    `json:"book_title"`
	PagesRead    int        `json:"pages_read"`
	Note         *string    `json:"note"`
	SessionDate  time.Time  `json:"session_date"`
	LoggedAt     time.Time  `json:"logged_at"`
	SourceType   string     `json:"source_type"` // "friend" or "other"
}
