package streak

import "time"

const (
	// MaxFreezes caps how many unspent freeze tokens a user can bank.
	MaxFreezes = 3

	// FreezeMilestone is the streak length interval that earns a new token.
	FreezeMilestone = 7

	// DateLayout is the calendar-date format used throughout the engine.
	DateLayout = "2006-01-02"
)

// State is the derived streak record persisted on the user's profile row.
// It is recomputable at any time from the user's full session history.
type State struct {
	CurrentStreak    int        `json:"current_streak" db:"current_streak"`
	LongestStreak    int        `json:"longest_streak" db:"longest_streak"`
	StreakFreezes    int        `json:"streak_freezes" db:"streak_freezes"`
	LastActivityDate *time.Time `json:"last_activity_date" db:"last_activity_date"`
}

// Session is the slice of a reading session the engine cares about.
// A session qualifies for a streak day only when PagesRead > 0.
type Session struct {
	Date      time.Time
	PagesRead int
}
