package user

import "time"

type User struct {
	ID               string     `json:"id"`
	ClerkID          string     `json:"clerkId"`
	Email            string     `json:"email"`
	Username         string     `json:"username"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	ImageURL         string     `json:"imageUrl,omitempty"`
	EmailVerified    bool       `json:"emailVerified"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	TotalPagesRead   int        `json:"total_pages_read"`
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	StreakFreezes    int        `json:"streak_freezes"`
	LastActivityDate *time.Time `json:"last_activity_date,omitempty"`
}
