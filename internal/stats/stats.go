package stats

type DaysStat struct {
	Period    string `json:"period"` // "week", "month", "year", "all_time"
	DaysRead  int    `json:"days_read" db:"days_read"`
	TotalDays int    `json:"total_days"`
}

type UserStats struct {
	ReadToday         bool    `json:"read_today"`
	DaysThisWeek      int     `json:"days_this_week"`
	DaysThisMonth     int     `json:"days_this_month"`
	DaysThisYear      int     `json:"days_this_year"`
	TotalDaysRead     int     `json:"total_days_read"`
	TotalPagesRead    int     `json:"total_pages_read"`
	CurrentStreak     int     `json:"current_streak"`
	LongestStreak     int     `json:"longest_streak"`
	StreakFreezes     int     `json:"streak_freezes"`
	AchievementsCount int     `json:"achievements_count"`
	FriendsCount      int     `json:"friends_count"`
	ReaderScore       float64 `json:"reader_score"`
	Rank              int     `json:"rank"`
}
