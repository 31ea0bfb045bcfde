package calendar

import "time"

type CalendarDay struct {
	Date      time.Time `json:"date" db:"date"`
	ReadToday bool      `json:"read_today" db:"read_today"`
	PagesRead int       `json:"pages_read" db:"pages_read"`
	IsToday   bool      `json:"is_today"`
}

type CalendarResponse struct {
	Year  int            `json:"year"`
	Month int            `json:"month"`
	Days  []*CalendarDay `json:"days"`
}
