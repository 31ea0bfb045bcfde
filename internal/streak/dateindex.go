package streak

import (
	"sort"
	"time"
)

// BuildDateIndex normalizes raw sessions into an ascending list of unique
// calendar-date strings (YYYY-MM-DD) in the given reference timezone.
// Sessions with PagesRead <= 0 do not count toward a streak day. Sessions
// with a zero date are invalid and skipped; the second return value reports
// how many were skipped so the caller can log them.
func BuildDateIndex(sessions []Session, loc *time.Location) ([]string, int) {
	if loc == nil {
		loc = time.UTC
	}

	seen := make(map[string]struct{}, len(sessions))
	invalid := 0

	for _, s := range sessions {
		if s.Date.IsZero() {
			invalid++
			continue
		}
		if s.PagesRead <= 0 {
			continue
		}
		seen[s.Date.In(loc).Format(DateLayout)] = struct{}{}
	}

	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	return dates, invalid
}
