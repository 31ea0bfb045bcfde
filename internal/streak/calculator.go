package streak

import "time"

// Result is the outcome of a single streak calculation over a date index.
type Result struct {
	CurrentStreak int
	LongestStreak int
	FreezesSpent  int
	CoveredDates  []string // YYYY-MM-DD days newly covered by a spent token
	LastActivity  string   // YYYY-MM-DD of the most recent qualifying day, "" if none
}

// Calculate computes the current and longest streak from an ascending list
// of unique YYYY-MM-DD strings, as produced by BuildDateIndex.
//
// The current streak is alive when the most recent qualifying day is today
// or yesterday. A gap of exactly one missed day — between today and the last
// qualifying day, or between adjacent days in the backward walk — is bridged
// by spending one freeze token, as if the missing day had a qualifying
// session (the bridged day itself does not add to the count). Gaps of two or
// more missed days are never bridgeable.
//
// covered lists days already paid for by a previously spent token. They
// bridge their gap without spending anything, so repeating a calculation
// with the covered days it reported yields the same streak. Newly spent
// tokens are reported in CoveredDates; the caller is expected to make them
// durable.
//
// The longest streak is the best consecutive run anywhere in history, and at
// least the current streak, since a live bridged streak can exceed every
// closed run.
func Calculate(dates []string, today string, freezesAvailable int, covered []string) Result {
	if len(dates) == 0 {
		return Result{}
	}

	coveredSet := make(map[string]struct{}, len(covered))
	for _, d := range covered {
		coveredSet[d] = struct{}{}
	}

	res := Result{LastActivity: dates[len(dates)-1]}

	// Longest closed run, no freezes applied.
	run := 1
	for i := 1; i < len(dates); i++ {
		if daysBetween(dates[i-1], dates[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > res.LongestStreak {
			res.LongestStreak = run
		}
	}
	if res.LongestStreak == 0 {
		res.LongestStreak = 1
	}

	freezes := freezesAvailable

	// bridge reports whether the single missed day between two qualifying
	// days is covered, paying a token for it if it isn't already.
	bridge := func(before string) bool {
		missed := nextDay(before)
		if _, ok := coveredSet[missed]; ok {
			return true
		}
		if freezes > 0 {
			freezes--
			res.FreezesSpent++
			res.CoveredDates = append(res.CoveredDates, missed)
			return true
		}
		return false
	}

	// Grace window: the streak is current only if the last qualifying day is
	// today or yesterday, or exactly one day was skipped and a token covers it.
	alive := false
	switch daysBetween(dates[len(dates)-1], today) {
	case 0, 1:
		alive = true
	case 2:
		alive = bridge(dates[len(dates)-1])
	}

	if alive {
		current := 1
		for i := len(dates) - 2; i >= 0; i-- {
			gap := daysBetween(dates[i], dates[i+1])
			if gap == 1 {
				current++
				continue
			}
			if gap == 2 && bridge(dates[i]) {
				current++
				continue
			}
			break
		}
		res.CurrentStreak = current
	}

	if res.CurrentStreak > res.LongestStreak {
		res.LongestStreak = res.CurrentStreak
	}

	return res
}

// daysBetween returns the number of calendar days from a to b. Both must be
// valid YYYY-MM-DD strings; malformed dates are rejected upstream by
// BuildDateIndex, so a parse failure here degrades to a broken streak rather
// than a panic.
func daysBetween(a, b string) int {
	ta, errA := time.Parse(DateLayout, a)
	tb, errB := time.Parse(DateLayout, b)
	if errA != nil || errB != nil {
		return -1
	}
	return int(tb.Sub(ta).Hours() / 24)
}

// nextDay returns the calendar day after d, or "" for a malformed date.
func nextDay(d string) string {
	t, err := time.Parse(DateLayout, d)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, 1).Format(DateLayout)
}
