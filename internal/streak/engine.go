package streak

import "time"

// Recompute derives a fresh State from the user's full session history.
// prev supplies the previously persisted state: its freeze balance funds
// gap bridging, its current streak anchors milestone earning, and its
// longest streak keeps the personal record monotone when sessions have been
// deleted or corrected. covered lists days already paid for by spent tokens;
// days newly paid for by this run are returned so the caller can persist
// them. The int return value is the number of invalid session records that
// were skipped.
//
// Recompute is idempotent once spent tokens are durable: running it again
// with the previous result and the accumulated covered days yields the same
// State, because covered days bridge their gaps without spending anything.
func Recompute(prev State, sessions []Session, covered []string, now time.Time, loc *time.Location) (State, []string, int) {
	if loc == nil {
		loc = time.UTC
	}

	dates, invalid := BuildDateIndex(sessions, loc)
	today := now.In(loc).Format(DateLayout)

	res := Calculate(dates, today, prev.StreakFreezes, covered)

	remaining := prev.StreakFreezes - res.FreezesSpent
	freezes := EarnFreezes(prev.CurrentStreak, res.CurrentStreak, remaining)

	next := State{
		CurrentStreak: res.CurrentStreak,
		LongestStreak: res.LongestStreak,
		StreakFreezes: freezes,
	}
	if next.LongestStreak < prev.LongestStreak {
		next.LongestStreak = prev.LongestStreak
	}
	if res.LastActivity != "" {
		if t, err := time.ParseInLocation(DateLayout, res.LastActivity, loc); err == nil {
			next.LastActivityDate = &t
		}
	}

	return next, res.CoveredDates, invalid
}

// CrossedMilestone reports whether the streak update crossed a new
// FreezeMilestone multiple, e.g. for milestone notifications.
func CrossedMilestone(prevStreak, newStreak int) bool {
	if newStreak <= prevStreak {
		return false
	}
	if prevStreak < 0 {
		prevStreak = 0
	}
	return newStreak/FreezeMilestone > prevStreak/FreezeMilestone
}
