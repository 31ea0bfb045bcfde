package streak

import "testing"

const testToday = "2025-03-10"

func TestCalculateEmptyHistory(t *testing.T) {
	res := Calculate(nil, testToday, 3, nil)
	if res.CurrentStreak != 0 || res.LongestStreak != 0 {
		t.Fatalf("expected zero streaks for empty history, got current=%d longest=%d",
			res.CurrentStreak, res.LongestStreak)
	}
	if res.FreezesSpent != 0 {
		t.Fatalf("no freezes should be spent on empty history, spent %d", res.FreezesSpent)
	}
}

func TestCalculateSingleDay(t *testing.T) {
	cases := []struct {
		name        string
		date        string
		wantCurrent int
		wantLongest int
	}{
		{"today", "2025-03-10", 1, 1},
		{"yesterday", "2025-03-09", 1, 1},
		{"three days ago", "2025-03-07", 0, 1},
		{"last month", "2025-02-01", 0, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Calculate([]string{tc.date}, testToday, 0, nil)
			if res.CurrentStreak != tc.wantCurrent {
				t.Errorf("current = %d, want %d", res.CurrentStreak, tc.wantCurrent)
			}
			if res.LongestStreak != tc.wantLongest {
				t.Errorf("longest = %d, want %d", res.LongestStreak, tc.wantLongest)
			}
		})
	}
}

func TestCalculateConsecutiveDays(t *testing.T) {
	// D, D+1, D+2 with today = D+2.
	dates := []string{"2025-03-08", "2025-03-09", "2025-03-10"}
	res := Calculate(dates, testToday, 0, nil)
	if res.CurrentStreak != 3 {
		t.Errorf("current = %d, want 3", res.CurrentStreak)
	}
	if res.LongestStreak != 3 {
		t.Errorf("longest = %d, want 3", res.LongestStreak)
	}
	if res.LastActivity != "2025-03-10" {
		t.Errorf("last activity = %q, want 2025-03-10", res.LastActivity)
	}
}

func TestCalculateOneDayGapBridgedByFreeze(t *testing.T) {
	// Sessions on D and D+2 (today), one day skipped in between.
	dates := []string{"2025-03-08", "2025-03-10"}

	res := Calculate(dates, testToday, 1, nil)
	if res.CurrentStreak != 2 {
		t.Errorf("bridged current = %d, want 2", res.CurrentStreak)
	}
	if res.FreezesSpent != 1 {
		t.Errorf("freezes spent = %d, want 1", res.FreezesSpent)
	}

	res = Calculate(dates, testToday, 0, nil)
	if res.CurrentStreak != 1 {
		t.Errorf("unbridged current = %d, want 1 (only today counts)", res.CurrentStreak)
	}
	if res.FreezesSpent != 0 {
		t.Errorf("freezes spent = %d, want 0", res.FreezesSpent)
	}
}

func TestCalculateTwoDayGapNeverBridged(t *testing.T) {
	// Sessions on D and D+3: two missed days, no token count helps.
	dates := []string{"2025-03-07", "2025-03-10"}
	res := Calculate(dates, testToday, 3, nil)
	if res.CurrentStreak != 1 {
		t.Errorf("current = %d, want 1 (most recent run only)", res.CurrentStreak)
	}
	if res.FreezesSpent != 0 {
		t.Errorf("freezes spent = %d, want 0", res.FreezesSpent)
	}
}

func TestCalculateHeadGapBridgedByFreeze(t *testing.T) {
	// Last session exactly two days before today: one skipped day at the head.
	dates := []string{"2025-03-06", "2025-03-07", "2025-03-08"}

	res := Calculate(dates, testToday, 1, nil)
	if res.CurrentStreak != 3 {
		t.Errorf("bridged current = %d, want 3", res.CurrentStreak)
	}
	if res.FreezesSpent != 1 {
		t.Errorf("freezes spent = %d, want 1", res.FreezesSpent)
	}

	res = Calculate(dates, testToday, 0, nil)
	if res.CurrentStreak != 0 {
		t.Errorf("unbridged current = %d, want 0", res.CurrentStreak)
	}
	if res.LongestStreak != 3 {
		t.Errorf("longest = %d, want 3", res.LongestStreak)
	}
}

func TestCalculateHeadGapTooWide(t *testing.T) {
	// Last session three days ago: streak is dead no matter the balance.
	dates := []string{"2025-03-05", "2025-03-06", "2025-03-07"}
	res := Calculate(dates, testToday, 3, nil)
	if res.CurrentStreak != 0 {
		t.Errorf("current = %d, want 0", res.CurrentStreak)
	}
	if res.FreezesSpent != 0 {
		t.Errorf("freezes spent = %d, want 0", res.FreezesSpent)
	}
}

func TestCalculateMultipleBridgesConsumeMultipleTokens(t *testing.T) {
	// Two separate one-day gaps, each costs a token.
	dates := []string{"2025-03-04", "2025-03-06", "2025-03-08", "2025-03-09", "2025-03-10"}

	res := Calculate(dates, testToday, 2, nil)
	if res.CurrentStreak != 5 {
		t.Errorf("current = %d, want 5", res.CurrentStreak)
	}
	if res.FreezesSpent != 2 {
		t.Errorf("freezes spent = %d, want 2", res.FreezesSpent)
	}

	// With a single token only the nearest gap is bridged.
	res = Calculate(dates, testToday, 1, nil)
	if res.CurrentStreak != 4 {
		t.Errorf("current = %d, want 4", res.CurrentStreak)
	}
	if res.FreezesSpent != 1 {
		t.Errorf("freezes spent = %d, want 1", res.FreezesSpent)
	}
}

func TestCalculateReportsCoveredDay(t *testing.T) {
	// The spent token is attached to the day it covered.
	dates := []string{"2025-03-08", "2025-03-10"}
	res := Calculate(dates, testToday, 1, nil)
	if len(res.CoveredDates) != 1 || res.CoveredDates[0] != "2025-03-09" {
		t.Fatalf("covered dates = %v, want [2025-03-09]", res.CoveredDates)
	}
}

func TestCalculateCoveredDayBridgesWithoutSpending(t *testing.T) {
	// A day already paid for bridges its gap even with an empty balance.
	dates := []string{"2025-03-08", "2025-03-10"}
	res := Calculate(dates, testToday, 0, []string{"2025-03-09"})
	if res.CurrentStreak != 2 {
		t.Errorf("current = %d, want 2", res.CurrentStreak)
	}
	if res.FreezesSpent != 0 {
		t.Errorf("freezes spent = %d, want 0", res.FreezesSpent)
	}
	if len(res.CoveredDates) != 0 {
		t.Errorf("covered dates = %v, want none new", res.CoveredDates)
	}
}

func TestCalculateCoveredDayAtHeadGap(t *testing.T) {
	// Token spent on the skipped day between the last session and today.
	dates := []string{"2025-03-06", "2025-03-07", "2025-03-08"}

	res := Calculate(dates, testToday, 0, []string{"2025-03-09"})
	if res.CurrentStreak != 3 {
		t.Errorf("current = %d, want 3", res.CurrentStreak)
	}
	if res.FreezesSpent != 0 {
		t.Errorf("freezes spent = %d, want 0", res.FreezesSpent)
	}
}

func TestCalculateLongestFromClosedRun(t *testing.T) {
	// A five-day run long ago beats the live two-day run.
	dates := []string{
		"2025-01-01", "2025-01-02", "2025-01-03", "2025-01-04", "2025-01-05",
		"2025-03-09", "2025-03-10",
	}
	res := Calculate(dates, testToday, 0, nil)
	if res.CurrentStreak != 2 {
		t.Errorf("current = %d, want 2", res.CurrentStreak)
	}
	if res.LongestStreak != 5 {
		t.Errorf("longest = %d, want 5", res.LongestStreak)
	}
}

func TestCalculateLongestNeverBelowCurrent(t *testing.T) {
	histories := [][]string{
		nil,
		{"2025-03-10"},
		{"2025-03-08", "2025-03-10"},
		{"2025-03-04", "2025-03-06", "2025-03-08", "2025-03-09", "2025-03-10"},
		{"2025-01-01", "2025-01-02", "2025-03-09", "2025-03-10"},
	}
	for _, dates := range histories {
		for freezes := 0; freezes <= MaxFreezes; freezes++ {
			res := Calculate(dates, testToday, freezes, nil)
			if res.LongestStreak < res.CurrentStreak {
				t.Errorf("dates=%v freezes=%d: longest %d < current %d",
					dates, freezes, res.LongestStreak, res.CurrentStreak)
			}
		}
	}
}
