package streak

import (
	"testing"
	"time"
)

var engineNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2025, 3, d, 9, 0, 0, 0, time.UTC)
}

func TestRecomputeEmptyHistory(t *testing.T) {
	state, covered, invalid := Recompute(State{}, nil, nil, engineNow, time.UTC)
	if state.CurrentStreak != 0 || state.LongestStreak != 0 || state.StreakFreezes != 0 {
		t.Fatalf("unexpected state for empty history: %+v", state)
	}
	if state.LastActivityDate != nil {
		t.Fatalf("last activity should be nil, got %v", state.LastActivityDate)
	}
	if len(covered) != 0 {
		t.Fatalf("covered = %v, want none", covered)
	}
	if invalid != 0 {
		t.Fatalf("invalid = %d, want 0", invalid)
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	sessions := []Session{
		{Date: day(6), PagesRead: 10},
		{Date: day(7), PagesRead: 10},
		{Date: day(8), PagesRead: 10},
		{Date: day(9), PagesRead: 10},
		{Date: day(10), PagesRead: 10},
	}
	prev := State{CurrentStreak: 4, LongestStreak: 4, StreakFreezes: 1}

	first, _, _ := Recompute(prev, sessions, nil, engineNow, time.UTC)
	second, _, _ := Recompute(first, sessions, nil, engineNow, time.UTC)

	if first.CurrentStreak != second.CurrentStreak ||
		first.LongestStreak != second.LongestStreak ||
		first.StreakFreezes != second.StreakFreezes {
		t.Fatalf("recompute not idempotent: first=%+v second=%+v", first, second)
	}
}

func TestRecomputeIdempotentAfterFreezeSpent(t *testing.T) {
	// A token bridges the gap on the first run. The second run starts from
	// the depleted balance, so it must see the covered day to reproduce the
	// same streak instead of silently shrinking it.
	sessions := []Session{
		{Date: day(8), PagesRead: 10},
		{Date: day(10), PagesRead: 10},
	}
	prev := State{CurrentStreak: 1, LongestStreak: 1, StreakFreezes: 1}

	first, covered, _ := Recompute(prev, sessions, nil, engineNow, time.UTC)
	if first.CurrentStreak != 2 || first.StreakFreezes != 0 {
		t.Fatalf("first run: %+v, want current=2 freezes=0", first)
	}
	if len(covered) != 1 || covered[0] != "2025-03-09" {
		t.Fatalf("covered = %v, want [2025-03-09]", covered)
	}

	second, newlyCovered, _ := Recompute(first, sessions, covered, engineNow, time.UTC)
	if first.CurrentStreak != second.CurrentStreak ||
		first.LongestStreak != second.LongestStreak ||
		first.StreakFreezes != second.StreakFreezes {
		t.Fatalf("recompute not idempotent after spend: first=%+v second=%+v", first, second)
	}
	if len(newlyCovered) != 0 {
		t.Fatalf("second run covered %v, want nothing new", newlyCovered)
	}
}

func TestRecomputeConsumesFreezeAcrossGap(t *testing.T) {
	sessions := []Session{
		{Date: day(8), PagesRead: 10},
		{Date: day(10), PagesRead: 10},
	}
	prev := State{CurrentStreak: 1, LongestStreak: 1, StreakFreezes: 1}

	state, _, _ := Recompute(prev, sessions, nil, engineNow, time.UTC)
	if state.CurrentStreak != 2 {
		t.Errorf("current = %d, want 2", state.CurrentStreak)
	}
	if state.StreakFreezes != 0 {
		t.Errorf("freezes = %d, want 0 after bridging", state.StreakFreezes)
	}
}

func TestRecomputeEarnsMilestoneToken(t *testing.T) {
	// Seven consecutive days ending today, previous streak at six.
	var sessions []Session
	for d := 4; d <= 10; d++ {
		sessions = append(sessions, Session{Date: day(d), PagesRead: 5})
	}
	prev := State{CurrentStreak: 6, LongestStreak: 6, StreakFreezes: 0}

	state, _, _ := Recompute(prev, sessions, nil, engineNow, time.UTC)
	if state.CurrentStreak != 7 {
		t.Fatalf("current = %d, want 7", state.CurrentStreak)
	}
	if state.StreakFreezes != 1 {
		t.Errorf("freezes = %d, want 1 after crossing day 7", state.StreakFreezes)
	}
}

func TestRecomputeKeepsLongestMonotone(t *testing.T) {
	// History was trimmed (sessions deleted) but the record stands.
	sessions := []Session{{Date: day(10), PagesRead: 10}}
	prev := State{CurrentStreak: 1, LongestStreak: 12, StreakFreezes: 0}

	state, _, _ := Recompute(prev, sessions, nil, engineNow, time.UTC)
	if state.LongestStreak != 12 {
		t.Errorf("longest = %d, want 12 preserved", state.LongestStreak)
	}
	if state.CurrentStreak != 1 {
		t.Errorf("current = %d, want 1", state.CurrentStreak)
	}
}

func TestRecomputeReportsInvalidSessions(t *testing.T) {
	sessions := []Session{
		{PagesRead: 10}, // zero date, invalid
		{Date: day(10), PagesRead: 10},
	}
	state, _, invalid := Recompute(State{}, sessions, nil, engineNow, time.UTC)
	if invalid != 1 {
		t.Fatalf("invalid = %d, want 1", invalid)
	}
	if state.CurrentStreak != 1 {
		t.Fatalf("current = %d, want 1", state.CurrentStreak)
	}
}

func TestRecomputeSetsLastActivityDate(t *testing.T) {
	sessions := []Session{
		{Date: day(9), PagesRead: 10},
		{Date: day(10), PagesRead: 0}, // does not qualify
	}
	state, _, _ := Recompute(State{}, sessions, nil, engineNow, time.UTC)
	if state.LastActivityDate == nil {
		t.Fatal("last activity date not set")
	}
	if got := state.LastActivityDate.Format(DateLayout); got != "2025-03-09" {
		t.Errorf("last activity = %s, want 2025-03-09", got)
	}
}
