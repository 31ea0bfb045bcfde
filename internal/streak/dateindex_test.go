package streak

import (
	"reflect"
	"testing"
	"time"
)

func TestBuildDateIndexSortsAndDeduplicates(t *testing.T) {
	sessions := []Session{
		{Date: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), PagesRead: 12},
		{Date: time.Date(2025, 3, 8, 21, 30, 0, 0, time.UTC), PagesRead: 5},
		{Date: time.Date(2025, 3, 10, 22, 15, 0, 0, time.UTC), PagesRead: 30},
		{Date: time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC), PagesRead: 1},
	}

	dates, invalid := BuildDateIndex(sessions, time.UTC)
	want := []string{"2025-03-08", "2025-03-09", "2025-03-10"}
	if !reflect.DeepEqual(dates, want) {
		t.Fatalf("dates = %v, want %v", dates, want)
	}
	if invalid != 0 {
		t.Fatalf("invalid = %d, want 0", invalid)
	}
}

func TestBuildDateIndexExcludesNonQualifyingSessions(t *testing.T) {
	sessions := []Session{
		{Date: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), PagesRead: 0},
		{Date: time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC), PagesRead: -3},
		{Date: time.Date(2025, 3, 8, 8, 0, 0, 0, time.UTC), PagesRead: 7},
	}

	dates, invalid := BuildDateIndex(sessions, time.UTC)
	want := []string{"2025-03-08"}
	if !reflect.DeepEqual(dates, want) {
		t.Fatalf("dates = %v, want %v", dates, want)
	}
	if invalid != 0 {
		t.Fatalf("invalid = %d, want 0", invalid)
	}
}

func TestBuildDateIndexCountsInvalidSessions(t *testing.T) {
	sessions := []Session{
		{PagesRead: 10}, // zero date
		{Date: time.Date(2025, 3, 8, 8, 0, 0, 0, time.UTC), PagesRead: 7},
	}

	dates, invalid := BuildDateIndex(sessions, time.UTC)
	if len(dates) != 1 {
		t.Fatalf("dates = %v, want one entry", dates)
	}
	if invalid != 1 {
		t.Fatalf("invalid = %d, want 1", invalid)
	}
}

func TestBuildDateIndexEmptyInput(t *testing.T) {
	dates, invalid := BuildDateIndex(nil, time.UTC)
	if len(dates) != 0 || invalid != 0 {
		t.Fatalf("expected empty output, got dates=%v invalid=%d", dates, invalid)
	}
}

func TestBuildDateIndexNormalizesTimezone(t *testing.T) {
	// 01:30 UTC on March 10 is still March 9 in New York. Two sessions
	// twenty hours apart land on consecutive calendar dates; the reference
	// timezone decides which ones.
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	sessions := []Session{
		{Date: time.Date(2025, 3, 10, 1, 30, 0, 0, time.UTC), PagesRead: 4},
	}

	utcDates, _ := BuildDateIndex(sessions, time.UTC)
	nyDates, _ := BuildDateIndex(sessions, ny)

	if utcDates[0] != "2025-03-10" {
		t.Errorf("utc date = %q, want 2025-03-10", utcDates[0])
	}
	if nyDates[0] != "2025-03-09" {
		t.Errorf("new york date = %q, want 2025-03-09", nyDates[0])
	}
}
