package streak

import "testing"

func TestEarnFreezes(t *testing.T) {
	cases := []struct {
		name       string
		prev, next int
		balance    int
		want       int
	}{
		{"crossing day 7 earns one", 6, 7, 0, 1},
		{"crossing day 7 mid-balance", 6, 7, 2, 3},
		{"crossing day 7 at cap stays capped", 6, 7, 3, 3},
		{"no crossing, no earning", 5, 6, 1, 1},
		{"same streak earns nothing", 7, 7, 1, 1},
		{"shrinking streak earns nothing", 14, 2, 2, 2},
		{"reset to zero keeps bank", 10, 0, 2, 2},
		{"jump across two milestones", 0, 14, 0, 2},
		{"jump across many milestones capped", 0, 70, 0, MaxFreezes},
		{"negative balance treated as empty", 6, 7, -1, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EarnFreezes(tc.prev, tc.next, tc.balance)
			if got != tc.want {
				t.Errorf("EarnFreezes(%d, %d, %d) = %d, want %d",
					tc.prev, tc.next, tc.balance, got, tc.want)
			}
		})
	}
}

func TestCrossedMilestone(t *testing.T) {
	cases := []struct {
		prev, next int
		want       bool
	}{
		{6, 7, true},
		{7, 8, false},
		{13, 14, true},
		{0, 1, false},
		{14, 7, false},
		{0, 21, true},
	}

	for _, tc := range cases {
		if got := CrossedMilestone(tc.prev, tc.next); got != tc.want {
			t.Errorf("CrossedMilestone(%d, %d) = %v, want %v", tc.prev, tc.next, got, tc.want)
		}
	}
}
