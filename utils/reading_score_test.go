package utils

import (
	"math"
	"testing"
)

func TestCalculateReaderScore(t *testing.T) {
	tests := []struct {
		name          string
		currentStreak int
		totalDays     int
		achievements  int
		want          float64
	}{
		{"zero everything", 0, 0, 0, 0},
		{"streak only", 10, 0, 0, 30},
		{"days only", 0, 100, 0, 5},
		{"achievements only", 0, 0, 4, 4},
		{"combined", 7, 40, 3, 7*7*0.3 + 40*0.05 + 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateReaderScore(tt.currentStreak, tt.totalDays, tt.achievements)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CalculateReaderScore(%d, %d, %d) = %v, want %v",
					tt.currentStreak, tt.totalDays, tt.achievements, got, tt.want)
			}
		})
	}
}

func TestReaderScoreGrowsWithStreak(t *testing.T) {
	prev := CalculateReaderScore(0, 10, 1)
	for streak := 1; streak <= 30; streak++ {
		got := CalculateReaderScore(streak, 10, 1)
		if got <= prev {
			t.Fatalf("score did not grow at streak %d: %v <= %v", streak, got, prev)
		}
		prev = got
	}
}
