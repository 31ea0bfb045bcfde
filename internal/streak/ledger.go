package streak

// EarnFreezes returns the new token balance after a streak update. One token
// is earned for every new multiple of FreezeMilestone the current streak
// crossed compared to its previous value, capped at MaxFreezes. A streak
// that shrank or stayed put earns nothing; banked tokens are never revoked.
func EarnFreezes(prevStreak, newStreak, balance int) int {
	if balance < 0 {
		balance = 0
	}
	if newStreak > prevStreak {
		if prevStreak < 0 {
			prevStreak = 0
		}
		balance += newStreak/FreezeMilestone - prevStreak/FreezeMilestone
	}
	if balance > MaxFreezes {
		balance = MaxFreezes
	}
	return balance
}
