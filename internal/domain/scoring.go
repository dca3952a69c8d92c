package domain

import "math"

// ScorePoints is the pure scoring rule. Incorrect answers earn nothing. A
// correct answer earns basePoints plus a speed bonus scaling linearly with
// the fraction of the time budget left, up to basePoints/2 when the full
// budget remains. The bonus is rounded half away from zero. Without a time
// budget (timeTotal <= 0) the bonus is undefined and only basePoints apply.
func ScorePoints(correct bool, basePoints int, timeRemaining, timeTotal float64) int {
	if !correct {
		return 0
	}
	if timeTotal <= 0 {
		return basePoints
	}
	remaining := timeRemaining
	if remaining < 0 {
		remaining = 0
	}
	if remaining > timeTotal {
		remaining = timeTotal
	}
	bonus := math.Round(remaining / timeTotal * float64(basePoints) / 2)
	return basePoints + int(bonus)
}
