package analytics

// LongestReadStreak returns the longest run of consecutive days with at least
// one read article. Points must be in ascending day order; a gap of more than
// one day between points breaks the run.
func LongestReadStreak(points []DayPoint) int {
	current, best := 0, 0
	for i, p := range points {
		if i > 0 {
			gap, ok := daysBetween(points[i-1].DayKey, p.DayKey)
			if !ok || gap > 1 {
				current = 0
			}
		}
		if p.Read > 0 {
			current++
			if current > best {
				best = current
			}
		} else {
			current = 0
		}
	}
	return best
}
