package analytics

import "testing"

// series builds consecutive days ending today with the given read counts.
func series(reads ...int) []DayPoint {
	points := make([]DayPoint, len(reads))
	w := ResolveWindow(TimeRange(len(reads)), fixedNow)
	for i, r := range reads {
		points[i] = DayPoint{DayKey: w.Cutoff.AddDate(0, 0, i).Format(DayKeyLayout), Read: r, Total: r}
	}
	return points
}

func TestLongestReadStreak(t *testing.T) {
	tests := []struct {
		name   string
		points []DayPoint
		want   int
	}{
		{"empty", nil, 0},
		{"middle run wins", series(1, 1, 0, 1, 1, 1, 0), 3},
		{"no reads", series(0, 0, 0), 0},
		{"all reads", series(2, 1, 3, 1), 4},
		{"sparse series breaks on gap", []DayPoint{
			{DayKey: "2026-01-01", Read: 1},
			{DayKey: "2026-01-02", Read: 1},
			{DayKey: "2026-01-04", Read: 1},
			{DayKey: "2026-01-05", Read: 1},
			{DayKey: "2026-01-06", Read: 1},
		}, 3},
		{"month boundary is consecutive", []DayPoint{
			{DayKey: "2026-01-31", Read: 1},
			{DayKey: "2026-02-01", Read: 1},
		}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LongestReadStreak(tt.points); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
