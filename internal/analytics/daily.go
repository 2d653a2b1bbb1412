package analytics

import (
	"sort"
	"time"
)

const (
	shortDayLabel = "Jan 2"
	longDayLabel  = "Jan 2, 2006"
)

// DayPoint is one calendar day of reading activity.
type DayPoint struct {
	DayKey string `json:"dayKey"`
	Label  string `json:"label"`
	Read   int    `json:"read"`
	Unread int    `json:"unread"`
	Total  int    `json:"total"`
}

// BuildDailyActivity returns the per-day series in ascending order. Bounded
// windows emit exactly one point per day, zero-filled; the unbounded window
// emits only days that have articles.
func BuildDailyActivity(filtered []Article, w Window, now time.Time) []DayPoint {
	loc := now.Location()
	byDay := make(map[string]*DayPoint)
	for _, a := range filtered {
		d, ok := a.EffectiveDate(loc)
		if !ok {
			continue
		}
		key := dayKey(d)
		p, ok := byDay[key]
		if !ok {
			p = &DayPoint{DayKey: key}
			byDay[key] = p
		}
		p.Total++
		if a.IsRead {
			p.Read++
		} else {
			p.Unread++
		}
	}

	if !w.Bounded() {
		points := make([]DayPoint, 0, len(byDay))
		for key, p := range byDay {
			day, err := time.ParseInLocation(DayKeyLayout, key, loc)
			if err == nil {
				p.Label = day.Format(longDayLabel)
			}
			points = append(points, *p)
		}
		sort.Slice(points, func(i, j int) bool {
			return points[i].DayKey < points[j].DayKey
		})
		return points
	}

	today := startOfDay(now)
	points := make([]DayPoint, 0, w.Days)
	for i := w.Days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		key := dayKey(day)
		point := DayPoint{DayKey: key}
		if p, ok := byDay[key]; ok {
			point = *p
		}
		point.Label = day.Format(shortDayLabel)
		points = append(points, point)
	}
	return points
}
