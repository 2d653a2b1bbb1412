package analytics

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DayKeyLayout is the stable calendar-day key format.
const DayKeyLayout = "2006-01-02"

// TimeRange is a retrospective window length in days. RangeAll is unbounded.
type TimeRange int

const (
	RangeAll TimeRange = 0
	Range7   TimeRange = 7
	Range30  TimeRange = 30
	Range90  TimeRange = 90
)

// ParseTimeRange parses one of "7", "30", "90" or "all".
func ParseTimeRange(s string) (TimeRange, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "all" {
		return RangeAll, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid time range %q (valid: 7, 30, 90, all)", s)
	}
	switch r := TimeRange(n); r {
	case Range7, Range30, Range90:
		return r, nil
	}
	return 0, fmt.Errorf("invalid time range %q (valid: 7, 30, 90, all)", s)
}

func (r TimeRange) String() string {
	if r == RangeAll {
		return "all"
	}
	return strconv.Itoa(int(r))
}

// MarshalText encodes the range as its token.
func (r TimeRange) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses a range token.
func (r *TimeRange) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeRange(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Window is a resolved time range. Cutoff is nil for the unbounded window.
type Window struct {
	Days   int        `json:"lengthInDays"`
	Cutoff *time.Time `json:"cutoffDate"`
}

// Bounded reports whether the window has a lower bound.
func (w Window) Bounded() bool {
	return w.Cutoff != nil
}

// MarshalJSON reports lengthInDays as null for the unbounded window.
func (w Window) MarshalJSON() ([]byte, error) {
	var days *int
	if w.Bounded() {
		n := w.Days
		days = &n
	}
	return json.Marshal(struct {
		Days   *int       `json:"lengthInDays"`
		Cutoff *time.Time `json:"cutoffDate"`
	}{days, w.Cutoff})
}

// ResolveWindow maps a time range to an N-day window ending today. The cutoff
// is the end of today moved back N-1 days, so articles from earlier on the
// first calendar day fall outside the window.
func ResolveWindow(r TimeRange, now time.Time) Window {
	if r == RangeAll || r < 0 {
		return Window{}
	}
	n := int(r)
	cutoff := endOfDay(now).AddDate(0, 0, -(n - 1))
	return Window{Days: n, Cutoff: &cutoff}
}

// FilterArticles keeps the articles whose effective date falls inside the
// window, preserving order. Undated articles are dropped from bounded windows.
func FilterArticles(articles []Article, w Window, loc *time.Location) []Article {
	filtered := make([]Article, 0, len(articles))
	for _, a := range articles {
		if !w.Bounded() {
			filtered = append(filtered, a)
			continue
		}
		d, ok := a.EffectiveDate(loc)
		if ok && !d.Before(*w.Cutoff) {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

func parseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t.In(loc), true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// endOfDay returns the last millisecond of t's calendar day.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

func dayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// daysBetween counts calendar days from a to b given two day keys.
func daysBetween(a, b string) (int, bool) {
	ta, err := time.Parse(DayKeyLayout, a)
	if err != nil {
		return 0, false
	}
	tb, err := time.Parse(DayKeyLayout, b)
	if err != nil {
		return 0, false
	}
	return int(tb.Sub(ta).Hours() / 24), true
}
