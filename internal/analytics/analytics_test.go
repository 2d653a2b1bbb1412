package analytics

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"
)

// fixedNow is the clock every test in this package runs against.
var fixedNow = time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)

func ptr(s string) *string { return &s }

func score(f float64) *float64 { return &f }

func cluster(id int64) *int64 { return &id }

// daysAgo returns an RFC3339 timestamp at noon, n days before fixedNow.
func daysAgo(n int) string {
	return time.Date(2026, 2, 10-n, 12, 0, 0, 0, time.UTC).Format(time.RFC3339)
}

func article(id int64, date string, read bool) Article {
	return Article{ID: id, SourceID: 1, PublishedDate: date, IsRead: read, Link: fmt.Sprintf("https://example.com/%d", id)}
}

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		in   string
		want TimeRange
	}{
		{"7", Range7},
		{"30", Range30},
		{" 90 ", Range90},
		{"all", RangeAll},
		{"ALL", RangeAll},
	}
	for _, tt := range tests {
		got, err := ParseTimeRange(tt.in)
		if err != nil {
			t.Errorf("ParseTimeRange(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTimeRange(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}

	for _, bad := range []string{"", "14", "week", "-7"} {
		if _, err := ParseTimeRange(bad); err == nil {
			t.Errorf("ParseTimeRange(%q): expected error", bad)
		}
	}
}

func TestTimeRangeText(t *testing.T) {
	text, _ := Range30.MarshalText()
	if string(text) != "30" {
		t.Errorf("expected '30', got %q", text)
	}
	text, _ = RangeAll.MarshalText()
	if string(text) != "all" {
		t.Errorf("expected 'all', got %q", text)
	}

	var r TimeRange
	if err := r.UnmarshalText([]byte("90")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != Range90 {
		t.Errorf("expected 90, got %v", r)
	}
}

func TestResolveWindow(t *testing.T) {
	w := ResolveWindow(Range7, fixedNow)
	if !w.Bounded() {
		t.Fatal("expected bounded window")
	}
	if w.Days != 7 {
		t.Errorf("expected 7 days, got %d", w.Days)
	}
	want := time.Date(2026, 2, 4, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	if !w.Cutoff.Equal(want) {
		t.Errorf("expected cutoff %v, got %v", want, *w.Cutoff)
	}

	all := ResolveWindow(RangeAll, fixedNow)
	if all.Bounded() || all.Days != 0 {
		t.Errorf("expected unbounded window, got %+v", all)
	}
}

func TestWindowJSON(t *testing.T) {
	data, err := json.Marshal(ResolveWindow(RangeAll, fixedNow))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"lengthInDays":null,"cutoffDate":null}` {
		t.Errorf("expected null length and cutoff, got %s", data)
	}

	data, err = json.Marshal(ResolveWindow(Range7, fixedNow))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(string(data), `{"lengthInDays":7,"cutoffDate":"2026-02-04T23:59:59.999Z"`) {
		t.Errorf("unexpected bounded window JSON %s", data)
	}
}

func TestFilterExcludesEarlierFirstDay(t *testing.T) {
	articles := []Article{
		{ID: 1, PublishedDate: "2026-02-04T10:00:00Z"},
		{ID: 2, PublishedDate: "2026-02-05T00:00:00Z"},
	}
	w := ResolveWindow(Range7, fixedNow)
	filtered := FilterArticles(articles, w, time.UTC)
	if len(filtered) != 1 || filtered[0].ID != 2 {
		t.Errorf("expected only article 2 inside the window, got %+v", filtered)
	}

	snap := Compute(Input{Articles: articles[:1], Range: Range7, Now: fixedNow})
	if snap.Engagement.Total != 0 {
		t.Errorf("expected first-day article to be excluded from totals, got %d", snap.Engagement.Total)
	}
}

func TestFilterArticles(t *testing.T) {
	articles := []Article{
		{ID: 1, PublishedDate: "2026-02-04T00:30:00Z"},
		{ID: 2, PublishedDate: "2026-02-03T23:59:00Z"},
		{ID: 3},
		{ID: 4, PublishedDate: "not a date", CollectedAt: "2026-02-09T10:00:00Z"},
		{ID: 5, PublishedDate: "not a date"},
		{ID: 6, PublishedDate: "2026-02-10"},
		{ID: 7, PublishedDate: "2026-02-05T00:00:00Z"},
	}

	w := ResolveWindow(Range7, fixedNow)
	filtered := FilterArticles(articles, w, time.UTC)

	var ids []int64
	for _, a := range filtered {
		ids = append(ids, a.ID)
	}
	want := []int64{4, 6, 7}
	if fmt.Sprint(ids) != fmt.Sprint(want) {
		t.Errorf("expected ids %v, got %v", want, ids)
	}

	all := FilterArticles(articles, ResolveWindow(RangeAll, fixedNow), time.UTC)
	if len(all) != len(articles) {
		t.Errorf("expected unbounded window to keep all %d articles, got %d", len(articles), len(all))
	}
}

func TestEffectiveDateFallsBackToCollectedAt(t *testing.T) {
	a := Article{CollectedAt: "2026-02-01 08:00:00"}
	d, ok := a.EffectiveDate(time.UTC)
	if !ok {
		t.Fatal("expected ingestion date to be used")
	}
	if d.Format(DayKeyLayout) != "2026-02-01" {
		t.Errorf("expected 2026-02-01, got %s", d.Format(DayKeyLayout))
	}

	a = Article{PublishedDate: "2026-01-15T09:00:00Z", CollectedAt: "2026-02-01 08:00:00"}
	d, _ = a.EffectiveDate(time.UTC)
	if d.Format(DayKeyLayout) != "2026-01-15" {
		t.Errorf("expected publication date to win, got %s", d.Format(DayKeyLayout))
	}

	if _, ok := (Article{}).EffectiveDate(time.UTC); ok {
		t.Error("expected no date for empty article")
	}
}
