package collect

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const maxPerFeed = 50

// FeedEntry represents a parsed feed entry.
type FeedEntry struct {
	Link          string
	Title         string
	PublishedDate string // RFC3339 in UTC or empty
	Description   string
}

// parseFeed fetches one feed and returns its title with up to maxPerFeed
// usable entries.
func parseFeed(ctx context.Context, parser *gofeed.Parser, feedURL string) (string, []FeedEntry, error) {
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return "", nil, err
	}

	var entries []FeedEntry
	for _, item := range feed.Items {
		if len(entries) >= maxPerFeed {
			break
		}
		if entry := parseItem(item); entry != nil {
			entries = append(entries, *entry)
		}
	}

	return strings.TrimSpace(feed.Title), entries, nil
}

func parseItem(item *gofeed.Item) *FeedEntry {
	link := item.Link
	if link == "" {
		link = item.GUID
	}
	if link == "" {
		return nil
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		return nil
	}

	var publishedDate string
	if item.PublishedParsed != nil {
		publishedDate = item.PublishedParsed.UTC().Format(time.RFC3339)
	} else if item.UpdatedParsed != nil {
		publishedDate = item.UpdatedParsed.UTC().Format(time.RFC3339)
	}

	description := item.Description
	if description == "" {
		description = item.Content
	}

	return &FeedEntry{
		Link:          link,
		Title:         title,
		PublishedDate: publishedDate,
		Description:   stripHTML(description),
	}
}

func stripHTML(text string) string {
	// Simple HTML tag removal
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := strings.NewReplacer(
		"&nbsp;", " ", "&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'",
	).Replace(result.String())

	return strings.Join(strings.Fields(s), " ")
}

// sourceName derives a display name from a feed URL's host.
func sourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	name := host
	if len(parts) >= 2 {
		name = parts[len(parts)-2]
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
