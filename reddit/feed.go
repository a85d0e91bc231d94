package reddit

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tilbot/types"

	"github.com/mmcdole/gofeed"
)

// FeedSource reads the public top-posts Atom feed. It needs no credentials.
type FeedSource struct {
	parser  *gofeed.Parser
	feedURL string
	opts    Options
}

// FeedURL is the public top-of-window feed for a subreddit
func FeedURL(opts Options) string {
	opts = opts.withDefaults()
	q := url.Values{}
	q.Set("t", opts.TimeRange)
	q.Set("limit", fmt.Sprint(opts.Limit))
	return fmt.Sprintf("https://www.reddit.com/r/%s/top/.rss?%s", url.PathEscape(opts.Subreddit), q.Encode())
}

// NewFeedSource reads feedURL, or the default feed for opts when empty
func NewFeedSource(feedURL string, opts Options) *FeedSource {
	opts = opts.withDefaults()
	if feedURL == "" {
		feedURL = FeedURL(opts)
	}
	parser := gofeed.NewParser()
	parser.UserAgent = opts.UserAgent
	parser.Client = &http.Client{Timeout: 15 * time.Second}
	return &FeedSource{parser: parser, feedURL: feedURL, opts: opts}
}

// Fetch parses the feed and maps entries to posts
func (s *FeedSource) Fetch(ctx context.Context) ([]types.Post, error) {
	log.Printf("[reddit] Fetching feed %s", s.feedURL)

	feed, err := s.parser.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	count := min(len(feed.Items), s.opts.Limit)
	posts := make([]types.Post, 0, count)
	for _, item := range feed.Items[:count] {
		id := normalizeID(item.GUID)
		title := strings.TrimSpace(item.Title)
		if id == "" || title == "" {
			continue
		}

		var createdAt time.Time
		if item.PublishedParsed != nil {
			createdAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			createdAt = *item.UpdatedParsed
		}

		posts = append(posts, types.Post{
			ID:        id,
			Title:     title,
			URL:       item.Link,
			Subreddit: s.opts.Subreddit,
			CreatedAt: createdAt,
		})
	}

	log.Printf("[reddit] Fetched %d posts from feed", len(posts))
	return posts, nil
}
