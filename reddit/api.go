package reddit

import (
	"context"
	"fmt"
	"log"
	"strings"

	"tilbot/types"

	"github.com/vartanbeno/go-reddit/v2/reddit"
)

// Credentials for a Reddit script app. Username and Password are optional;
// without them the read-only client is used.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

// APISource lists top posts through the Reddit API
type APISource struct {
	client *reddit.Client
	opts   Options
}

// NewAPISource builds an authenticated client when full credentials are given
// and a read-only one otherwise.
func NewAPISource(creds Credentials, opts Options) (*APISource, error) {
	opts = opts.withDefaults()

	var (
		client *reddit.Client
		err    error
	)
	if creds.ClientID != "" && creds.Username != "" {
		client, err = reddit.NewClient(reddit.Credentials{
			ID:       creds.ClientID,
			Secret:   creds.ClientSecret,
			Username: creds.Username,
			Password: creds.Password,
		}, reddit.WithUserAgent(opts.UserAgent))
	} else {
		client, err = reddit.NewReadonlyClient(reddit.WithUserAgent(opts.UserAgent))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create reddit client: %w", err)
	}
	return &APISource{client: client, opts: opts}, nil
}

// Fetch returns up to Limit top posts for the configured window
func (s *APISource) Fetch(ctx context.Context) ([]types.Post, error) {
	log.Printf("[reddit] Fetching top %d posts from r/%s (%s)", s.opts.Limit, s.opts.Subreddit, s.opts.TimeRange)

	posts, _, err := s.client.Subreddit.TopPosts(ctx, s.opts.Subreddit, &reddit.ListPostOptions{
		ListOptions: reddit.ListOptions{Limit: s.opts.Limit},
		Time:        s.opts.TimeRange,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top posts: %w", err)
	}

	out := make([]types.Post, 0, len(posts))
	for _, p := range posts {
		if post, ok := fromAPI(p, s.opts.Subreddit); ok {
			out = append(out, post)
		}
	}
	log.Printf("[reddit] Fetched %d posts", len(out))
	return out, nil
}

func fromAPI(p *reddit.Post, subreddit string) (types.Post, bool) {
	if p == nil {
		return types.Post{}, false
	}
	id := normalizeID(p.ID)
	title := strings.TrimSpace(p.Title)
	if id == "" || title == "" {
		return types.Post{}, false
	}

	post := types.Post{
		ID:        id,
		Title:     title,
		URL:       "https://www.reddit.com" + p.Permalink,
		Subreddit: subreddit,
		Score:     p.Score,
	}
	if p.SubredditName != "" {
		post.Subreddit = p.SubredditName
	}
	if p.Created != nil {
		post.CreatedAt = p.Created.Time
	}
	return post, true
}
