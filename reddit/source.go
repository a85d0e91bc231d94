// Package reddit fetches the day's top posts that become video candidates.
package reddit

import (
	"context"
	"strings"

	"tilbot/types"
)

// Source fetches candidate posts, best first
type Source interface {
	Fetch(ctx context.Context) ([]types.Post, error)
}

// Options selects which posts a source returns
type Options struct {
	Subreddit string
	TimeRange string
	Limit     int
	UserAgent string
}

func (o Options) withDefaults() Options {
	if o.Subreddit == "" {
		o.Subreddit = "todayilearned"
	}
	if o.TimeRange == "" {
		o.TimeRange = "day"
	}
	if o.Limit <= 0 {
		o.Limit = 30
	}
	if o.UserAgent == "" {
		o.UserAgent = "tilbot/1.0"
	}
	return o
}

// normalizeID strips the "t3_" kind prefix Reddit puts on link fullnames
func normalizeID(id string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), "t3_")
}
