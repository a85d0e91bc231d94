package types

import "time"

// Post is a candidate fetched from the source. Immutable once fetched.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url,omitempty"`
	Subreddit string    `json:"subreddit,omitempty"`
	Score     int       `json:"score,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NarrationAsset is the synthesized speech for one post
type NarrationAsset struct {
	PostID   string        `json:"post_id"`
	Path     string        `json:"path"`
	Duration time.Duration `json:"duration"`
}

// CompositeVideo is the captioned background clip before the narration is mixed in
type CompositeVideo struct {
	PostID   string        `json:"post_id"`
	Path     string        `json:"path"`
	Duration time.Duration `json:"duration"`
}

// FinalVideo is the uploadable artifact
type FinalVideo struct {
	PostID   string        `json:"post_id"`
	Path     string        `json:"path"`
	Duration time.Duration `json:"duration"`
}

// VideoMetadata is what the publish target receives alongside the file
type VideoMetadata struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	CategoryID    string   `json:"category_id"`
	PrivacyStatus string   `json:"privacy_status"`
	MadeForKids   bool     `json:"made_for_kids"`
}

// PublishResult identifies an uploaded video
type PublishResult struct {
	PostID      string    `json:"post_id"`
	VideoID     string    `json:"video_id"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}
