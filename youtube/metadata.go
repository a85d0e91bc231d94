package youtube

import (
	"fmt"
	"time"
	"unicode/utf8"

	"tilbot/config"
	"tilbot/keywords"
	"tilbot/types"
)

// MaxDescriptionLength is YouTube's limit on descriptions, in bytes
const MaxDescriptionLength = 5000

// maxTagsLength caps the combined tag text YouTube accepts
const maxTagsLength = 500

// Title renders "Today I Learnt - January 02, 2006 - <seq>"
func Title(day time.Time, seq int) string {
	return fmt.Sprintf("%s - %s - %d", config.TitlePrefix, day.Format("January 02, 2006"), seq)
}

// BuildMetadata assembles the upload metadata for post. seq is the 1-based
// position of this video within the run.
func BuildMetadata(post types.Post, seq int, day time.Time) types.VideoMetadata {
	description := post.Title
	if len(description) > MaxDescriptionLength {
		description = truncateUTF8(description, MaxDescriptionLength)
	}

	return types.VideoMetadata{
		Title:         Title(day, seq),
		Description:   description,
		Tags:          Tags(post.Title),
		CategoryID:    config.YouTubeCategoryID,
		PrivacyStatus: config.YouTubePrivacyStatus,
		MadeForKids:   false,
	}
}

// Tags is the fixed tag set followed by the title's keywords, without repeats
func Tags(title string) []string {
	seen := make(map[string]struct{})
	tags := make([]string, 0, len(config.BaseTags)+8)
	total := 0
	add := func(tag string) {
		if _, dup := seen[tag]; dup {
			return
		}
		if total+len(tag) > maxTagsLength {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		total += len(tag)
	}
	for _, t := range config.BaseTags {
		add(t)
	}
	for _, k := range keywords.Extract(title) {
		add(k)
	}
	return tags
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
