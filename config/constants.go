package config

import "time"

// Run Constants
const (
	// MaxVideosPerRun caps the number of successfully published videos per run
	MaxVideosPerRun = 10

	// CandidatePoolSize is the number of posts requested from the source
	CandidatePoolSize = 30

	// Subreddit is the community posts are fetched from
	Subreddit = "todayilearned"

	// TimeWindow restricts the source to the day's top posts
	TimeWindow = "day"
)

// Narration Constants
const (
	// NarrationVoice is the Polly voice used for every post
	NarrationVoice = "Matthew"

	// NarrationRate is the SSML prosody rate
	NarrationRate = "medium"

	// NarrationRegion is the AWS region Polly is called in
	NarrationRegion = "eu-west-2"
)

// Video Output Constants
const (
	// VideoWidth is the output video width (9:16 aspect ratio)
	VideoWidth = 1080

	// VideoHeight is the output video height (9:16 aspect ratio)
	VideoHeight = 1920

	// VideoFPS is the composite frame rate
	VideoFPS = 24

	// VideoCodec is the video encoding codec
	VideoCodec = "libx264"

	// VideoPreset is the ffmpeg encoding speed preset
	VideoPreset = "fast"

	// AudioCodec is the audio encoding codec
	AudioCodec = "aac"

	// DurationMargin is added to the narration length to get the video length
	DurationMargin = 4 * time.Second

	// NarrationDelay is how far into the video the narration starts
	NarrationDelay = 2000 * time.Millisecond
)

// Caption Constants
const (
	// CaptionFont is the caption typeface
	CaptionFont = "Futura"

	// CaptionFontSize is the caption size in points
	CaptionFontSize = 30

	// CaptionBoxWidth and CaptionBoxHeight bound the caption text area
	CaptionBoxWidth  = 700
	CaptionBoxHeight = 1454

	// CaptionMarginX is the horizontal margin inside the caption box
	CaptionMarginX = 50

	// CaptionOutline is the black stroke width around the white caption
	CaptionOutline = 2
)

// File Constants
const (
	// LedgerFile records processed post IDs, one per line
	LedgerFile = "processed_posts.txt"

	// TokenFile caches the OAuth token between runs
	TokenFile = "token.json"

	// CredentialsFile holds the OAuth client secrets
	CredentialsFile = "credentials.json"

	// WorkDir is where per-post media files are written
	WorkDir = "output"

	// BackgroundsDir is the directory containing background videos
	BackgroundsDir = "backgroundvids"
)

// YouTube Constants
const (
	// YouTubeCategoryID for People & Blogs
	YouTubeCategoryID = "22"

	// YouTubePrivacyStatus sets video visibility
	YouTubePrivacyStatus = "public"

	// TitlePrefix starts every generated title
	TitlePrefix = "Today I Learnt"
)

// BaseTags are attached to every upload before the post keywords
var BaseTags = []string{"shorts", "today i learned", "interesting", "fact", "short facts"}

// DefaultBackgrounds is the rotation used when no list is configured
var DefaultBackgrounds = []string{
	"background_1.mp4",
	"background_2.mp4",
	"background_3.mp4",
	"background_4.mp4",
	"background_5.mp4",
}
