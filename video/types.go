package video

import (
	"errors"
	"time"

	"tilbot/config"
	"tilbot/types"
)

var (
	// ErrMissingResource is returned when an input file such as a background clip is absent
	ErrMissingResource = errors.New("missing resource")

	// ErrEncode is returned when the composite encode fails
	ErrEncode = errors.New("encode failed")

	// ErrMux is returned when mixing narration into the composite fails
	ErrMux = errors.New("mux failed")

	// ErrProbe is returned when a media file cannot be inspected
	ErrProbe = errors.New("probe failed")
)

// MediaInfo is what the pipeline needs to know about a media file
type MediaInfo struct {
	Duration time.Duration
	HasVideo bool
	HasAudio bool
	Width    int
	Height   int
}

// ComposeRequest describes one composite encode
type ComposeRequest struct {
	Caption     string
	Background  string
	Narration   types.NarrationAsset
	CaptionPath string
	OutputPath  string
}

// CaptionDuration is how long the captioned video runs for a narration of d:
// the narration plus the fixed tail margin.
func CaptionDuration(d time.Duration) time.Duration {
	return d + config.DurationMargin
}
