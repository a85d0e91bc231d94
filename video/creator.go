package video

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tilbot/config"
	"tilbot/types"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// silentAudio is the lavfi source used when a background clip has no audio track
const silentAudio = "anullsrc=channel_layout=stereo:sample_rate=44100"

// Compositor renders the captioned background clip for one post
type Compositor struct {
	ffmpegPath string
	fps        int
	style      CaptionStyle
	prober     Prober
	runner     Runner
}

// NewCompositor returns a compositor that encodes with the ffmpeg binary at ffmpegPath
func NewCompositor(ffmpegPath string, fps int, prober Prober, runner Runner) *Compositor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if fps <= 0 {
		fps = config.VideoFPS
	}
	return &Compositor{
		ffmpegPath: ffmpegPath,
		fps:        fps,
		style:      DefaultCaptionStyle(),
		prober:     prober,
		runner:     runner,
	}
}

// Compose loops the background under the caption for exactly narration + margin
// and writes the result to req.OutputPath.
func (c *Compositor) Compose(ctx context.Context, req ComposeRequest) (types.CompositeVideo, error) {
	if _, err := os.Stat(req.Background); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.CompositeVideo{}, fmt.Errorf("%w: background %s", ErrMissingResource, req.Background)
		}
		return types.CompositeVideo{}, fmt.Errorf("failed to stat background: %w", err)
	}
	if req.Narration.Duration < 0 {
		return types.CompositeVideo{}, fmt.Errorf("%w: narration for %s has negative duration", ErrEncode, req.Narration.PostID)
	}

	bg, err := c.prober.Probe(ctx, req.Background)
	if err != nil {
		return types.CompositeVideo{}, fmt.Errorf("failed to probe background: %w", err)
	}
	if !bg.HasVideo {
		return types.CompositeVideo{}, fmt.Errorf("%w: %s has no video stream", ErrMissingResource, req.Background)
	}

	target := CaptionDuration(req.Narration.Duration)
	if err := WriteCaption(req.CaptionPath, req.Caption, target, c.style); err != nil {
		return types.CompositeVideo{}, fmt.Errorf("%w: failed to write caption: %w", ErrEncode, err)
	}

	args := composeArgs(req.Background, req.CaptionPath, req.OutputPath, target, c.fps, bg.HasAudio)
	log.Printf("[video] 🎬 Compositing %s (%s, background %s)", req.Narration.PostID, target, filepath.Base(req.Background))
	if err := c.runner.Run(ctx, c.ffmpegPath, args); err != nil {
		return types.CompositeVideo{}, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	return types.CompositeVideo{
		PostID:   req.Narration.PostID,
		Path:     req.OutputPath,
		Duration: target,
	}, nil
}

// composeArgs builds the ffmpeg argument list for the composite encode
func composeArgs(background, captionPath, outputPath string, target time.Duration, fps int, backgroundHasAudio bool) []string {
	bg := ffmpeg.Input(background, ffmpeg.KwArgs{"stream_loop": "-1"})

	// Fill the 9:16 frame, then centre-crop the overflow
	video := bg.Video().
		Filter("scale", ffmpeg.Args{strconv.Itoa(config.VideoWidth), strconv.Itoa(config.VideoHeight)},
			ffmpeg.KwArgs{"force_original_aspect_ratio": "increase"}).
		Filter("crop", ffmpeg.Args{strconv.Itoa(config.VideoWidth), strconv.Itoa(config.VideoHeight)}).
		Filter("setsar", ffmpeg.Args{"1"}).
		Filter("ass", ffmpeg.Args{escapeFilterPath(captionPath)})

	// The muxer mixes narration into [0:a], so the composite always carries audio
	var audio *ffmpeg.Stream
	if backgroundHasAudio {
		audio = bg.Audio()
	} else {
		audio = ffmpeg.Input(silentAudio, ffmpeg.KwArgs{"f": "lavfi"}).Audio()
	}

	return ffmpeg.Output([]*ffmpeg.Stream{video, audio}, outputPath, ffmpeg.KwArgs{
		"t":       formatSeconds(target),
		"r":       strconv.Itoa(fps),
		"c:v":     config.VideoCodec,
		"preset":  config.VideoPreset,
		"pix_fmt": "yuv420p",
		"c:a":     config.AudioCodec,
	}).OverWriteOutput().GetArgs()
}

// escapeFilterPath escapes a path for use as a filter option value. ffmpeg-go
// only applies the filtergraph-level escaping on top of this.
func escapeFilterPath(path string) string {
	path = filepath.ToSlash(path)
	path = strings.ReplaceAll(path, `\`, `\\`)
	path = strings.ReplaceAll(path, "'", `\'`)
	return strings.ReplaceAll(path, ":", `\:`)
}

// formatSeconds renders d as decimal seconds with millisecond precision
func formatSeconds(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%d.%03d", ms/1000, ms%1000)
}
