package video

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Prober inspects media files
type Prober interface {
	Probe(ctx context.Context, path string) (MediaInfo, error)
}

// FFProbe shells out to ffprobe through ffmpeg-go
type FFProbe struct{}

func (FFProbe) Probe(ctx context.Context, path string) (MediaInfo, error) {
	if err := ctx.Err(); err != nil {
		return MediaInfo{}, err
	}
	out, err := ffmpeg.Probe(path)
	if err != nil {
		return MediaInfo{}, fmt.Errorf("%w: %s: %v", ErrProbe, path, err)
	}
	info, err := parseProbe([]byte(out))
	if err != nil {
		return MediaInfo{}, fmt.Errorf("%w: %s: %v", ErrProbe, path, err)
	}
	return info, nil
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Duration  string `json:"duration"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

func parseProbe(data []byte) (MediaInfo, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return MediaInfo{}, fmt.Errorf("invalid ffprobe output: %w", err)
	}

	var info MediaInfo
	streamDuration := ""
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if !info.HasVideo {
				info.Width, info.Height = s.Width, s.Height
			}
			info.HasVideo = true
		case "audio":
			info.HasAudio = true
		}
		if streamDuration == "" && s.Duration != "" {
			streamDuration = s.Duration
		}
	}

	raw := out.Format.Duration
	if raw == "" || raw == "N/A" {
		raw = streamDuration
	}
	d, err := parseSeconds(raw)
	if err != nil {
		return MediaInfo{}, err
	}
	info.Duration = d
	return info, nil
}

// parseSeconds converts ffprobe's decimal seconds ("12.345000") to a Duration
// without going through float64.
func parseSeconds(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return 0, fmt.Errorf("no duration reported")
	}
	d, err := time.ParseDuration(s + "s")
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}
