package video

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"tilbot/config"
	"tilbot/types"
)

// MixFilter delays the narration by NarrationDelay on both channels and mixes
// it over the composite's own audio, keeping the composite's length.
var MixFilter = fmt.Sprintf("[1:a]adelay=%[1]d|%[1]d[a1];[0:a][a1]amix=inputs=2:duration=first[a]",
	config.NarrationDelay.Milliseconds())

// MuxArgs is the exact ffmpeg argument list for mixing narration into a composite
func MuxArgs(compositePath, narrationPath, outputPath string) []string {
	return []string{
		"-i", compositePath,
		"-i", narrationPath,
		"-filter_complex", MixFilter,
		"-map", "0:v",
		"-map", "[a]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-strict", "experimental",
		outputPath,
	}
}

// Muxer produces the final video from a composite and its narration
type Muxer struct {
	ffmpegPath string
	runner     Runner
}

func NewMuxer(ffmpegPath string, runner Runner) *Muxer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Muxer{ffmpegPath: ffmpegPath, runner: runner}
}

// Mux writes outputPath. The video stream is copied untouched, so the final
// duration equals the composite's.
func (m *Muxer) Mux(ctx context.Context, composite types.CompositeVideo, narration types.NarrationAsset, outputPath string) (types.FinalVideo, error) {
	for _, in := range []string{composite.Path, narration.Path} {
		if _, err := os.Stat(in); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return types.FinalVideo{}, fmt.Errorf("%w: %s", ErrMissingResource, in)
			}
			return types.FinalVideo{}, fmt.Errorf("%w: %w", ErrMux, err)
		}
	}

	// The argument list carries no overwrite flag, so a stale output would stall ffmpeg
	if err := os.Remove(outputPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return types.FinalVideo{}, fmt.Errorf("%w: failed to clear stale output: %w", ErrMux, err)
	}

	log.Printf("[video] 🔊 Mixing narration into %s (delay %dms)", composite.PostID, config.NarrationDelay.Milliseconds())
	if err := m.runner.Run(ctx, m.ffmpegPath, MuxArgs(composite.Path, narration.Path, outputPath)); err != nil {
		return types.FinalVideo{}, fmt.Errorf("%w: %w", ErrMux, err)
	}

	return types.FinalVideo{
		PostID:   composite.PostID,
		Path:     outputPath,
		Duration: composite.Duration,
	}, nil
}
