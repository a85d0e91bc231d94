// Package narration turns post titles into spoken audio with Amazon Polly.
package narration

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"tilbot/types"
	"tilbot/video"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
)

// ErrSynthesis wraps every failure to produce narration audio
var ErrSynthesis = errors.New("synthesis failed")

// SpeechAPI is the subset of the Polly client used here
type SpeechAPI interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// Options configures the voice
type Options struct {
	Region string
	Voice  string
	Rate   string
}

// Polly synthesizes MP3 narration
type Polly struct {
	client SpeechAPI
	prober video.Prober
	voice  pollytypes.VoiceId
	rate   string
}

// NewPolly loads the default AWS credential chain for opts.Region
func NewPolly(ctx context.Context, opts Options, prober video.Prober) (*Polly, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewWithClient(polly.NewFromConfig(awsCfg), opts, prober), nil
}

// NewWithClient wraps an existing Polly client
func NewWithClient(client SpeechAPI, opts Options, prober video.Prober) *Polly {
	voice := pollytypes.VoiceIdMatthew
	if opts.Voice != "" {
		voice = pollytypes.VoiceId(opts.Voice)
	}
	rate := opts.Rate
	if rate == "" {
		rate = "medium"
	}
	return &Polly{client: client, prober: prober, voice: voice, rate: rate}
}

// SSML wraps text in a speak/prosody envelope. The text is XML-escaped.
func SSML(text, rate string) string {
	var b strings.Builder
	b.WriteString("<speak><prosody rate='")
	b.WriteString(rate)
	b.WriteString("'>")
	xml.EscapeText(&b, []byte(text))
	b.WriteString("</prosody></speak>")
	return b.String()
}

// Synthesize writes the narration for text to path and measures its length.
// A partially written file is removed on failure.
func (p *Polly) Synthesize(ctx context.Context, postID, text, path string) (types.NarrationAsset, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return types.NarrationAsset{}, fmt.Errorf("%w: empty text for %s", ErrSynthesis, postID)
	}

	out, err := p.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Text:         aws.String(SSML(text, p.rate)),
		TextType:     pollytypes.TextTypeSsml,
		OutputFormat: pollytypes.OutputFormatMp3,
		VoiceId:      p.voice,
	})
	if err != nil {
		return types.NarrationAsset{}, fmt.Errorf("%w: %w", ErrSynthesis, err)
	}
	defer out.AudioStream.Close()

	if err := writeStream(path, out.AudioStream); err != nil {
		return types.NarrationAsset{}, fmt.Errorf("%w: %w", ErrSynthesis, err)
	}

	info, err := p.prober.Probe(ctx, path)
	if err != nil {
		os.Remove(path)
		return types.NarrationAsset{}, fmt.Errorf("%w: %w", ErrSynthesis, err)
	}

	log.Printf("[narration] 🎙️  %s: %s of audio (%s)", postID, info.Duration, p.voice)
	return types.NarrationAsset{PostID: postID, Path: path, Duration: info.Duration}, nil
}

func writeStream(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n == 0 {
		err = errors.New("empty audio stream")
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
