// Package pipeline runs the fetch, narrate, render, publish and record loop.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tilbot/config"
	"tilbot/events"
	"tilbot/ledger"
	"tilbot/narration"
	"tilbot/types"
	"tilbot/video"
	"tilbot/workspace"
	"tilbot/youtube"

	"github.com/google/uuid"
)

// ErrRunInProgress is returned when Run is called while another run is active
var ErrRunInProgress = errors.New("a run is already in progress")

// Source fetches candidate posts
type Source interface {
	Fetch(ctx context.Context) ([]types.Post, error)
}

// Synthesizer turns text into a narration file at path
type Synthesizer interface {
	Synthesize(ctx context.Context, postID, text, path string) (types.NarrationAsset, error)
}

// Compositor renders the captioned background clip
type Compositor interface {
	Compose(ctx context.Context, req video.ComposeRequest) (types.CompositeVideo, error)
}

// Muxer mixes narration into the composite
type Muxer interface {
	Mux(ctx context.Context, composite types.CompositeVideo, narration types.NarrationAsset, outputPath string) (types.FinalVideo, error)
}

// Publisher uploads a finished video
type Publisher interface {
	Upload(ctx context.Context, videoPath string, metadata types.VideoMetadata) (types.PublishResult, error)
}

// Ledger remembers which posts have been published
type Ledger interface {
	Load(ctx context.Context) (ledger.Set, error)
	Record(ctx context.Context, id string) error
}

// Archiver copies a published video somewhere durable
type Archiver interface {
	Archive(ctx context.Context, post types.Post, final types.FinalVideo, meta types.VideoMetadata, res types.PublishResult) error
}

// Notifier announces published videos
type Notifier interface {
	VideoPublished(ctx context.Context, ev events.VideoPublished) error
}

// Deps are the collaborators of a Runner. Publisher, Archiver and Notifier are
// optional; without a Publisher videos are rendered but neither uploaded nor recorded.
type Deps struct {
	Source      Source
	Synthesizer Synthesizer
	Compositor  Compositor
	Muxer       Muxer
	Publisher   Publisher
	Ledger      Ledger
	Workspace   *workspace.Workspace
	Archiver    Archiver
	Notifier    Notifier
}

// Options tune a run
type Options struct {
	Backgrounds     []string
	MaxVideosPerRun int
	// CategoryID and PrivacyStatus override the metadata defaults when set
	CategoryID    string
	PrivacyStatus string
	Now           func() time.Time
}

// Runner executes pipeline runs one at a time
type Runner struct {
	deps  Deps
	opts  Options
	state *State

	running chan struct{}
}

// NewRunner validates deps and returns a Runner reporting into state
func NewRunner(deps Deps, opts Options, state *State) (*Runner, error) {
	switch {
	case deps.Source == nil:
		return nil, errors.New("pipeline: source is required")
	case deps.Synthesizer == nil:
		return nil, errors.New("pipeline: synthesizer is required")
	case deps.Compositor == nil:
		return nil, errors.New("pipeline: compositor is required")
	case deps.Muxer == nil:
		return nil, errors.New("pipeline: muxer is required")
	case deps.Ledger == nil:
		return nil, errors.New("pipeline: ledger is required")
	case deps.Workspace == nil:
		return nil, errors.New("pipeline: workspace is required")
	}
	if len(opts.Backgrounds) == 0 {
		return nil, errors.New("pipeline: at least one background video is required")
	}
	if opts.MaxVideosPerRun <= 0 {
		opts.MaxVideosPerRun = config.MaxVideosPerRun
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if state == nil {
		state = NewState(50)
	}

	return &Runner{
		deps:    deps,
		opts:    opts,
		state:   state,
		running: make(chan struct{}, 1),
	}, nil
}

// State returns the live status the runner reports into
func (r *Runner) State() *State {
	return r.state
}

// Run fetches candidates and processes them in order until MaxVideosPerRun
// posts succeed or the candidates run out. Per-post failures are logged and
// reported, never returned. The returned error covers failures that stop the
// whole run: the ledger or source being unreadable, cancellation, or a panic.
func (r *Runner) Run(ctx context.Context) (types.RunReport, error) {
	if !r.acquire() {
		return types.RunReport{}, ErrRunInProgress
	}
	defer r.release()
	return r.run(ctx)
}

// Go starts a run in the background and calls done with its result. It returns
// ErrRunInProgress without starting anything when a run is already active.
func (r *Runner) Go(ctx context.Context, done func(types.RunReport, error)) error {
	if !r.acquire() {
		return ErrRunInProgress
	}
	go func() {
		report, err := r.run(ctx)
		r.release()
		if done != nil {
			done(report, err)
		}
	}()
	return nil
}

func (r *Runner) acquire() bool {
	select {
	case r.running <- struct{}{}:
		return true
	default:
		return false
	}
}

func (r *Runner) release() {
	<-r.running
}

func (r *Runner) run(ctx context.Context) (report types.RunReport, err error) {
	report = types.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: r.opts.Now(),
		Outcomes:  []types.PostOutcome{},
	}
	r.state.Begin(report.RunID)
	log.Printf("[pipeline] 🚀 Run %s started", report.RunID)

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("run %s panicked: %v", report.RunID, p)
		}
		report.FinishedAt = r.opts.Now()
		if err != nil {
			report.Error = err.Error()
			r.state.SetError(err, &report)
			log.Printf("[pipeline] ❌ Run %s stopped: %v", report.RunID, err)
			return
		}
		r.state.Finish(report)
		log.Printf("[pipeline] ✅ Run %s complete: %d published, %d failed, %d skipped",
			report.RunID, report.Succeeded, report.Failed, report.Skipped)
	}()

	seen, err := r.deps.Ledger.Load(ctx)
	if err != nil {
		return report, fmt.Errorf("load ledger: %w", err)
	}
	r.state.AddLog("Ledger holds %d published post(s)", len(seen))

	r.state.AddLog("Fetching candidate posts...")
	posts, err := r.deps.Source.Fetch(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch posts: %w", err)
	}
	report.Fetched = len(posts)
	if len(posts) == 0 {
		log.Printf("[pipeline] No suitable posts found")
		r.state.AddLog("No suitable posts found")
		return report, nil
	}
	r.state.AddLog("Fetched %d candidate post(s)", len(posts))

	// The date in titles is fixed once so every video in a run shares it.
	day := r.opts.Now()
	videoCount := 0

	for _, post := range posts {
		if videoCount >= r.opts.MaxVideosPerRun {
			log.Printf("[pipeline] Reached %d videos for this run", r.opts.MaxVideosPerRun)
			break
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if seen.Has(post.ID) {
			log.Printf("[pipeline] ⏭️  Skipping %s, already published", post.ID)
			report.Skipped++
			continue
		}

		outcome := r.processPost(ctx, report.RunID, post, videoCount, day)
		report.Outcomes = append(report.Outcomes, outcome)
		if outcome.Status == types.OutcomeFailed {
			report.Failed++
			r.state.AddLog("%s failed at %s: %s", post.ID, outcome.Stage, outcome.Error)
			continue
		}

		videoCount++
		report.Succeeded++
		// Guards against the same ID appearing twice in one candidate list.
		seen[post.ID] = struct{}{}
		r.state.AddLog("%s %s (%d/%d)", post.ID, outcome.Status, videoCount, r.opts.MaxVideosPerRun)
	}

	return report, nil
}

// background picks the clip for the post that would become video number videoCount+1
func (r *Runner) background(videoCount int) string {
	return r.opts.Backgrounds[videoCount%len(r.opts.Backgrounds)]
}

// processPost runs one post through every stage. Intermediates are released on
// every exit path, including a panic inside a stage.
func (r *Runner) processPost(ctx context.Context, runID string, post types.Post, videoCount int, day time.Time) (outcome types.PostOutcome) {
	outcome = types.PostOutcome{PostID: post.ID, Title: post.Title, Status: types.OutcomeFailed}
	stage := types.StagePrepare

	fail := func(err error) types.PostOutcome {
		outcome.Status = types.OutcomeFailed
		outcome.Stage = stage
		outcome.Error = err.Error()
		log.Printf("[pipeline] ❌ %s failed at %s (%s): %v", post.ID, stage, classify(err), err)
		return outcome
	}

	scope, err := r.deps.Workspace.Scope(post.ID)
	if err != nil {
		return fail(err)
	}
	defer scope.Release()
	defer func() {
		if p := recover(); p != nil {
			outcome = fail(fmt.Errorf("panic: %v", p))
		}
	}()

	log.Printf("[pipeline] 🎬 Processing %s: %q", post.ID, post.Title)

	stage = types.StageSynthesize
	r.state.SetStage(post.ID, stage)
	narr, err := r.deps.Synthesizer.Synthesize(ctx, post.ID, post.Title, scope.AudioPath())
	if err != nil {
		return fail(err)
	}

	stage = types.StageComposite
	r.state.SetStage(post.ID, stage)
	composite, err := r.deps.Compositor.Compose(ctx, video.ComposeRequest{
		Caption:     post.Title,
		Background:  r.background(videoCount),
		Narration:   narr,
		CaptionPath: scope.CaptionPath(),
		OutputPath:  scope.TempVideoPath(),
	})
	if err != nil {
		return fail(err)
	}

	stage = types.StageMux
	r.state.SetStage(post.ID, stage)
	final, err := r.deps.Muxer.Mux(ctx, composite, narr, scope.FinalPath())
	if err != nil {
		return fail(err)
	}
	scope.Commit()

	if r.deps.Publisher == nil {
		log.Printf("[pipeline] 📦 %s rendered to %s (publishing disabled)", post.ID, final.Path)
		outcome.Status = types.OutcomeProduced
		return outcome
	}

	stage = types.StagePublish
	r.state.SetStage(post.ID, stage)
	meta := youtube.BuildMetadata(post, videoCount+1, day)
	if r.opts.CategoryID != "" {
		meta.CategoryID = r.opts.CategoryID
	}
	if r.opts.PrivacyStatus != "" {
		meta.PrivacyStatus = r.opts.PrivacyStatus
	}
	res, err := r.deps.Publisher.Upload(ctx, final.Path, meta)
	if err != nil {
		return fail(err)
	}
	res.PostID = post.ID
	outcome.Status = types.OutcomePublished
	outcome.VideoID = res.VideoID
	outcome.VideoURL = res.URL

	stage = types.StageRecord
	r.state.SetStage(post.ID, stage)
	if err := r.deps.Ledger.Record(ctx, post.ID); err != nil {
		// Once uploaded the post counts as published even when recording fails.
		log.Printf("[pipeline] ⚠️  %s published as %s but not recorded: %v", post.ID, res.VideoID, err)
		outcome.Error = err.Error()
	}

	r.afterPublish(ctx, runID, post, final, meta, res)
	log.Printf("[pipeline] ✅ %s published: %s", post.ID, res.URL)
	return outcome
}

// afterPublish runs the optional archive and notification steps
func (r *Runner) afterPublish(ctx context.Context, runID string, post types.Post, final types.FinalVideo, meta types.VideoMetadata, res types.PublishResult) {
	if r.deps.Archiver != nil {
		if err := r.deps.Archiver.Archive(ctx, post, final, meta, res); err != nil {
			log.Printf("[pipeline] ⚠️  archive failed for %s: %v", post.ID, err)
		}
	}
	if r.deps.Notifier != nil {
		ev := events.VideoPublished{
			RunID:       runID,
			PostID:      post.ID,
			PostTitle:   post.Title,
			VideoID:     res.VideoID,
			VideoURL:    res.URL,
			Title:       meta.Title,
			PublishedAt: res.PublishedAt,
		}
		if err := r.deps.Notifier.VideoPublished(ctx, ev); err != nil {
			log.Printf("[pipeline] ⚠️  event failed for %s: %v", post.ID, err)
		}
	}
}

// classify names the failure kind for logs
func classify(err error) string {
	switch {
	case errors.Is(err, video.ErrMissingResource):
		return "missing resource"
	case errors.Is(err, youtube.ErrAuthorizationRequired):
		return "authorization"
	case errors.Is(err, narration.ErrSynthesis),
		errors.Is(err, video.ErrEncode),
		errors.Is(err, video.ErrMux),
		errors.Is(err, video.ErrProbe),
		errors.Is(err, youtube.ErrUpload):
		return "external service"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "unexpected"
}
