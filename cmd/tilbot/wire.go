package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"tilbot/common"
	"tilbot/config"
	"tilbot/events"
	"tilbot/ledger"
	"tilbot/narration"
	"tilbot/pipeline"
	"tilbot/reddit"
	"tilbot/video"
	"tilbot/workspace"
	"tilbot/youtube"

	"golang.org/x/oauth2"
)

// app holds the wired pipeline and everything that must be closed on exit
type app struct {
	cfg     *config.Config
	runner  *pipeline.Runner
	source  pipeline.Source
	ledger  *ledger.Store
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("⚠️  close: %v", err)
		}
	}
}

// buildApp wires every collaborator from cfg. Optional integrations (Redis,
// S3, Kafka) that fail to start are logged and left out.
func buildApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	src, err := buildSource(cfg)
	if err != nil {
		return nil, err
	}
	a.source = src

	ws, err := workspace.New(cfg.Paths.WorkDir)
	if err != nil {
		return nil, err
	}

	prober := video.FFProbe{}
	synth, err := narration.NewPolly(ctx, narration.Options{
		Region: cfg.Narration.Region,
		Voice:  cfg.Narration.Voice,
		Rate:   cfg.Narration.Rate,
	}, prober)
	if err != nil {
		return nil, err
	}

	exec := video.ExecRunner{}
	a.ledger = buildLedger(cfg, a)

	deps := pipeline.Deps{
		Source:      src,
		Synthesizer: synth,
		Compositor:  video.NewCompositor(cfg.Video.FFmpegPath, cfg.Video.FPS, prober, exec),
		Muxer:       video.NewMuxer(cfg.Video.FFmpegPath, exec),
		Ledger:      a.ledger,
		Workspace:   ws,
	}

	if cfg.Publish.Disabled {
		log.Println("📦 Publishing disabled: videos are rendered to", ws.Dir(), "and not recorded")
	} else {
		uploader, err := buildUploader(ctx, cfg)
		if err != nil {
			return nil, err
		}
		deps.Publisher = uploader
	}

	if archiver := buildArchiver(ctx, cfg); archiver != nil {
		deps.Archiver = archiver
	}
	if producer := buildProducer(cfg); producer != nil {
		deps.Notifier = producer
		a.closers = append(a.closers, producer.Close)
	}

	a.runner, err = pipeline.NewRunner(deps, pipeline.Options{
		Backgrounds:     cfg.BackgroundPaths(),
		MaxVideosPerRun: cfg.Publish.MaxVideosPerRun,
		CategoryID:      cfg.Publish.CategoryID,
		PrivacyStatus:   cfg.Publish.PrivacyStatus,
	}, pipeline.NewState(50))
	if err != nil {
		return nil, err
	}
	return a, nil
}

func buildSource(cfg *config.Config) (pipeline.Source, error) {
	opts := reddit.Options{
		Subreddit: cfg.Source.Subreddit,
		TimeRange: cfg.Source.TimeRange,
		Limit:     cfg.Source.Limit,
		UserAgent: cfg.Source.UserAgent,
	}
	if cfg.Source.Kind == "feed" {
		log.Println("📰 Using the public Reddit feed")
		return reddit.NewFeedSource(cfg.Source.FeedURL, opts), nil
	}

	log.Println("🔗 Using the Reddit API")
	return reddit.NewAPISource(reddit.Credentials{
		ClientID:     cfg.Source.ClientID,
		ClientSecret: cfg.Source.ClientSecret,
		Username:     cfg.Source.Username,
		Password:     cfg.Source.Password,
	}, opts)
}

func buildLedger(cfg *config.Config, a *app) *ledger.Store {
	file := ledger.NewFile(cfg.Paths.Ledger)
	if cfg.Redis.Addr == "" {
		return ledger.NewStore(file, nil)
	}

	mirror, err := ledger.NewRedisMirror(ledger.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Key:      cfg.Redis.Key,
	})
	if err != nil {
		log.Printf("⚠️  Redis mirror disabled: %v", err)
		return ledger.NewStore(file, nil)
	}
	a.closers = append(a.closers, mirror.Close)
	log.Printf("🗂️  Ledger mirrored to Redis at %s", cfg.Redis.Addr)
	return ledger.NewStore(file, mirror)
}

// loadOAuthConfig prefers the client secrets file and falls back to
// YOUTUBE_CLIENT_ID / YOUTUBE_CLIENT_SECRET.
func loadOAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	oauthCfg, err := youtube.LoadOAuthConfig(cfg.Paths.Credentials)
	if err == nil {
		return oauthCfg, nil
	}
	if envCfg := youtube.OAuthConfigFromEnv(); envCfg != nil {
		return envCfg, nil
	}
	return nil, fmt.Errorf("no YouTube client secrets (%v); set YOUTUBE_CLIENT_ID/YOUTUBE_CLIENT_SECRET or PUBLISH_DISABLED=true", err)
}

func buildUploader(ctx context.Context, cfg *config.Config) (*youtube.Uploader, error) {
	oauthCfg, err := loadOAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	creds := youtube.NewCredentials(oauthCfg, youtube.NewTokenStore(cfg.Paths.Token))

	// Uploads still fail per post without a token; this only warns early.
	if _, err := creds.Token(ctx); errors.Is(err, youtube.ErrAuthorizationRequired) {
		log.Printf("⚠️  YouTube authorization required, run `%s authorize`: %v", os.Args[0], err)
	}
	return youtube.NewUploader(creds), nil
}

func buildArchiver(ctx context.Context, cfg *config.Config) *common.Archiver {
	if cfg.Archive.Bucket == "" {
		return nil
	}
	store, err := common.NewS3(ctx, common.S3Config{
		Region:       cfg.Archive.Region,
		Profile:      cfg.Archive.Profile,
		UsePathStyle: cfg.Archive.UsePathStyle,
	})
	if err != nil {
		log.Printf("⚠️  failed to init S3 client: %v (archive disabled)", err)
		return nil
	}
	log.Printf("☁️  Archiving published videos to s3://%s/%s", cfg.Archive.Bucket, cfg.Archive.Prefix)
	return common.NewArchiver(store, cfg.Archive.Bucket, cfg.Archive.Prefix)
}

func buildProducer(cfg *config.Config) *events.Producer {
	if len(cfg.Events.Brokers) == 0 || cfg.Events.Topic == "" {
		return nil
	}
	p, err := events.NewProducer(cfg.Events.Brokers, cfg.Events.Topic)
	if err != nil {
		log.Printf("⚠️  Kafka producer disabled: %v", err)
		return nil
	}
	log.Printf("📨 Publishing events to %s on %v", cfg.Events.Topic, cfg.Events.Brokers)
	return p
}
