// Command tilbot turns the day's top r/todayilearned posts into narrated
// YouTube Shorts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tilbot/api"
	"tilbot/client"
	"tilbot/config"
	"tilbot/events"
	"tilbot/pipeline"
	"tilbot/report"
	"tilbot/types"
	"tilbot/youtube"

	"github.com/joho/godotenv"
)

const usage = `Usage: tilbot <command> [flags]

Commands:
  run        fetch, render and publish once, then exit
  serve      run the HTTP API and the scheduled runs
  authorize  obtain and cache a YouTube token interactively
  upload     publish a single rendered video
  status     show the state of a running server
  trigger    ask a running server to start a run

Run "tilbot <command> -h" for command flags.
`

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "run":
		runCmd(ctx, args)
	case "serve":
		serveCmd(ctx, args)
	case "authorize":
		authorizeCmd(ctx, args)
	case "upload":
		uploadCmd(ctx, args)
	case "status":
		statusCmd(ctx, args)
	case "trigger":
		triggerCmd(ctx, args)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
}

// loadConfig parses the shared -config flag plus any command flags
func loadConfig(fs *flag.FlagSet, args []string) *config.Config {
	path := fs.String("config", getEnv("TILBOT_CONFIG", "tilbot.yaml"), "Path to the YAML config file (optional)")
	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}
	cfg, err := config.Load(*path)
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	return cfg
}

func runCmd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "Render videos without uploading or recording them")
	cfg := loadConfig(fs, args)
	if *dryRun {
		cfg.Publish.Disabled = true
	}

	log.Println("🎬 TIL Shorts - single run")
	a, err := buildApp(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize: %v", err)
	}
	defer a.Close()

	rep, err := a.runner.Run(ctx)
	if err != nil {
		log.Printf("❌ Run ended early: %v", err)
	}
	fmt.Println(report.Render(rep))
}

func serveCmd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	noCron := fs.Bool("no-cron", false, "Disable the scheduled runs")
	cfg := loadConfig(fs, args)

	log.Println("🌐 TIL Shorts - server mode")
	a, err := buildApp(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize: %v", err)
	}
	defer a.Close()

	srv := api.NewServer(a.runner, &api.Candidates{Source: a.source, Ledger: a.ledger}, cfg.Server.Port)
	if err := srv.Start(); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
	log.Println("📌 Endpoints:")
	log.Println("   GET  /api/health  - Health check")
	log.Println("   GET  /api/status  - Run state, logs and last report")
	log.Println("   GET  /api/posts   - Candidate preview")
	log.Println("   POST /api/run     - Start a run")

	if !*noCron && cfg.Server.Schedule != "" {
		if err := srv.StartCron(cfg.Server.Schedule); err != nil {
			log.Fatalf("❌ %v", err)
		}
	}

	if cfg.Events.RequestTopic != "" && len(cfg.Events.Brokers) > 0 {
		startRunRequests(ctx, cfg, srv, a)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  shutdown: %v", err)
	}
}

// startRunRequests consumes run requests from Kafka and triggers runs on srv
func startRunRequests(ctx context.Context, cfg *config.Config, srv *api.Server, a *app) {
	handler := &events.TypedHandler[events.RunRequest]{
		AlwaysMark: true,
		Process: func(ctx context.Context, req *events.RunRequest) error {
			reason := "kafka"
			if req.RequestedBy != "" {
				reason += ":" + req.RequestedBy
			}
			err := srv.TriggerRun(reason)
			if errors.Is(err, pipeline.ErrRunInProgress) {
				log.Printf("📨 Run request from %q ignored: %v", req.RequestedBy, err)
				return nil
			}
			return err
		},
	}

	consumer, err := events.NewConsumer(events.ConsumerConfig{
		Brokers: cfg.Events.Brokers,
		Topic:   cfg.Events.RequestTopic,
		GroupID: cfg.Events.GroupID,
		Handler: handler,
	})
	if err != nil {
		log.Printf("⚠️  Kafka run requests disabled: %v", err)
		return
	}
	a.closers = append(a.closers, consumer.Close)

	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("⚠️  Kafka consumer failed to start: %v", err)
		}
	}()
}

func authorizeCmd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("authorize", flag.ExitOnError)
	cfg := loadConfig(fs, args)

	oauthCfg, err := loadOAuthConfig(cfg)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := youtube.Authorize(ctx, oauthCfg, youtube.NewTokenStore(cfg.Paths.Token), os.Stdin, os.Stdout); err != nil {
		log.Fatalf("❌ Authorization failed: %v", err)
	}
	log.Printf("✅ Token saved to %s", cfg.Paths.Token)
}

func uploadCmd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	videoPath := fs.String("video", "", "Path to the MP4 file to upload")
	postTitle := fs.String("title", "", "Post title used for the description and tags")
	seq := fs.Int("seq", 1, "Sequence number shown in the video title")
	cfg := loadConfig(fs, args)

	if *videoPath == "" || strings.TrimSpace(*postTitle) == "" {
		fs.Usage()
		log.Fatal("--video and --title are required")
	}
	if err := ensureFileExists(*videoPath); err != nil {
		log.Fatalf("invalid video path: %v", err)
	}

	uploader, err := buildUploader(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize uploader: %v", err)
	}

	meta := youtube.BuildMetadata(types.Post{Title: strings.TrimSpace(*postTitle)}, *seq, time.Now())
	meta.CategoryID = cfg.Publish.CategoryID
	meta.PrivacyStatus = cfg.Publish.PrivacyStatus

	res, err := uploader.Upload(ctx, *videoPath, meta)
	if err != nil {
		log.Fatalf("upload failed: %v", err)
	}
	log.Printf("Uploaded successfully! %s", res.URL)
}

func statusCmd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	addr := fs.String("addr", "", "Server base URL (default $TILBOT_API_URL or http://localhost:8080)")
	fs.Parse(args)

	status, err := client.NewClient(*addr).Status(ctx)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	fmt.Printf("State: %s\n", status.State)
	if status.CurrentPost != "" {
		fmt.Printf("Current: %s (%s)\n", status.CurrentPost, status.Stage)
	}
	if status.Error != "" {
		fmt.Printf("Error: %s\n", status.Error)
	}
	for _, l := range status.Logs {
		fmt.Printf("  %s  %s\n", l.Timestamp.Format(time.TimeOnly), l.Message)
	}
	if status.LastReport != nil {
		fmt.Println(report.Render(*status.LastReport))
	}
}

func triggerCmd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("trigger", flag.ExitOnError)
	addr := fs.String("addr", "", "Server base URL (default $TILBOT_API_URL or http://localhost:8080)")
	fs.Parse(args)

	err := client.NewClient(*addr).TriggerRun(ctx)
	if errors.Is(err, client.ErrBusy) {
		log.Println("⏳ A run is already in progress")
		return
	}
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Println("🚀 Run started")
}

func ensureFileExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, expected file: %s", path)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
