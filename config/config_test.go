package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Publish.MaxVideosPerRun != 10 {
		t.Fatalf("MaxVideosPerRun = %d; want 10", cfg.Publish.MaxVideosPerRun)
	}
	if cfg.Source.Limit != 30 || cfg.Source.Subreddit != "todayilearned" || cfg.Source.TimeRange != "day" {
		t.Fatalf("unexpected source defaults: %+v", cfg.Source)
	}
	if cfg.Video.FPS != 24 {
		t.Fatalf("FPS = %d; want 24", cfg.Video.FPS)
	}
	if len(cfg.Video.Backgrounds) != 5 {
		t.Fatalf("backgrounds = %d; want 5", len(cfg.Video.Backgrounds))
	}
	if DurationMargin != 4*time.Second || NarrationDelay != 2*time.Second {
		t.Fatalf("unexpected timing constants")
	}
}

func TestLoadYAMLAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tilbot.yaml")
	yamlSrc := `
source:
  kind: feed
  limit: 12
video:
  backgrounds: [a.mp4, /abs/b.mp4]
paths:
  backgrounds_dir: clips
publish:
  max_videos_per_run: 3
`
	if err := os.WriteFile(path, []byte(yamlSrc), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LEDGER_PATH", "/var/lib/tilbot/ledger.txt")
	t.Setenv("KAFKA_BOOTSTRAP_SERVERS", "k1:9092, k2:9092")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Source.Kind != "feed" || cfg.Source.Limit != 12 {
		t.Fatalf("source = %+v", cfg.Source)
	}
	if cfg.Publish.MaxVideosPerRun != 3 {
		t.Fatalf("MaxVideosPerRun = %d; want 3", cfg.Publish.MaxVideosPerRun)
	}
	if cfg.Paths.Ledger != "/var/lib/tilbot/ledger.txt" {
		t.Fatalf("ledger = %q", cfg.Paths.Ledger)
	}
	if len(cfg.Events.Brokers) != 2 || cfg.Events.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers = %v", cfg.Events.Brokers)
	}
	paths := cfg.BackgroundPaths()
	if paths[0] != filepath.Join("clips", "a.mp4") || paths[1] != "/abs/b.mp4" {
		t.Fatalf("BackgroundPaths = %v", paths)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no backgrounds", func(c *Config) { c.Video.Backgrounds = nil }},
		{"zero cap", func(c *Config) { c.Publish.MaxVideosPerRun = 0 }},
		{"bad source", func(c *Config) { c.Source.Kind = "scrape" }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := Default()
			c.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("Validate() = nil; want error")
			}
		})
	}
}
