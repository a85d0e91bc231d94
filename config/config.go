package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration. Defaults come from the constants
// in this package, the YAML file overrides them and the environment wins last.
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Narration NarrationConfig `yaml:"narration"`
	Video     VideoConfig     `yaml:"video"`
	Publish   PublishConfig   `yaml:"publish"`
	Paths     PathsConfig     `yaml:"paths"`
	Server    ServerConfig    `yaml:"server"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Events    EventsConfig    `yaml:"events"`
	Redis     RedisConfig     `yaml:"redis"`
}

type SourceConfig struct {
	// Kind is "api" (go-reddit) or "feed" (public RSS)
	Kind      string `yaml:"kind"`
	Subreddit string `yaml:"subreddit"`
	TimeRange string `yaml:"time_range"`
	Limit     int    `yaml:"limit"`
	UserAgent string `yaml:"user_agent"`
	FeedURL   string `yaml:"feed_url"`

	// Credentials are read from the environment only
	ClientID     string `yaml:"-"`
	ClientSecret string `yaml:"-"`
	Username     string `yaml:"-"`
	Password     string `yaml:"-"`
}

type NarrationConfig struct {
	Region string `yaml:"region"`
	Voice  string `yaml:"voice"`
	Rate   string `yaml:"rate"`
}

type VideoConfig struct {
	Backgrounds []string `yaml:"backgrounds"`
	FPS         int      `yaml:"fps"`
	FFmpegPath  string   `yaml:"ffmpeg_path"`
}

type PublishConfig struct {
	MaxVideosPerRun int    `yaml:"max_videos_per_run"`
	CategoryID      string `yaml:"category_id"`
	PrivacyStatus   string `yaml:"privacy_status"`
	// Disabled skips the upload step and keeps the final video on disk
	Disabled bool `yaml:"disabled"`
}

type PathsConfig struct {
	Ledger         string `yaml:"ledger"`
	Token          string `yaml:"token"`
	Credentials    string `yaml:"credentials"`
	WorkDir        string `yaml:"work_dir"`
	BackgroundsDir string `yaml:"backgrounds_dir"`
}

type ServerConfig struct {
	Port     string `yaml:"port"`
	Schedule string `yaml:"schedule"`
}

type ArchiveConfig struct {
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Profile      string `yaml:"profile"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

type EventsConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	// RequestTopic, when set, is consumed in serve mode to trigger runs
	RequestTopic string `yaml:"request_topic"`
	GroupID      string `yaml:"group_id"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"-"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// Default returns the configuration used when no file or env is present.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Kind:      "api",
			Subreddit: Subreddit,
			TimeRange: TimeWindow,
			Limit:     CandidatePoolSize,
			UserAgent: "tilbot/1.0",
		},
		Narration: NarrationConfig{
			Region: NarrationRegion,
			Voice:  NarrationVoice,
			Rate:   NarrationRate,
		},
		Video: VideoConfig{
			Backgrounds: append([]string(nil), DefaultBackgrounds...),
			FPS:         VideoFPS,
			FFmpegPath:  "ffmpeg",
		},
		Publish: PublishConfig{
			MaxVideosPerRun: MaxVideosPerRun,
			CategoryID:      YouTubeCategoryID,
			PrivacyStatus:   YouTubePrivacyStatus,
		},
		Paths: PathsConfig{
			Ledger:         LedgerFile,
			Token:          TokenFile,
			Credentials:    CredentialsFile,
			WorkDir:        WorkDir,
			BackgroundsDir: BackgroundsDir,
		},
		Server: ServerConfig{
			Port:     "8080",
			Schedule: "0 9 * * *",
		},
		Events: EventsConfig{
			Topic:   "video.published",
			GroupID: "tilbot",
		},
		Redis: RedisConfig{
			Key: "tilbot:processed",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when the file does not exist) and environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// defaults only
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Source.Kind = getEnvOrDefault("REDDIT_SOURCE", c.Source.Kind)
	c.Source.UserAgent = getEnvOrDefault("REDDIT_USER_AGENT", c.Source.UserAgent)
	c.Source.ClientID = os.Getenv("REDDIT_CLIENT_ID")
	c.Source.ClientSecret = os.Getenv("REDDIT_CLIENT_SECRET")
	c.Source.Username = os.Getenv("REDDIT_USERNAME")
	c.Source.Password = os.Getenv("REDDIT_PASSWORD")

	c.Narration.Region = getEnvOrDefault("POLLY_REGION", c.Narration.Region)

	c.Video.FFmpegPath = getEnvOrDefault("FFMPEG_PATH", c.Video.FFmpegPath)
	if v := os.Getenv("BACKGROUND_VIDEOS"); v != "" {
		c.Video.Backgrounds = splitList(v)
	}

	c.Paths.Ledger = getEnvOrDefault("LEDGER_PATH", c.Paths.Ledger)
	c.Paths.Token = getEnvOrDefault("YOUTUBE_TOKEN_PATH", c.Paths.Token)
	c.Paths.Credentials = getEnvOrDefault("YOUTUBE_CREDENTIALS_PATH", c.Paths.Credentials)
	c.Paths.WorkDir = getEnvOrDefault("WORK_DIR", c.Paths.WorkDir)
	c.Paths.BackgroundsDir = getEnvOrDefault("BACKGROUNDS_DIR", c.Paths.BackgroundsDir)

	if v := os.Getenv("PUBLISH_DISABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Publish.Disabled = b
		}
	}

	c.Server.Port = getEnvOrDefault("PORT", c.Server.Port)
	c.Server.Schedule = getEnvOrDefault("RUN_SCHEDULE", c.Server.Schedule)

	c.Archive.Bucket = strings.TrimSpace(getEnvOrDefault("S3_BUCKET", c.Archive.Bucket))
	c.Archive.Prefix = strings.TrimSpace(getEnvOrDefault("S3_PREFIX", c.Archive.Prefix))
	c.Archive.Region = strings.TrimSpace(getEnvOrDefault("S3_REGION", c.Archive.Region))
	c.Archive.Profile = strings.TrimSpace(getEnvOrDefault("S3_PROFILE", c.Archive.Profile))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("S3_USE_PATH_STYLE")), "true") {
		c.Archive.UsePathStyle = true
	}

	if v := os.Getenv("KAFKA_BOOTSTRAP_SERVERS"); v != "" {
		c.Events.Brokers = splitList(v)
	}
	c.Events.Topic = getEnvOrDefault("KAFKA_TOPIC", c.Events.Topic)
	c.Events.RequestTopic = getEnvOrDefault("KAFKA_REQUEST_TOPIC", c.Events.RequestTopic)
	c.Events.GroupID = getEnvOrDefault("KAFKA_GROUP_ID", c.Events.GroupID)

	c.Redis.Addr = getEnvOrDefault("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = os.Getenv("REDIS_PASS")
	c.Redis.Key = getEnvOrDefault("LEDGER_REDIS_KEY", c.Redis.Key)
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil && db >= 0 {
			c.Redis.DB = db
		}
	}
}

// Validate rejects configurations a run cannot start with.
func (c *Config) Validate() error {
	if len(c.Video.Backgrounds) == 0 {
		return errors.New("at least one background video must be configured")
	}
	if c.Publish.MaxVideosPerRun <= 0 {
		return fmt.Errorf("max_videos_per_run must be positive, got %d", c.Publish.MaxVideosPerRun)
	}
	if c.Source.Limit <= 0 {
		return fmt.Errorf("source limit must be positive, got %d", c.Source.Limit)
	}
	switch c.Source.Kind {
	case "api", "feed":
	default:
		return fmt.Errorf("unknown source kind %q (want api or feed)", c.Source.Kind)
	}
	return nil
}

// BackgroundPaths resolves the configured backgrounds against BackgroundsDir.
func (c *Config) BackgroundPaths() []string {
	paths := make([]string, 0, len(c.Video.Backgrounds))
	for _, b := range c.Video.Backgrounds {
		if filepath.IsAbs(b) || c.Paths.BackgroundsDir == "" {
			paths = append(paths, b)
			continue
		}
		paths = append(paths, filepath.Join(c.Paths.BackgroundsDir, b))
	}
	return paths
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
