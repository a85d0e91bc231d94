package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the shared seen-set mirror
type RedisConfig struct {
	Addr     string // e.g. localhost:6379
	Password string
	DB       int
	Key      string // redis set holding processed IDs
}

// RedisMirror keeps a copy of the ledger in a Redis set so several hosts can
// share one view of what was published. The file ledger stays authoritative.
type RedisMirror struct {
	client *redis.Client
	key    string
}

// NewRedisMirror connects to Redis and verifies connectivity
func NewRedisMirror(cfg RedisConfig) (*RedisMirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	key := cfg.Key
	if key == "" {
		key = "tilbot:processed"
	}
	return &RedisMirror{client: client, key: key}, nil
}

// Members returns every ID stored in the mirror
func (m *RedisMirror) Members(ctx context.Context) ([]string, error) {
	ids, err := m.client.SMembers(ctx, m.key).Result()
	if err != nil {
		return nil, fmt.Errorf("SMEMBERS %s failed: %w", m.key, err)
	}
	return ids, nil
}

// Add records id in the mirror
func (m *RedisMirror) Add(ctx context.Context, id string) error {
	if err := m.client.SAdd(ctx, m.key, id).Err(); err != nil {
		return fmt.Errorf("SADD %s failed: %w", m.key, err)
	}
	return nil
}

// Close closes the underlying Redis client
func (m *RedisMirror) Close() error {
	return m.client.Close()
}
