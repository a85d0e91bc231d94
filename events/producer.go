// Package events carries pipeline notifications over Kafka: published-video
// events going out and run requests coming in.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"
)

// VideoPublished is emitted once per successfully published post
type VideoPublished struct {
	RunID       string    `json:"run_id"`
	PostID      string    `json:"post_id"`
	PostTitle   string    `json:"post_title"`
	VideoID     string    `json:"video_id"`
	VideoURL    string    `json:"video_url"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
}

// Producer writes events to a single topic
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducer connects a synchronous producer to brokers
func NewProducer(brokers []string, topic string) (*Producer, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_6_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 3

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewProducerWith(p, topic), nil
}

// NewProducerWith wraps an existing producer
func NewProducerWith(p sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: p, topic: topic}
}

// VideoPublished sends ev keyed by post ID so events for one post stay ordered
func (p *Producer) VideoPublished(ctx context.Context, ev VideoPublished) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.PostID),
		Value: sarama.ByteEncoder(data),
	})
	if err != nil {
		return fmt.Errorf("failed to send event for %s: %w", ev.PostID, err)
	}
	log.Printf("[events] 📨 video.published %s -> %s (partition=%d, offset=%d)", ev.PostID, p.topic, partition, offset)
	return nil
}

// Close flushes and closes the producer
func (p *Producer) Close() error {
	return p.producer.Close()
}
