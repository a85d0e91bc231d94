package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

func TestProducerVideoPublished(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var ev VideoPublished
		if err := json.Unmarshal(val, &ev); err != nil {
			return err
		}
		if ev.PostID != "abc123" || ev.VideoID != "vid123" {
			return fmt.Errorf("unexpected event %+v", ev)
		}
		return nil
	})

	p := NewProducerWith(mock, "video.published")
	err := p.VideoPublished(context.Background(), VideoPublished{
		RunID:       "run-1",
		PostID:      "abc123",
		VideoID:     "vid123",
		VideoURL:    "https://youtube.com/shorts/vid123",
		PublishedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("VideoPublished error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
}

func TestProducerSendFailure(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewProducerWith(mock, "video.published")
	err := p.VideoPublished(context.Background(), VideoPublished{PostID: "x"})
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("err = %v; want ErrOutOfBrokers", err)
	}
	p.Close()
}

func TestTypedHandler(t *testing.T) {
	var got []RunRequest
	h := &TypedHandler[RunRequest]{
		Validate:   func(r *RunRequest) bool { return r.RequestedBy != "" },
		Process:    func(ctx context.Context, r *RunRequest) error { got = append(got, *r); return nil },
		AlwaysMark: true,
	}
	ctx := context.Background()

	cases := []struct {
		name     string
		msg      string
		wantMark bool
	}{
		{"valid", `{"requested_by":"ops"}`, true},
		{"invalid json", `{`, true},
		{"fails validation", `{"reason":"no requester"}`, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			mark, err := h.HandleMessage(ctx, []byte(c.msg))
			if err != nil {
				t.Fatalf("HandleMessage error: %v", err)
			}
			if mark != c.wantMark {
				t.Fatalf("mark = %v; want %v", mark, c.wantMark)
			}
		})
	}
	if len(got) != 1 || got[0].RequestedBy != "ops" {
		t.Fatalf("processed = %+v", got)
	}

	failing := &TypedHandler[RunRequest]{Process: func(ctx context.Context, r *RunRequest) error { return errors.New("busy") }}
	mark, err := failing.HandleMessage(ctx, []byte(`{"requested_by":"ops"}`))
	if err == nil || mark {
		t.Fatalf("failing handler: mark=%v err=%v; want unmarked error", mark, err)
	}
}
