package report

import (
	"strings"
	"testing"
	"time"

	"tilbot/types"
)

func TestRenderListsOutcomes(t *testing.T) {
	start := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	r := types.RunReport{
		RunID:      "0f8d2c1e-aaaa-bbbb-cccc-123456789abc",
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Fetched:    3,
		Skipped:    1,
		Succeeded:  1,
		Failed:     1,
		Outcomes: []types.PostOutcome{
			{PostID: "abc123", Title: "TIL honey never spoils", Status: types.OutcomePublished, VideoURL: "https://youtube.com/shorts/vid1"},
			{PostID: "def456", Title: "TIL octopuses have three hearts", Status: types.OutcomeFailed, Stage: types.StageMux, Error: "ffmpeg exited 1"},
		},
	}

	out := Render(r)
	for _, want := range []string{"0f8d2c1e", "abc123", "https://youtube.com/shorts/vid1", "def456", "mux", "ffmpeg exited 1", "1m30s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderEmptyRun(t *testing.T) {
	out := Render(types.RunReport{RunID: "run"})
	if !strings.Contains(out, "No suitable posts found") {
		t.Fatalf("output = %q", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("héllo wörld", 5); got != "héll…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
}
