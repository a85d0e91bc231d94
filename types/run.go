package types

import "time"

// State represents the pipeline state machine
type State string

const (
	StateIdle       State = "idle"
	StateFetching   State = "fetching"
	StateProcessing State = "processing"
	StateComplete   State = "complete"
	StateError      State = "error"
)

// Stage names the step a post is in, or failed in
type Stage string

const (
	StagePrepare    Stage = "prepare"
	StageSynthesize Stage = "synthesize"
	StageComposite  Stage = "composite"
	StageMux        Stage = "mux"
	StagePublish    Stage = "publish"
	StageRecord     Stage = "record"
)

// Outcome statuses
const (
	OutcomePublished = "published"
	OutcomeProduced  = "produced"
	OutcomeFailed    = "failed"
)

// LogEntry represents a single log line with timestamp
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// PostOutcome is the result of attempting one post
type PostOutcome struct {
	PostID   string `json:"post_id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Stage    Stage  `json:"stage,omitempty"`
	VideoID  string `json:"video_id,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
	Error    string `json:"error,omitempty"`
}

// RunReport summarises one run
type RunReport struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Fetched    int           `json:"fetched"`
	Skipped    int           `json:"skipped"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Outcomes   []PostOutcome `json:"outcomes"`
	Error      string        `json:"error,omitempty"`
}

// StatusResponse is the JSON response for GET /api/status
type StatusResponse struct {
	State       State      `json:"state"`
	RunID       string     `json:"run_id,omitempty"`
	CurrentPost string     `json:"current_post,omitempty"`
	Stage       Stage      `json:"stage,omitempty"`
	Logs        []LogEntry `json:"logs"`
	LastReport  *RunReport `json:"last_report,omitempty"`
	Error       string     `json:"error,omitempty"`
}
