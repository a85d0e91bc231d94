package pipeline

import (
	"fmt"
	"sync"
	"time"

	"tilbot/types"
)

// State holds the live pipeline status with thread-safe access
type State struct {
	mu sync.RWMutex

	currentState types.State
	runID        string
	currentPost  string
	stage        types.Stage
	lastReport   *types.RunReport

	// Logs (ring buffer)
	logs    []types.LogEntry
	maxLogs int
	lastErr error
}

// NewState creates an idle state keeping the last maxLogs entries
func NewState(maxLogs int) *State {
	if maxLogs <= 0 {
		maxLogs = 50
	}
	return &State{
		currentState: types.StateIdle,
		logs:         make([]types.LogEntry, 0),
		maxLogs:      maxLogs,
	}
}

// AddLog adds a log entry (thread-safe)
func (s *State) AddLog(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLog(fmt.Sprintf(format, args...))
}

// appendLog must be called with the lock held
func (s *State) appendLog(message string) {
	s.logs = append(s.logs, types.LogEntry{Timestamp: time.Now(), Message: message})
	if len(s.logs) > s.maxLogs {
		s.logs = s.logs[len(s.logs)-s.maxLogs:]
	}
}

// Begin marks a new run as fetching
func (s *State) Begin(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentState = types.StateFetching
	s.runID = runID
	s.currentPost = ""
	s.stage = ""
	s.lastErr = nil
	s.appendLog("Run " + runID + " started")
}

// GetState gets the current state (thread-safe)
func (s *State) GetState() types.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentState
}

// SetStage records which post and step is in flight
func (s *State) SetStage(postID string, stage types.Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentState = types.StateProcessing
	s.currentPost = postID
	s.stage = stage
}

// Finish stores the report and returns to complete
func (s *State) Finish(report types.RunReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentState = types.StateComplete
	s.currentPost = ""
	s.stage = ""
	s.lastReport = &report
	s.appendLog(fmt.Sprintf("Run %s complete: %d succeeded, %d failed, %d skipped",
		report.RunID, report.Succeeded, report.Failed, report.Skipped))
}

// SetError sets the error state
func (s *State) SetError(err error, report *types.RunReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentState = types.StateError
	s.currentPost = ""
	s.stage = ""
	s.lastErr = err
	if report != nil {
		s.lastReport = report
	}
	s.appendLog(fmt.Sprintf("Error: %v", err))
}

// GetStatus returns a snapshot of the current state (thread-safe)
func (s *State) GetStatus() types.StatusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := types.StatusResponse{
		State:       s.currentState,
		RunID:       s.runID,
		CurrentPost: s.currentPost,
		Stage:       s.stage,
		Logs:        append([]types.LogEntry{}, s.logs...),
	}
	if s.lastReport != nil {
		r := *s.lastReport
		r.Outcomes = append([]types.PostOutcome(nil), s.lastReport.Outcomes...)
		resp.LastReport = &r
	}
	if s.lastErr != nil {
		resp.Error = s.lastErr.Error()
	}
	return resp
}
