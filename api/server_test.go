package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tilbot/ledger"
	"tilbot/pipeline"
	"tilbot/types"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRunner struct {
	state   *pipeline.State
	busy    bool
	started int
}

func (f *fakeRunner) Go(ctx context.Context, done func(types.RunReport, error)) error {
	if f.busy {
		return pipeline.ErrRunInProgress
	}
	f.started++
	return nil
}

func (f *fakeRunner) State() *pipeline.State { return f.state }

type stubSource struct {
	posts []types.Post
	err   error
}

func (s stubSource) Fetch(ctx context.Context) ([]types.Post, error) { return s.posts, s.err }

type stubLedger struct{ ids ledger.Set }

func (l stubLedger) Load(ctx context.Context) (ledger.Set, error) { return l.ids, nil }
func (l stubLedger) Record(ctx context.Context, id string) error  { return nil }

func serve(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := NewServer(&fakeRunner{state: pipeline.NewState(10)}, nil, "0")
	w := serve(t, s, http.MethodGet, "/api/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
}

func TestRunEndpoint(t *testing.T) {
	tests := []struct {
		name string
		busy bool
		want int
	}{
		{"idle starts run", false, http.StatusAccepted},
		{"busy conflicts", true, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{state: pipeline.NewState(10), busy: tt.busy}
			s := NewServer(r, nil, "0")

			w := serve(t, s, http.MethodPost, "/api/run")
			if w.Code != tt.want {
				t.Fatalf("status = %d; want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if !tt.busy && r.started != 1 {
				t.Fatalf("started = %d; want 1", r.started)
			}
		})
	}
}

func TestStatusEndpoint(t *testing.T) {
	state := pipeline.NewState(10)
	state.Begin("run-1")
	state.Finish(types.RunReport{RunID: "run-1", Succeeded: 2})
	s := NewServer(&fakeRunner{state: state}, nil, "0")

	w := serve(t, s, http.MethodGet, "/api/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}

	var got types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.State != types.StateComplete || got.LastReport == nil || got.LastReport.Succeeded != 2 {
		t.Fatalf("status = %+v", got)
	}
	if len(got.Logs) == 0 {
		t.Fatalf("logs missing")
	}
}

func TestPostsEndpoint(t *testing.T) {
	candidates := &Candidates{
		Source: stubSource{posts: []types.Post{{ID: "abc123", Title: "old"}, {ID: "def456", Title: "new"}}},
		Ledger: stubLedger{ids: ledger.Set{"abc123": {}}},
	}
	s := NewServer(&fakeRunner{state: pipeline.NewState(10)}, candidates, "0")

	w := serve(t, s, http.MethodGet, "/api/posts")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}

	var body struct {
		Count    int             `json:"count"`
		NewCount int             `json:"new_count"`
		Posts    []CandidateView `json:"posts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 2 || body.NewCount != 1 {
		t.Fatalf("body = %+v", body)
	}
	if !body.Posts[0].Published || body.Posts[1].Published {
		t.Fatalf("published flags wrong: %+v", body.Posts)
	}
}

func TestPostsEndpointSourceError(t *testing.T) {
	candidates := &Candidates{
		Source: stubSource{err: errors.New("reddit down")},
		Ledger: stubLedger{ids: ledger.Set{}},
	}
	s := NewServer(&fakeRunner{state: pipeline.NewState(10)}, candidates, "0")

	if w := serve(t, s, http.MethodGet, "/api/posts"); w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d; want 502", w.Code)
	}
}

func TestPostsRouteDisabledWithoutCandidates(t *testing.T) {
	s := NewServer(&fakeRunner{state: pipeline.NewState(10)}, nil, "0")
	if w := serve(t, s, http.MethodGet, "/api/posts"); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d; want 404", w.Code)
	}
}

func TestStartCronRejectsBadSchedule(t *testing.T) {
	s := NewServer(&fakeRunner{state: pipeline.NewState(10)}, nil, "0")
	if err := s.StartCron("not a schedule"); err == nil {
		t.Fatalf("StartCron = nil; want error")
	}
}
