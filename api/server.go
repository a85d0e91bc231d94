package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"tilbot/pipeline"
	"tilbot/types"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

// Runner is the part of pipeline.Runner the server drives
type Runner interface {
	Go(ctx context.Context, done func(types.RunReport, error)) error
	State() *pipeline.State
}

// Server is the long-running HTTP server with an optional cron schedule
type Server struct {
	runner     Runner
	candidates *Candidates
	httpServer *http.Server
	cron       *cron.Cron
	cronID     cron.EntryID
	mu         sync.Mutex

	// baseCtx is the parent of every run started by the server
	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewServer creates a server listening on port. candidates may be nil, which
// disables GET /api/posts.
func NewServer(runner Runner, candidates *Candidates, port string) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		runner:     runner,
		candidates: candidates,
		cron:       cron.New(),
		baseCtx:    ctx,
		cancel:     cancel,
	}
	s.httpServer = &http.Server{
		Addr:              ":" + port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router constructs a Gin engine with registered routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	RegisterHealthRoutes(r)
	s.registerRunRoutes(r)
	if s.candidates != nil {
		s.registerPostRoutes(r)
	}
	return r
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("[api] Starting server on %s", s.httpServer.Addr)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[api] HTTP server error: %v", err)
		}
	}()

	return nil
}

// TriggerRun starts a background run on behalf of reason. It returns
// pipeline.ErrRunInProgress when a run is already active.
func (s *Server) TriggerRun(reason string) error {
	err := s.runner.Go(s.baseCtx, func(report types.RunReport, err error) {
		if err != nil {
			log.Printf("[api] Run %s (%s) ended with error: %v", report.RunID, reason, err)
		}
	})
	if err != nil {
		return err
	}
	log.Printf("[api] Run started (%s)", reason)
	return nil
}

// StartCron starts the cron job for automated runs
func (s *Server) StartCron(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(schedule, func() {
		log.Println("[api] ⏰ Cron triggered")
		if err := s.TriggerRun("cron"); err != nil {
			log.Printf("[api] Cron skipped: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cronID = id
	s.cron.Start()
	log.Printf("[api] Cron job started with schedule: %s", schedule)
	return nil
}

// Shutdown stops the scheduler and the HTTP server, then cancels any active run
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("[api] Shutting down server...")

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}

	err := s.httpServer.Shutdown(ctx)
	s.cancel()
	return err
}
