package api

import (
	"errors"
	"net/http"

	"tilbot/pipeline"

	"github.com/gin-gonic/gin"
)

func (s *Server) registerRunRoutes(r *gin.Engine) {
	g := r.Group("/api")
	g.GET("/status", s.handleStatus)
	g.POST("/run", s.handleRun)
}

// handleStatus returns the live state, recent logs and the last report
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.runner.State().GetStatus())
}

// handleRun starts a run asynchronously and returns 202 Accepted immediately,
// or 409 Conflict while another run is active.
func (s *Server) handleRun(c *gin.Context) {
	err := s.TriggerRun("api")
	if errors.Is(err, pipeline.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
			"state": s.runner.State().GetState(),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "started",
		"message": "Run initiated",
	})
}
