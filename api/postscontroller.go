package api

import (
	"net/http"

	"tilbot/pipeline"
	"tilbot/types"

	"github.com/gin-gonic/gin"
)

// Candidates previews the posts the next run would choose from
type Candidates struct {
	Source pipeline.Source
	Ledger pipeline.Ledger
}

// CandidateView is a fetched post plus whether it was already published
type CandidateView struct {
	types.Post
	Published bool `json:"published"`
}

func (s *Server) registerPostRoutes(r *gin.Engine) {
	r.GET("/api/posts", s.handleListPosts)
}

// handleListPosts fetches the current candidates and marks published ones
func (s *Server) handleListPosts(c *gin.Context) {
	ctx := c.Request.Context()

	seen, err := s.candidates.Ledger.Load(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load ledger: " + err.Error()})
		return
	}

	posts, err := s.candidates.Source.Fetch(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch posts: " + err.Error()})
		return
	}

	views := make([]CandidateView, 0, len(posts))
	fresh := 0
	for _, p := range posts {
		published := seen.Has(p.ID)
		if !published {
			fresh++
		}
		views = append(views, CandidateView{Post: p, Published: published})
	}

	c.JSON(http.StatusOK, gin.H{
		"count":     len(views),
		"new_count": fresh,
		"posts":     views,
	})
}
