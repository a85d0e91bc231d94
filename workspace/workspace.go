// Package workspace owns the on-disk files produced while turning one post
// into a video.
package workspace

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Workspace is the directory all per-post files live in
type Workspace struct {
	dir string
}

// New creates dir if needed
func New(dir string) (*Workspace, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace %s: %w", dir, err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory
func (w *Workspace) Dir() string {
	return w.dir
}

// Scope opens the file scope for one post. Callers must defer Release.
func (w *Workspace) Scope(postID string) (*Scope, error) {
	if postID == "" || postID == "." || postID == ".." || strings.ContainsAny(postID, `/\`) {
		return nil, fmt.Errorf("post id %q is not usable as a file name", postID)
	}
	return &Scope{dir: w.dir, postID: postID}, nil
}

// Scope tracks the files of one post. Intermediates (narration audio, caption
// script, captioned temp video) are removed by Release on every path. The final
// video is removed only when it was never committed.
type Scope struct {
	dir    string
	postID string

	mu        sync.Mutex
	committed bool
	released  bool
}

// PostID returns the post this scope belongs to
func (s *Scope) PostID() string { return s.postID }

// AudioPath is <dir>/<id>.mp3
func (s *Scope) AudioPath() string {
	return filepath.Join(s.dir, s.postID+".mp3")
}

// CaptionPath is <dir>/<id>.ass
func (s *Scope) CaptionPath() string {
	return filepath.Join(s.dir, s.postID+".ass")
}

// TempVideoPath is <dir>/<id>_temp.mp4
func (s *Scope) TempVideoPath() string {
	return filepath.Join(s.dir, s.postID+"_temp.mp4")
}

// FinalPath is <dir>/<id>.mp4
func (s *Scope) FinalPath() string {
	return filepath.Join(s.dir, s.postID+".mp4")
}

// Intermediates lists the files Release always removes
func (s *Scope) Intermediates() []string {
	return []string{s.AudioPath(), s.CaptionPath(), s.TempVideoPath()}
}

// Commit marks the final video as complete so Release keeps it
func (s *Scope) Commit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = true
}

// Release deletes intermediates, and the final video if uncommitted.
// Missing files are ignored. Safe to call more than once.
func (s *Scope) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	s.released = true

	paths := s.Intermediates()
	if !s.committed {
		paths = append(paths, s.FinalPath())
	}

	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", p, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		log.Printf("[workspace] ⚠️  cleanup for %s incomplete: %v", s.postID, err)
		return err
	}
	return nil
}
