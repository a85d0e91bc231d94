// Package ledger persists the IDs of posts that have been published so later
// runs never publish the same post twice.
package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Set is the in-memory view of processed post IDs
type Set map[string]struct{}

// Has reports whether id has been recorded
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// File is an append-only, line-delimited ledger. One post ID per line, no header.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile returns a ledger backed by path. The file is created on first Append.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the ledger location
func (f *File) Path() string {
	return f.path
}

// Load reads every recorded ID. A missing file is an empty ledger.
func (f *File) Load() (Set, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	set := make(Set)
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return set, nil
		}
		return nil, fmt.Errorf("failed to open ledger %s: %w", f.path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", f.path, err)
	}
	return set, nil
}

// Append durably records id. The write is flushed to disk before returning.
func (f *File) Append(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("cannot record empty post id")
	}
	if strings.ContainsAny(id, "\r\n") {
		return fmt.Errorf("post id %q contains a line break", id)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open ledger %s: %w", f.path, err)
	}
	if _, err := file.WriteString(id + "\n"); err != nil {
		file.Close()
		return fmt.Errorf("failed to append to ledger: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync ledger: %w", err)
	}
	return file.Close()
}
