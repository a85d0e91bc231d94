package ledger

import (
	"context"
	"log"
)

// Mirror is an optional secondary copy of the ledger
type Mirror interface {
	Members(ctx context.Context) ([]string, error)
	Add(ctx context.Context, id string) error
}

// Store combines the file ledger with an optional mirror. Mirror failures are
// logged and never fail a Load or Record.
type Store struct {
	file   *File
	mirror Mirror
}

// NewStore wraps file. mirror may be nil.
func NewStore(file *File, mirror Mirror) *Store {
	return &Store{file: file, mirror: mirror}
}

// Load returns the union of the file ledger and the mirror
func (s *Store) Load(ctx context.Context) (Set, error) {
	set, err := s.file.Load()
	if err != nil {
		return nil, err
	}
	if s.mirror == nil {
		return set, nil
	}

	ids, err := s.mirror.Members(ctx)
	if err != nil {
		log.Printf("[ledger] ⚠️  mirror unavailable, using file only: %v", err)
		return set, nil
	}
	added := 0
	for _, id := range ids {
		if !set.Has(id) {
			set[id] = struct{}{}
			added++
		}
	}
	if added > 0 {
		log.Printf("[ledger] merged %d id(s) from mirror", added)
	}
	return set, nil
}

// Record appends id to the file ledger, then to the mirror
func (s *Store) Record(ctx context.Context, id string) error {
	if err := s.file.Append(id); err != nil {
		return err
	}
	if s.mirror != nil {
		if err := s.mirror.Add(ctx, id); err != nil {
			log.Printf("[ledger] ⚠️  mirror add failed for %s: %v", id, err)
		}
	}
	return nil
}
