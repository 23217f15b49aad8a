package store

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/newton/pkg/errors"
)

// MemoryStore keeps records in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	runs []RunRecord
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SaveRun(ctx context.Context, rec *RunRecord) error {
	if rec == nil || rec.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "run record needs an ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.runs {
		if r.ID == rec.ID {
			return errors.New(errors.ErrCodeInvalidInput, "run %s already saved", rec.ID)
		}
	}
	s.runs = append(s.runs, *rec)
	return nil
}

func (s *MemoryStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	s.mu.RLock()
	out := slices.Clone(s.runs)
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b RunRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit = normalizeLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.runs {
		if r.ID == id {
			rec := r
			return &rec, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "run %s not found", id)
}

func (s *MemoryStore) Close(ctx context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
