package store

import (
	"context"

	"github.com/matzehuels/newton/pkg/errors"
)

// NullStore discards every record.
type NullStore struct{}

// NewNullStore creates a null store.
func NewNullStore() Store { return NullStore{} }

func (NullStore) SaveRun(context.Context, *RunRecord) error { return nil }

func (NullStore) ListRuns(context.Context, int) ([]RunRecord, error) { return nil, nil }

func (NullStore) GetRun(_ context.Context, id string) (*RunRecord, error) {
	return nil, errors.New(errors.ErrCodeNotFound, "run %s not found", id)
}

func (NullStore) Close(context.Context) error { return nil }
