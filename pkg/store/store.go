// Package store persists run records: one entry per computed buffer, with
// the strategy that produced it, its timing and the root histogram.
//
// Backends:
//   - [MongoStore]: a MongoDB collection, shared by the server and the CLI
//   - [MemoryStore]: process-local, for the server without a database
//   - [NullStore]: recording disabled
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultListLimit caps ListRuns when the caller passes a non-positive limit.
const DefaultListLimit = 20

// RunRecord describes one computed result buffer.
type RunRecord struct {
	ID            string    `bson:"_id" json:"id"`
	Strategy      string    `bson:"strategy" json:"strategy"`
	N             int       `bson:"n" json:"n"`
	MaxIter       int       `bson:"max_iter" json:"max_iter"`
	Histogram     [4]int    `bson:"histogram" json:"histogram"`
	ComputeMillis float64   `bson:"compute_ms" json:"compute_ms"`
	MPixelsPerSec float64   `bson:"mpixels_per_sec" json:"mpixels_per_sec"`
	CacheHit      bool      `bson:"cache_hit" json:"cache_hit"`
	ResultHash    string    `bson:"result_hash" json:"result_hash"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// NewRunRecord returns a record with a fresh ID and creation time.
func NewRunRecord(strategy string, n, maxIter int) *RunRecord {
	return &RunRecord{
		ID:        uuid.NewString(),
		Strategy:  strategy,
		N:         n,
		MaxIter:   maxIter,
		CreatedAt: time.Now().UTC(),
	}
}

// Store saves and lists run records.
type Store interface {
	// SaveRun inserts rec. Records are immutable once saved.
	SaveRun(ctx context.Context, rec *RunRecord) error

	// ListRuns returns up to limit records, newest first.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)

	// GetRun returns the record with the given ID or a NOT_FOUND error.
	GetRun(ctx context.Context, id string) (*RunRecord, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
