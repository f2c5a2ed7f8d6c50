// Package storage provides store implementations behind the radar.Store
// interface. The database is an injected capability: when no DSN is
// configured the service runs against the no-op store instead of toggling a
// nullable global.
package storage

import (
	"context"
	"time"

	"github.com/redditradar/redditradar/internal/radar"
)

// NoOpStore is a store that persists nothing. Runs still execute end to end;
// every write succeeds with zero inserts and every read comes back empty.
type NoOpStore struct{}

// NewNoOpStore creates a NoOpStore.
func NewNoOpStore() *NoOpStore {
	return &NoOpStore{}
}

// CreateRun does nothing.
func (*NoOpStore) CreateRun(_ context.Context, _ radar.Run) error { return nil }

// CompleteRun does nothing.
func (*NoOpStore) CompleteRun(_ context.Context, _ string, _ radar.RunStatus, _ int, _ string, _ time.Time) error {
	return nil
}

// GetRun always reports the run as missing.
func (*NoOpStore) GetRun(_ context.Context, _ string) (radar.Run, error) {
	return radar.Run{}, radar.ErrNotFound
}

// ListRuns returns no runs.
func (*NoOpStore) ListRuns(_ context.Context, _ int) ([]radar.Run, error) { return nil, nil }

// InsertPosts accepts the batch and discards it.
func (*NoOpStore) InsertPosts(_ context.Context, _ string, _ []radar.Post) (radar.WriteResult, error) {
	return radar.WriteResult{}, nil
}

// ListPosts returns no posts.
func (*NoOpStore) ListPosts(_ context.Context, _ string) ([]radar.StoredPost, error) {
	return nil, nil
}

// Close does nothing.
func (*NoOpStore) Close() {}
