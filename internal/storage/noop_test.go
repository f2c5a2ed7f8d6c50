package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redditradar/redditradar/internal/radar"
)

func TestNoOpStore(t *testing.T) {
	var _ radar.Store = (*NoOpStore)(nil)

	store := NewNoOpStore()
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, radar.Run{ID: "run-1"}))
	require.NoError(t, store.CompleteRun(ctx, "run-1", radar.RunCompleted, 0, "", time.Now()))

	_, err := store.GetRun(ctx, "run-1")
	assert.ErrorIs(t, err, radar.ErrNotFound)

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)

	result, err := store.InsertPosts(ctx, "run-1", []radar.Post{{SourceID: "abc"}})
	require.NoError(t, err)
	assert.Zero(t, result.Inserted)

	posts, err := store.ListPosts(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, posts)
}
