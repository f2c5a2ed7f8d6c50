package radar

import (
	"context"
	"time"
)

// Collector fetches raw post listings for a community.
type Collector interface {
	FetchNewPosts(ctx context.Context, community string, limit int) ([]RawPost, error)
}

// Store persists runs and accepted posts.
type Store interface {
	CreateRun(ctx context.Context, run Run) error
	CompleteRun(ctx context.Context, runID string, status RunStatus, postsFound int, errText string, finishedAt time.Time) error
	GetRun(ctx context.Context, runID string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	InsertPosts(ctx context.Context, runID string, posts []Post) (WriteResult, error)
	ListPosts(ctx context.Context, runID string) ([]StoredPost, error)
	Close()
}

// Fingerprinter computes the content fingerprint used as the dedup key.
type Fingerprinter interface {
	Fingerprint(content, sourceID string) string
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
