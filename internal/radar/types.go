// Package radar defines core types shared across subsystems.
package radar

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a run does not exist.
var ErrNotFound = errors.New("run not found")

// RawPost is one entry of a Reddit listing response, as returned by the
// public JSON endpoint. It is transient: owned by the fetcher for the
// duration of one call.
type RawPost struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	SelfText          string  `json:"selftext"`
	Permalink         string  `json:"permalink"`
	Subreddit         string  `json:"subreddit"`
	Author            string  `json:"author"`
	CreatedUTC        float64 `json:"created_utc"`
	Score             int     `json:"score"`
	NumComments       int     `json:"num_comments"`
	RemovedByCategory string  `json:"removed_by_category"`
}

// CreatedAt converts the epoch-seconds creation field to UTC time.
func (p RawPost) CreatedAt() time.Time {
	return time.Unix(int64(p.CreatedUTC), 0).UTC()
}

// Post is a fully validated, normalized post produced by the admission
// pipeline. Immutable after creation.
type Post struct {
	SourceID        string    `json:"source_id"`
	Community       string    `json:"community"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	URL             string    `json:"url"`
	Author          string    `json:"author"`
	CreatedAt       time.Time `json:"created_at"`
	MatchedKeywords []string  `json:"matched_keywords"`
	Score           int       `json:"score"`
	CommentCount    int       `json:"comment_count"`
}

// RejectReason tags why the admission pipeline refused a raw post.
type RejectReason string

// Admission rejection reasons, consumed for logging and counters only.
const (
	RejectNone           RejectReason = ""
	RejectOutOfWindow    RejectReason = "out-of-window"
	RejectDeleted        RejectReason = "deleted"
	RejectNoMatch        RejectReason = "no-match"
	RejectUnresolvable   RejectReason = "unresolvable-community"
	RejectCrossCommunity RejectReason = "cross-community"
)

// RunStatus represents the lifecycle state of a monitoring run.
type RunStatus string

// Run status values persisted in the run store.
const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// TimeWindow is the inclusive [From, To] range a post's creation time must
// fall in.
type TimeWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t lies within the window, bounds included.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// RunParams captures the caller-supplied inputs for one run. There is no
// process-wide default community list: the caller must supply one.
type RunParams struct {
	Keywords    []string
	Communities []string
	Window      TimeWindow
}

// Run is the persisted record of one invocation.
type Run struct {
	ID         string     `json:"run_id"`
	Status     RunStatus  `json:"status"`
	WindowFrom time.Time  `json:"window_from"`
	WindowTo   time.Time  `json:"window_to"`
	PostsFound int        `json:"posts_found"`
	ErrorText  string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// RunCounters tracks per-run admission and persistence stats.
type RunCounters struct {
	Fetched      int                  `json:"fetched"`
	Admitted     int                  `json:"admitted"`
	Inserted     int                  `json:"inserted"`
	Duplicates   int                  `json:"duplicates"`
	StoreRejects int                  `json:"store_rejects"`
	Rejected     map[RejectReason]int `json:"rejected"`
}

// StoredPost is a persisted item row for one accepted post.
type StoredPost struct {
	ID          int64          `json:"id"`
	RunID       string         `json:"run_id"`
	SourceID    string         `json:"source_id"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Author      string         `json:"author"`
	URL         string         `json:"url"`
	CreatedAt   time.Time      `json:"created_at"`
	Fingerprint string         `json:"fingerprint"`
	DedupKey    string         `json:"dedup_key"`
	Metadata    map[string]any `json:"metadata"`
	StoredAt    time.Time      `json:"stored_at"`
}

// WriteResult summarizes one store write batch.
type WriteResult struct {
	Inserted   int
	Duplicates int
	Rejected   int
	Failed     int
}
