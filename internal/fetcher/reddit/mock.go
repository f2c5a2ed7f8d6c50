package reddit

import (
	"context"
	"fmt"
	"time"

	"github.com/redditradar/redditradar/internal/radar"
)

// MockCollector implements radar.Collector with generated data, keeping the
// service runnable without network access.
type MockCollector struct {
	now func() time.Time
}

// NewMockCollector creates a MockCollector. A nil now falls back to
// time.Now.
func NewMockCollector(now func() time.Time) *MockCollector {
	if now == nil {
		now = time.Now
	}
	return &MockCollector{now: now}
}

// FetchNewPosts returns limit synthetic posts attributed to the requested
// community, all created just now so they land inside any recent window.
func (m *MockCollector) FetchNewPosts(_ context.Context, community string, limit int) ([]radar.RawPost, error) {
	posts := make([]radar.RawPost, 0, limit)
	created := float64(m.now().Unix())
	for i := 0; i < limit; i++ {
		id := fmt.Sprintf("mock%s%d", community, i)
		posts = append(posts, radar.RawPost{
			ID:          id,
			Title:       fmt.Sprintf("Sample post %d from %s", i, community),
			SelfText:    fmt.Sprintf("Generated body for post %d.", i),
			Permalink:   fmt.Sprintf("/r/%s/comments/%s/sample_post_%d/", community, id, i),
			Subreddit:   community,
			Author:      "mock_user",
			CreatedUTC:  created,
			Score:       i * 3,
			NumComments: i,
		})
	}
	return posts, nil
}
