package radar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWindow(t *testing.T) TimeWindow {
	t.Helper()
	from, err := time.Parse(time.RFC3339, "2024-01-01T00:00:00Z")
	require.NoError(t, err)
	to, err := time.Parse(time.RFC3339, "2024-01-07T23:59:59Z")
	require.NoError(t, err)
	return TimeWindow{From: from, To: to}
}

func inWindowUTC(t *testing.T) float64 {
	t.Helper()
	created, err := time.Parse(time.RFC3339, "2024-01-05T12:00:00Z")
	require.NoError(t, err)
	return float64(created.Unix())
}

func TestPipeline_AdmitAcceptsMatchingPost(t *testing.T) {
	p := NewPipeline(NormalizeKeywords([]string{"cursor"}), testWindow(t))

	post, reason := p.Admit(RawPost{
		ID:         "abc",
		Title:      "Cursor tips",
		Permalink:  "/r/cursor/comments/abc/",
		Subreddit:  "cursor",
		Author:     "alice",
		CreatedUTC: inWindowUTC(t),
		Score:      42,
	}, "cursor")

	require.Equal(t, RejectNone, reason)
	assert.Equal(t, "cursor", post.Community)
	assert.Equal(t, "alice", post.Author)
	assert.Equal(t, []string{"cursor"}, post.MatchedKeywords)
	assert.Equal(t, "abc", post.SourceID)
	assert.Equal(t, 42, post.Score)
}

func TestPipeline_AdmitRejectsCrossCommunity(t *testing.T) {
	p := NewPipeline(NormalizeKeywords([]string{"cursor"}), testWindow(t))

	post, reason := p.Admit(RawPost{
		ID:         "xyz",
		Title:      "Cursor tips",
		Permalink:  "/r/cursor/comments/xyz/",
		Subreddit:  "ClaudeAI",
		Author:     "alice",
		CreatedUTC: inWindowUTC(t),
	}, "cursor")

	assert.Equal(t, RejectCrossCommunity, reason)
	assert.Equal(t, Post{}, post)
}

func TestPipeline_AdmitCommunityComparisonIgnoresCase(t *testing.T) {
	p := NewPipeline(NormalizeKeywords([]string{"claude"}), testWindow(t))

	// Permalink "ClaudeAI" vs claimed "claudeai" is agreement, not a
	// mismatch; the stored community is the lowercased permalink value.
	post, reason := p.Admit(RawPost{
		ID:         "ccc",
		Title:      "Claude keeps improving",
		Permalink:  "/r/ClaudeAI/comments/ccc/",
		Subreddit:  "claudeai",
		Author:     "bob",
		CreatedUTC: inWindowUTC(t),
	}, "ClaudeAI")

	require.Equal(t, RejectNone, reason)
	assert.Equal(t, "claudeai", post.Community)
}

func TestPipeline_AdmitTimeWindowBoundsInclusive(t *testing.T) {
	window := testWindow(t)
	p := NewPipeline(NormalizeKeywords([]string{"cursor"}), window)

	base := RawPost{
		ID:        "abc",
		Title:     "Cursor tips",
		Permalink: "/r/cursor/comments/abc/",
		Subreddit: "cursor",
		Author:    "alice",
	}

	cases := []struct {
		name    string
		created string
		reason  RejectReason
	}{
		{"inside", "2024-01-05T12:00:00Z", RejectNone},
		{"lower bound", "2024-01-01T00:00:00Z", RejectNone},
		{"upper bound", "2024-01-07T23:59:59Z", RejectNone},
		{"after", "2024-01-08T00:00:01Z", RejectOutOfWindow},
		{"before", "2023-12-31T23:59:59Z", RejectOutOfWindow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			created, err := time.Parse(time.RFC3339, tc.created)
			require.NoError(t, err)
			raw := base
			raw.CreatedUTC = float64(created.Unix())
			_, reason := p.Admit(raw, "cursor")
			assert.Equal(t, tc.reason, reason)
		})
	}
}

func TestPipeline_AdmitRejectsTombstones(t *testing.T) {
	p := NewPipeline(NormalizeKeywords([]string{"cursor"}), testWindow(t))
	created := inWindowUTC(t)

	cases := []struct {
		name string
		raw  RawPost
	}{
		{"deleted title", RawPost{ID: "a", Title: "[deleted]", Permalink: "/r/cursor/comments/a/", Subreddit: "cursor", CreatedUTC: created}},
		{"removed body", RawPost{ID: "b", Title: "Cursor tips", SelfText: "[removed]", Permalink: "/r/cursor/comments/b/", Subreddit: "cursor", CreatedUTC: created}},
		{"removed by moderator", RawPost{ID: "c", Title: "Cursor tips", RemovedByCategory: "moderator", Permalink: "/r/cursor/comments/c/", Subreddit: "cursor", CreatedUTC: created}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, reason := p.Admit(tc.raw, "cursor")
			assert.Equal(t, RejectDeleted, reason)
		})
	}
}

func TestPipeline_AdmitRejectsNoKeywordMatch(t *testing.T) {
	p := NewPipeline(NormalizeKeywords([]string{"cursor"}), testWindow(t))

	_, reason := p.Admit(RawPost{
		ID:         "abc",
		Title:      "Completely unrelated",
		Permalink:  "/r/cursor/comments/abc/",
		Subreddit:  "cursor",
		Author:     "alice",
		CreatedUTC: inWindowUTC(t),
	}, "cursor")

	assert.Equal(t, RejectNoMatch, reason)
}

func TestPipeline_AdmitRejectsUnresolvablePermalink(t *testing.T) {
	p := NewPipeline(NormalizeKeywords([]string{"cursor"}), testWindow(t))
	created := inWindowUTC(t)

	for _, permalink := range []string{"", "/comments/abc/", "https://example.com/abc"} {
		_, reason := p.Admit(RawPost{
			ID:         "abc",
			Title:      "Cursor tips",
			Permalink:  permalink,
			Subreddit:  "cursor",
			CreatedUTC: created,
		}, "cursor")
		assert.Equal(t, RejectUnresolvable, reason, "permalink %q", permalink)
	}
}

func TestPipeline_AdmitChecksRunInFixedOrder(t *testing.T) {
	p := NewPipeline(NormalizeKeywords([]string{"cursor"}), testWindow(t))

	// Out-of-window wins over the tombstone even though both apply.
	_, reason := p.Admit(RawPost{
		ID:         "abc",
		Title:      "[deleted]",
		Permalink:  "/r/cursor/comments/abc/",
		Subreddit:  "cursor",
		CreatedUTC: 0,
	}, "cursor")
	assert.Equal(t, RejectOutOfWindow, reason)
}

func TestPipeline_AdmitAuthorResolution(t *testing.T) {
	p := NewPipeline(NormalizeKeywords([]string{"cursor"}), testWindow(t))
	created := inWindowUTC(t)

	cases := []struct {
		name   string
		author string
		want   string
	}{
		{"deleted sentinel", "[deleted]", RemovedAuthor},
		{"empty", "", RemovedAuthor},
		{"case preserved", "AliceB", "AliceB"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			post, reason := p.Admit(RawPost{
				ID:         "abc",
				Title:      "Cursor tips",
				Permalink:  "/r/cursor/comments/abc/",
				Subreddit:  "cursor",
				Author:     tc.author,
				CreatedUTC: created,
			}, "cursor")
			require.Equal(t, RejectNone, reason)
			assert.Equal(t, tc.want, post.Author)
		})
	}
}

func TestResolveCommunity(t *testing.T) {
	cases := []struct {
		permalink string
		want      string
		ok        bool
	}{
		{"/r/cursor/comments/abc/", "cursor", true},
		{"https://www.reddit.com/r/ClaudeAI/comments/abc/title/", "claudeai", true},
		{"/comments/abc/", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ResolveCommunity(tc.permalink)
		assert.Equal(t, tc.ok, ok, "permalink %q", tc.permalink)
		assert.Equal(t, tc.want, got, "permalink %q", tc.permalink)
	}
}
