package radar

import (
	"regexp"
	"strings"
)

// RemovedAuthor is stored when the source has deleted the author handle.
// A generic "unknown" placeholder is never written.
const RemovedAuthor = "[removed]"

// deletionSentinels are the values Reddit substitutes into removed content.
var deletionSentinels = map[string]struct{}{
	"[deleted]": {},
	"[removed]": {},
}

// permalinkCommunity extracts the path segment immediately following the
// community marker ("r") in a permalink.
var permalinkCommunity = regexp.MustCompile(`(?i)(?:^|/)r/([A-Za-z0-9_]+)/`)

// Pipeline converts raw posts into normalized posts or tagged rejections.
// Checks run in a fixed order so rejection counters stay comparable across
// runs. Rejections are values, never errors: for every raw post Admit
// produces exactly one Post or exactly one reason, never both.
type Pipeline struct {
	keywords []string
	window   TimeWindow
}

// NewPipeline builds a pipeline for one run. Keywords must already be
// normalized via NormalizeKeywords.
func NewPipeline(keywords []string, window TimeWindow) *Pipeline {
	return &Pipeline{keywords: keywords, window: window}
}

// Admit applies the admission checks to one raw post fetched from the given
// community. It returns the normalized post and RejectNone on acceptance, or
// a zero Post and the rejection reason.
func (p *Pipeline) Admit(raw RawPost, community string) (Post, RejectReason) {
	createdAt := raw.CreatedAt()
	if !p.window.Contains(createdAt) {
		return Post{}, RejectOutOfWindow
	}

	if isTombstone(raw) {
		return Post{}, RejectDeleted
	}

	matched := MatchKeywords(raw.Title, p.keywords)
	if len(matched) == 0 {
		return Post{}, RejectNoMatch
	}

	derived, ok := ResolveCommunity(raw.Permalink)
	if !ok {
		return Post{}, RejectUnresolvable
	}
	// The permalink is the source of truth. Disagreement with either the
	// claimed subreddit field or the community the listing was fetched for
	// means the post is cross-posted or ambiguous; never store a guess.
	if claimed := NormalizeCommunity(raw.Subreddit); claimed != "" && claimed != derived {
		return Post{}, RejectCrossCommunity
	}
	if fetched := NormalizeCommunity(community); fetched != "" && fetched != derived {
		return Post{}, RejectCrossCommunity
	}

	author := strings.TrimSpace(raw.Author)
	if author == "" || isDeletionSentinel(author) {
		author = RemovedAuthor
	}

	return Post{
		SourceID:        raw.ID,
		Community:       derived,
		Title:           raw.Title,
		Content:         raw.SelfText,
		URL:             raw.Permalink,
		Author:          author,
		CreatedAt:       createdAt,
		MatchedKeywords: matched,
		Score:           raw.Score,
		CommentCount:    raw.NumComments,
	}, RejectNone
}

// ResolveCommunity derives the canonical community from a permalink path.
// The returned value is lowercased and trimmed.
func ResolveCommunity(permalink string) (string, bool) {
	m := permalinkCommunity.FindStringSubmatch(permalink)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}

// NormalizeCommunity canonicalizes a community identifier for comparison,
// tolerating an "r/" prefix as emitted by some listing fields.
func NormalizeCommunity(community string) string {
	value := strings.ToLower(strings.TrimSpace(community))
	value = strings.TrimPrefix(value, "/")
	value = strings.TrimPrefix(value, "r/")
	return value
}

func isTombstone(raw RawPost) bool {
	if raw.RemovedByCategory != "" {
		return true
	}
	return isDeletionSentinel(raw.Title) || isDeletionSentinel(raw.SelfText)
}

func isDeletionSentinel(value string) bool {
	_, ok := deletionSentinels[strings.TrimSpace(value)]
	return ok
}
