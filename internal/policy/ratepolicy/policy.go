// Package ratepolicy bounds outbound call volume to the upstream source and
// reacts to its rejection signals.
package ratepolicy

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/redditradar/redditradar/internal/radar"
)

// DecisionKind discriminates the outcome of Admit.
type DecisionKind int

// Admit outcomes.
const (
	Proceed DecisionKind = iota
	Wait
	Abort
)

// AbortReason explains why a call was refused for the rest of the run.
type AbortReason string

// Abort reasons.
const (
	AbortBudgetExhausted  AbortReason = "budget-exhausted"
	AbortCommunityBlocked AbortReason = "community-blocked"
	AbortKeywordBlocked   AbortReason = "keyword-blocked"
)

// Decision is the verdict for one prospective upstream call.
type Decision struct {
	Kind   DecisionKind
	Delay  time.Duration
	Reason AbortReason
}

// Config holds rate policy configuration.
type Config struct {
	// MaxCallsPerWindow caps calls within each fixed 60-second window.
	MaxCallsPerWindow int
	// MinSpacing is the minimum gap between consecutive calls.
	MinSpacing time.Duration
	// RunBudget caps total calls for the run.
	RunBudget int
	// BackoffBase and BackoffMax bound the rate-limit backoff timer.
	BackoffBase time.Duration
	BackoffMax  time.Duration
	// BlockedKeywords refuse calls whose requested keywords are all blocked.
	BlockedKeywords []string
}

const callWindow = time.Minute

// Policy tracks per-run call accounting. Construct a fresh Policy for each
// run; blocklists never survive a run boundary.
type Policy struct {
	mu  sync.Mutex
	cfg Config

	clock   radar.Clock
	spacing *rate.Limiter

	windowStart time.Time
	windowCalls int
	totalCalls  int

	blockedCommunities map[string]struct{}
	blockedKeywords    map[string]struct{}

	backoff      time.Duration
	backoffUntil time.Time
}

// New creates a Policy for one run.
func New(cfg Config, clock radar.Clock) *Policy {
	if cfg.MaxCallsPerWindow <= 0 {
		cfg.MaxCallsPerWindow = 30
	}
	if cfg.RunBudget <= 0 {
		cfg.RunBudget = 100
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 5 * time.Second
	}
	if cfg.BackoffMax < cfg.BackoffBase {
		cfg.BackoffMax = cfg.BackoffBase
	}
	limit := rate.Inf
	if cfg.MinSpacing > 0 {
		limit = rate.Every(cfg.MinSpacing)
	}
	blocked := make(map[string]struct{}, len(cfg.BlockedKeywords))
	for _, kw := range cfg.BlockedKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			blocked[kw] = struct{}{}
		}
	}
	return &Policy{
		cfg:                cfg,
		clock:              clock,
		spacing:            rate.NewLimiter(limit, 1),
		windowStart:        clock.Now(),
		blockedCommunities: make(map[string]struct{}),
		blockedKeywords:    blocked,
	}
}

// Admit decides whether a call for the given community and keywords may go
// out now. Proceed consumes budget; Wait and Abort do not.
func (p *Policy) Admit(community string, keywords []string) Decision {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.totalCalls >= p.cfg.RunBudget {
		return Decision{Kind: Abort, Reason: AbortBudgetExhausted}
	}
	if _, blocked := p.blockedCommunities[radar.NormalizeCommunity(community)]; blocked {
		return Decision{Kind: Abort, Reason: AbortCommunityBlocked}
	}
	if p.allKeywordsBlocked(keywords) {
		return Decision{Kind: Abort, Reason: AbortKeywordBlocked}
	}

	now := p.clock.Now()
	if now.Before(p.backoffUntil) {
		return Decision{Kind: Wait, Delay: p.backoffUntil.Sub(now)}
	}

	if now.Sub(p.windowStart) >= callWindow {
		p.windowStart = now
		p.windowCalls = 0
	}
	if p.windowCalls >= p.cfg.MaxCallsPerWindow {
		return Decision{Kind: Wait, Delay: p.windowStart.Add(callWindow).Sub(now)}
	}

	reservation := p.spacing.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return Decision{Kind: Wait, Delay: delay}
	}

	p.totalCalls++
	p.windowCalls++
	return Decision{Kind: Proceed}
}

// ReportForbidden blocks the community for the remainder of the run.
func (p *Policy) ReportForbidden(community string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blockedCommunities[radar.NormalizeCommunity(community)] = struct{}{}
}

// ReportRateLimited arms the backoff timer. Repeated signals double the
// duration up to the configured ceiling. The armed duration is returned.
func (p *Policy) ReportRateLimited() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.backoff == 0 {
		p.backoff = p.cfg.BackoffBase
	} else {
		p.backoff *= 2
		if p.backoff > p.cfg.BackoffMax {
			p.backoff = p.cfg.BackoffMax
		}
	}
	p.backoffUntil = p.clock.Now().Add(p.backoff)
	return p.backoff
}

// ReportSuccess resets the backoff timer to its base value.
func (p *Policy) ReportSuccess() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.backoff = 0
	p.backoffUntil = time.Time{}
}

// CallsMade returns the number of admitted calls so far.
func (p *Policy) CallsMade() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalCalls
}

func (p *Policy) allKeywordsBlocked(keywords []string) bool {
	if len(p.blockedKeywords) == 0 || len(keywords) == 0 {
		return false
	}
	for _, kw := range keywords {
		if _, blocked := p.blockedKeywords[strings.ToLower(strings.TrimSpace(kw))]; !blocked {
			return false
		}
	}
	return true
}
