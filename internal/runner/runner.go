// Package runner executes monitoring runs: sequential listing fetches
// gated by the rate policy, admission of each raw post, and persistence of
// the accepted batch.
package runner

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/redditradar/redditradar/internal/fetcher/reddit"
	"github.com/redditradar/redditradar/internal/metrics"
	"github.com/redditradar/redditradar/internal/policy/ratepolicy"
	"github.com/redditradar/redditradar/internal/radar"
)

// Config controls run execution.
type Config struct {
	PageLimit int
	Rate      ratepolicy.Config
}

// Result is the outcome of one run, returned to the trigger caller.
type Result struct {
	RunID      string            `json:"run_id"`
	Status     radar.RunStatus   `json:"status"`
	PostsFound int               `json:"posts_found"`
	ErrorText  string            `json:"error,omitempty"`
	Counters   radar.RunCounters `json:"counters"`
}

// Runner executes runs against a collector and a store. One run processes
// one community at a time; no concurrent upstream calls are issued.
type Runner struct {
	collector radar.Collector
	store     radar.Store
	clock     radar.Clock
	idGen     radar.IDGenerator
	logger    *zap.Logger
	cfg       Config
}

// New constructs a Runner.
func New(
	collector radar.Collector,
	store radar.Store,
	clock radar.Clock,
	idGen radar.IDGenerator,
	cfg Config,
	logger *zap.Logger,
) *Runner {
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 25
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		collector: collector,
		store:     store,
		clock:     clock,
		idGen:     idGen,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run executes one monitoring run to completion. Setup problems (no
// keywords, no communities) fail the run before any fetching; everything
// downstream degrades to a smaller result set instead of failing.
func (r *Runner) Run(ctx context.Context, params radar.RunParams) Result {
	runID, err := r.idGen.NewID()
	if err != nil {
		// No run row can exist without an id; this is the one setup error
		// that cannot be recorded.
		r.logger.Error("generate run id", zap.Error(err))
		return Result{Status: radar.RunFailed, ErrorText: "could not generate run id"}
	}

	startedAt := r.clock.Now()
	run := radar.Run{
		ID:         runID,
		Status:     radar.RunRunning,
		WindowFrom: params.Window.From,
		WindowTo:   params.Window.To,
		StartedAt:  startedAt,
	}
	if err := r.store.CreateRun(ctx, run); err != nil {
		r.logger.Error("create run record", zap.String("run_id", runID), zap.Error(err))
	}

	keywords := radar.NormalizeKeywords(params.Keywords)
	communities := normalizeCommunities(params.Communities)

	if len(keywords) == 0 {
		return r.fail(ctx, runID, "at least one keyword is required")
	}
	if len(communities) == 0 {
		return r.fail(ctx, runID, "at least one community is required")
	}

	counters := radar.RunCounters{Rejected: make(map[radar.RejectReason]int)}
	pipeline := radar.NewPipeline(keywords, params.Window)
	policy := ratepolicy.New(r.cfg.Rate, r.clock)
	logger := r.logger.With(zap.String("run_id", runID))

	for _, community := range communities {
		r.processCommunity(ctx, community, keywords, pipeline, policy, runID, &counters, logger)
		if ctx.Err() != nil {
			break
		}
	}

	finishedAt := r.clock.Now()
	if err := r.store.CompleteRun(ctx, runID, radar.RunCompleted, counters.Inserted, "", finishedAt); err != nil {
		logger.Error("complete run record", zap.Error(err))
	}
	metrics.ObserveRun(string(radar.RunCompleted))
	logger.Info("run completed",
		zap.Int("fetched", counters.Fetched),
		zap.Int("admitted", counters.Admitted),
		zap.Int("inserted", counters.Inserted),
		zap.Int("duplicates", counters.Duplicates),
		zap.Int("store_rejects", counters.StoreRejects),
	)
	return Result{
		RunID:      runID,
		Status:     radar.RunCompleted,
		PostsFound: counters.Inserted,
		Counters:   counters,
	}
}

// processCommunity fetches and admits one community's listing, writing the
// accepted batch. Rate-limit signals retry after backoff; a forbidden signal
// abandons the community for the run.
func (r *Runner) processCommunity(
	ctx context.Context,
	community string,
	keywords []string,
	pipeline *radar.Pipeline,
	policy *ratepolicy.Policy,
	runID string,
	counters *radar.RunCounters,
	logger *zap.Logger,
) {
	for {
		if ctx.Err() != nil {
			return
		}
		decision := policy.Admit(community, keywords)
		switch decision.Kind {
		case ratepolicy.Abort:
			logger.Warn("call refused by rate policy",
				zap.String("community", community),
				zap.String("reason", string(decision.Reason)),
			)
			return
		case ratepolicy.Wait:
			metrics.ObserveRateWait(decision.Delay)
			pause(ctx, decision.Delay)
			continue
		}

		raws, err := r.collector.FetchNewPosts(ctx, community, r.cfg.PageLimit)
		if err != nil {
			switch {
			case errors.Is(err, reddit.ErrForbidden):
				policy.ReportForbidden(community)
				metrics.ObserveFetch("forbidden")
				logger.Warn("community blocked for run", zap.String("community", community))
				return
			case errors.Is(err, reddit.ErrRateLimited):
				backoff := policy.ReportRateLimited()
				metrics.ObserveFetch("rate_limited")
				logger.Warn("rate limited by source",
					zap.String("community", community),
					zap.Duration("backoff", backoff),
				)
				continue
			default:
				// Transport errors never retry; the call already counted
				// against the budget and yields an empty result.
				metrics.ObserveFetch("error")
				logger.Warn("fetch failed",
					zap.String("community", community),
					zap.Error(err),
				)
				return
			}
		}

		policy.ReportSuccess()
		metrics.ObserveFetch("ok")
		counters.Fetched += len(raws)

		var accepted []radar.Post
		for _, raw := range raws {
			post, reason := pipeline.Admit(raw, community)
			if reason != radar.RejectNone {
				counters.Rejected[reason]++
				metrics.ObserveRejected(string(reason))
				continue
			}
			counters.Admitted++
			metrics.ObserveAdmitted()
			accepted = append(accepted, post)
		}

		if len(accepted) > 0 {
			result, err := r.store.InsertPosts(ctx, runID, accepted)
			if err != nil {
				logger.Error("store write failed", zap.String("community", community), zap.Error(err))
			}
			counters.Inserted += result.Inserted
			counters.Duplicates += result.Duplicates
			counters.StoreRejects += result.Rejected
			metrics.ObserveStoreWrite("inserted", result.Inserted)
			metrics.ObserveStoreWrite("duplicate", result.Duplicates)
			metrics.ObserveStoreWrite("rejected", result.Rejected)
			metrics.ObserveStoreWrite("failed", result.Failed)
		}
		return
	}
}

func (r *Runner) fail(ctx context.Context, runID, errText string) Result {
	finishedAt := r.clock.Now()
	if err := r.store.CompleteRun(ctx, runID, radar.RunFailed, 0, errText, finishedAt); err != nil {
		r.logger.Error("record failed run", zap.String("run_id", runID), zap.Error(err))
	}
	metrics.ObserveRun(string(radar.RunFailed))
	r.logger.Warn("run failed during setup", zap.String("run_id", runID), zap.String("error", errText))
	return Result{RunID: runID, Status: radar.RunFailed, ErrorText: errText}
}

func normalizeCommunities(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		value := radar.NormalizeCommunity(c)
		if value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

// pause blocks for the given delay or until the context is done.
func pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
