package tasks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sieve/internal/matching"
	"github.com/desertthunder/sieve/internal/models"
	"github.com/desertthunder/sieve/internal/shared"
)

// Messages recorded in [models.FilterResult] errors.
const (
	MsgConnectFailed     = "Unable to connect to SoundCloud. Please check your OAuth token."
	MsgTimedOut          = "SoundCloud request timed out. Please try again later."
	MsgRateLimited       = "SoundCloud rate limit exceeded. Please try again later."
	MsgUnexpected        = "Failed to fetch SoundCloud favorites due to an unexpected error."
	MsgInterrupted       = "Track matching was interrupted before all tracks were checked."
	MsgResultFailed      = "Failed to create filtering result"
	msgTrackFailedFormat = "Could not process track: %s by %s"
)

// ReferenceSource provides the set of tracks candidates are compared against.
//
// [ReferenceFetcher] implements it for SoundCloud likes.
type ReferenceSource interface {
	Fetch(ctx context.Context, limit int) ([]models.Track, error)
}

// FilterOpts configures a [FilterEngine].
type FilterOpts struct {
	Threshold float64 // Minimum similarity for a match; 0 uses [matching.DefaultThreshold]
	Workers   int     // Concurrent matchers (default: 4)
	Limit     int     // Maximum reference tracks to fetch; 0 uses the source's default
}

// FilterEngine removes candidates the user already likes on the reference platform.
//
// An engine serves one filtering session: its source caches the reference set after the first fetch.
type FilterEngine struct {
	source  ReferenceSource
	matcher matching.Matcher
	workers int
	limit   int
	runs    RunStore
	logger  *log.Logger
}

// NewFilterEngine creates an engine comparing against source. A nil source disables filtering.
func NewFilterEngine(source ReferenceSource, opts FilterOpts, logger *log.Logger) *FilterEngine {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}

	return &FilterEngine{
		source:  source,
		matcher: matching.NewMatcher(opts.Threshold),
		workers: opts.Workers,
		limit:   opts.Limit,
		logger:  shared.WithPrefix(logger, "filter"),
	}
}

// WithRunStore makes the engine persist every result it produces.
func (e *FilterEngine) WithRunStore(runs RunStore) *FilterEngine {
	e.runs = runs
	return e
}

// Enabled reports whether the engine has a reference source.
func (e *FilterEngine) Enabled() bool {
	return e.source != nil
}

// FilterTracks is [FilterEngine.Run] without progress reporting.
func (e *FilterEngine) FilterTracks(ctx context.Context, candidates []models.Track) models.FilterResult {
	return e.Run(ctx, candidates, nil)
}

// Run splits candidates into surviving and removed tracks.
//
// It never fails: fetch problems and per-track errors are recorded in the result's errors, and
// candidates that could not be checked are kept. Surviving tracks keep their input order.
func (e *FilterEngine) Run(ctx context.Context, candidates []models.Track, progress chan<- ProgressUpdate) models.FilterResult {
	if len(candidates) == 0 {
		e.logger.Warn("no tracks provided for filtering")
		return models.PassThrough(nil)
	}

	if e.source == nil {
		e.logger.Debug("no reference source configured, returning all tracks")
		return models.PassThrough(candidates)
	}

	start := time.Now()
	e.logger.Info("starting likes filtering", "tracks", len(candidates))

	var errs []string

	sendProgress(progress, fetchReferenceUpdate())
	refs, err := e.source.Fetch(ctx, e.limit)
	if err != nil {
		e.logger.Error("failed to fetch SoundCloud likes", "kind", shared.KindOf(err), "error", err)
		errs = append(errs, fetchErrorMessage(err))
		refs = nil
	} else {
		sendProgress(progress, referenceFetchedUpdate(len(refs)))
	}

	if len(refs) == 0 {
		if err == nil {
			e.logger.Warn("no SoundCloud likes found, returning all tracks")
		}
		result := models.PassThrough(candidates, errs...)
		e.finish(result, start)
		return result
	}

	e.logger.Info("filtering against likes", "tracks", len(candidates), "likes", len(refs))
	outcomes := e.matchAll(ctx, candidates, refs, progress)

	var (
		filtered    []models.Track
		removed     []models.Track
		matches     models.PlatformMatches
		interrupted bool
	)
	for i, o := range outcomes {
		track := candidates[i]
		switch {
		case !o.done:
			interrupted = true
			filtered = append(filtered, track)
		case o.err != nil:
			e.logger.Warn("error matching track", "track", track, "error", o.err)
			filtered = append(filtered, track)
			errs = append(errs, fmt.Sprintf(msgTrackFailedFormat, track.Name, track.Artist))
		case o.matched:
			e.logger.Debug("removed SoundCloud match", "track", track)
			removed = append(removed, track)
			matches.SoundCloud++
		default:
			filtered = append(filtered, track)
		}
	}
	if interrupted {
		errs = append(errs, MsgInterrupted)
	}

	result, err := models.NewFilterResult(len(candidates), filtered, removed, matches, errs)
	if err != nil {
		e.logger.Error("error creating filter result", "error", err)
		result = models.PassThrough(candidates, errs...).WithError(MsgResultFailed)
	}

	e.finish(result, start)
	return result
}

func fetchErrorMessage(err error) string {
	switch shared.KindOf(err) {
	case shared.KindConfiguration, shared.KindAuthentication:
		return MsgConnectFailed
	case shared.KindTimeout:
		return MsgTimedOut
	case shared.KindRateLimit:
		return MsgRateLimited
	default:
		return MsgUnexpected
	}
}

type matchJob struct {
	index int
	track models.Track
}

type matchOutcome struct {
	done    bool
	matched bool
	err     error
}

// matchAll checks every candidate on a pool of workers. Outcomes are indexed by input position.
func (e *FilterEngine) matchAll(ctx context.Context, candidates, refs []models.Track, progress chan<- ProgressUpdate) []matchOutcome {
	outcomes := make([]matchOutcome, len(candidates))
	jobs := make(chan matchJob)

	var (
		wg        sync.WaitGroup
		completed atomic.Int64
	)

	total := len(candidates)
	for range min(e.workers, total) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				o := e.matchOne(job.track, refs)
				outcomes[job.index] = o

				n := int(completed.Add(1))
				sendProgress(progress, matchTrackUpdate(n, total, job.track, o.matched))
				if total > 100 && n%50 == 0 {
					e.logger.Debug("matching progress", "processed", n, "total", total)
				}
			}
		}()
	}

feed:
	for i, track := range candidates {
		if ctx.Err() != nil {
			e.logger.Warn("filtering interrupted", "error", ctx.Err())
			break
		}
		select {
		case <-ctx.Done():
			e.logger.Warn("filtering interrupted", "error", ctx.Err())
			break feed
		case jobs <- matchJob{index: i, track: track}:
		}
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

func (e *FilterEngine) matchOne(track models.Track, refs []models.Track) (o matchOutcome) {
	defer func() {
		if r := recover(); r != nil {
			o = matchOutcome{done: true, err: fmt.Errorf("panic while matching: %v", r)}
		}
	}()

	matched, err := e.matcher.Matches(track, refs)
	return matchOutcome{done: true, matched: matched, err: err}
}

// finish logs the outcome of a session and persists it when a run store is attached.
func (e *FilterEngine) finish(result models.FilterResult, start time.Time) {
	e.logger.Info("likes filtering completed", "elapsed", time.Since(start).Round(time.Millisecond))

	if result.FilteringApplied() {
		e.logger.Info("filtering results",
			"remaining", result.FilteredCount(),
			"original", result.OriginalCount(),
			"removed", result.RemovedCount(),
			"percent", fmt.Sprintf("%.1f", result.RemovalPercentage()),
			"soundcloud_matches", result.SoundCloudMatches(),
		)
	} else {
		e.logger.Info("no tracks were filtered, all tracks passed through")
	}

	for _, msg := range result.Errors() {
		e.logger.Warn("filtering error", "message", msg)
	}

	if e.runs == nil {
		return
	}
	run := models.NewFilterRun(result)
	if err := e.runs.Create(run); err != nil {
		e.logger.Error("failed to save filter run", "error", err)
		return
	}
	e.logger.Debug("saved filter run", "id", run.ID())
}
