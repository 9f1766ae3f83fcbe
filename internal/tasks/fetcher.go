package tasks

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sieve/internal/matching"
	"github.com/desertthunder/sieve/internal/models"
	"github.com/desertthunder/sieve/internal/services"
	"github.com/desertthunder/sieve/internal/shared"
)

// FetchOpts bounds how the reference set is paged and retried.
type FetchOpts struct {
	Limit          int           // Maximum number of likes to keep
	PageSize       int           // Likes per request, capped at [services.MaxLikesPageSize]
	MaxPages       int           // Safety cap on requests per fetch
	MaxAttempts    int           // Attempts per page for transient failures
	InitialBackoff time.Duration // Delay before the second attempt; doubles afterwards
	RateLimitWait  time.Duration // Delay before the single retry after a 429
}

// FetchOptsFromConfig converts the [fetch] config section.
func FetchOptsFromConfig(c shared.FetchConfig) FetchOpts {
	return FetchOpts{
		Limit:          c.Limit,
		PageSize:       c.PageSize,
		MaxPages:       c.MaxPages,
		MaxAttempts:    c.MaxAttempts,
		InitialBackoff: c.InitialBackoff.Duration,
		RateLimitWait:  c.RateLimitWait.Duration,
	}
}

func (o FetchOpts) withDefaults() FetchOpts {
	if o.Limit <= 0 {
		o.Limit = 500
	}
	if o.PageSize <= 0 || o.PageSize > services.MaxLikesPageSize {
		o.PageSize = services.MaxLikesPageSize
	}
	if o.MaxPages <= 0 {
		o.MaxPages = 20
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = time.Second
	}
	if o.RateLimitWait <= 0 {
		o.RateLimitWait = 5 * time.Second
	}
	return o
}

// FetchStats describes the last fetch.
type FetchStats struct {
	Pages      int  // Pages retrieved successfully
	Items      int  // Items seen across those pages
	Skipped    int  // Items that were not usable tracks
	Partial    bool // A later page failed and the fetch stopped early
	CapReached bool // The page cap stopped the fetch while more likes were available
}

// ReferenceFetcher retrieves the user's likes as normalized tracks.
//
// The first successful result is cached; create one fetcher per filtering session.
type ReferenceFetcher struct {
	client LikesClient
	opts   FetchOpts
	logger *log.Logger
	sleep  func(ctx context.Context, d time.Duration) error

	mu     sync.Mutex
	cache  []models.Track
	cached bool
	stats  FetchStats
}

// NewReferenceFetcher creates a fetcher reading from client. A nil logger uses the default stderr logger.
func NewReferenceFetcher(client LikesClient, opts FetchOpts, logger *log.Logger) *ReferenceFetcher {
	return &ReferenceFetcher{
		client: client,
		opts:   opts.withDefaults(),
		logger: shared.WithPrefix(logger, "fetcher"),
		sleep:  sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Stats returns statistics about the last completed fetch.
func (f *ReferenceFetcher) Stats() FetchStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

// Fetch returns up to limit liked tracks in the order the platform lists them, normalized for matching.
//
// A limit <= 0 uses the configured limit. Errors are [*shared.FetchError]: configuration and
// authentication problems, a repeated 429, and retries exhausted on the first page. Retries exhausted
// on a later page end the fetch with the tracks gathered so far.
func (f *ReferenceFetcher) Fetch(ctx context.Context, limit int) ([]models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cached {
		f.logger.Debug("using cached likes", "count", len(f.cache))
		return f.cache, nil
	}

	if limit <= 0 {
		limit = f.opts.Limit
	}

	if f.client == nil || !f.client.Configured() {
		return nil, shared.NewFetchError(shared.KindConfiguration, "fetch likes", shared.ErrMissingCredentials)
	}

	start := time.Now()
	if err := f.checkProfile(ctx); err != nil {
		return nil, err
	}

	tracks, stats, err := f.fetchAll(ctx, limit)
	if err != nil {
		return nil, err
	}

	f.cache, f.cached, f.stats = tracks, true, stats
	f.logger.Info("fetched likes", "count", len(tracks), "pages", stats.Pages, "skipped", stats.Skipped,
		"elapsed", time.Since(start).Round(time.Millisecond))
	if len(tracks) < limit && stats.Pages > 0 {
		f.logger.Info("fewer likes than requested", "requested", limit, "found", len(tracks))
	}

	return tracks, nil
}

// checkProfile validates the token once before paging.
//
// Only authentication failures and timeouts are fatal; anything else is logged and fetching proceeds.
func (f *ReferenceFetcher) checkProfile(ctx context.Context) error {
	const op = "validate token"

	user, err := f.client.Profile(ctx)
	switch {
	case err == nil:
		f.logger.Info("authenticated with SoundCloud", "user", user.Username, "id", user.ID)
		return nil
	case isAuthError(err):
		f.logger.Error("SoundCloud token is invalid or expired", "error", err)
		return shared.NewFetchError(shared.KindAuthentication, op, err)
	case ctx.Err() != nil:
		return shared.NewFetchError(contextKind(ctx), op, ctx.Err())
	case isTimeout(err):
		f.logger.Error("SoundCloud authentication request timed out", "error", err)
		return shared.NewFetchError(shared.KindTimeout, op, err)
	default:
		f.logger.Warn("could not validate SoundCloud token, proceeding anyway", "error", err)
		return nil
	}
}

func (f *ReferenceFetcher) fetchAll(ctx context.Context, limit int) ([]models.Track, FetchStats, error) {
	var (
		stats   FetchStats
		tracks  []models.Track
		offset  int
		hasNext bool
	)

	pageSize := min(f.opts.PageSize, limit)

	for len(tracks) < limit && stats.Pages < f.opts.MaxPages {
		page, err := f.fetchPage(ctx, pageSize, offset)
		if err != nil {
			if stats.Pages > 0 && ctx.Err() == nil && recoverable(err) {
				f.logger.Warn("continuing with partial likes", "page", stats.Pages+1, "error", err)
				stats.Partial = true
				return tracks, stats, nil
			}
			return nil, stats, err
		}
		stats.Pages++

		if len(page.Collection) == 0 {
			hasNext = false
			break
		}

		for _, raw := range page.Collection {
			stats.Items++

			track, err := toReferenceTrack(raw)
			if err != nil {
				stats.Skipped++
				f.logger.Debug("skipping like", "error", err)
				continue
			}

			tracks = append(tracks, track)
			if len(tracks) >= limit {
				break
			}
		}

		hasNext = page.HasNext()
		if !hasNext {
			break
		}
		offset += pageSize
	}

	if stats.Pages >= f.opts.MaxPages && hasNext && len(tracks) < limit {
		stats.CapReached = true
		f.logger.Warn("reached maximum page limit while fetching likes", "max_pages", f.opts.MaxPages)
	}

	return tracks, stats, nil
}

// toReferenceTrack validates one likes item and normalizes it for matching.
func toReferenceTrack(raw []byte) (models.Track, error) {
	ref, err := services.ParseLikeItem(raw)
	if err != nil {
		return models.Track{}, err
	}

	track, err := ref.ToTrack()
	if err != nil {
		return models.Track{}, fmt.Errorf("like %d: %w", ref.ID, err)
	}

	normalized, err := matching.NormalizeTrack(track)
	if err != nil {
		return models.Track{}, fmt.Errorf("like %d: %w", ref.ID, err)
	}
	return normalized, nil
}

// fetchPage retrieves one page, retrying once after a 429 and up to MaxAttempts times on transient failures.
func (f *ReferenceFetcher) fetchPage(ctx context.Context, limit, offset int) (*services.LikesPage, error) {
	op := fmt.Sprintf("fetch likes page (offset %d)", offset)
	backoff := f.opts.InitialBackoff
	attempts := 0
	rateLimited := false

	for {
		attempts++
		page, err := f.client.LikesPage(ctx, limit, offset)
		if err == nil {
			return page, nil
		}

		switch {
		case isAuthError(err):
			f.logger.Error("SoundCloud rejected the token while fetching likes", "error", err)
			return nil, shared.NewFetchError(shared.KindAuthentication, op, err)

		case ctx.Err() != nil:
			return nil, shared.NewFetchError(contextKind(ctx), op, ctx.Err())

		case errors.Is(err, shared.ErrRateLimited):
			if rateLimited {
				return nil, shared.NewFetchError(shared.KindRateLimit, op, err)
			}
			rateLimited = true
			attempts--
			f.logger.Warn("SoundCloud rate limit exceeded, waiting before retry", "wait", f.opts.RateLimitWait)
			if err := f.sleep(ctx, f.opts.RateLimitWait); err != nil {
				return nil, shared.NewFetchError(contextKind(ctx), op, err)
			}

		case isTransient(err):
			if attempts >= f.opts.MaxAttempts {
				f.logger.Error("SoundCloud request failed", "attempts", attempts, "error", err)
				return nil, shared.NewFetchError(shared.KindTimeout, op, err)
			}
			f.logger.Warn("SoundCloud request failed, retrying", "attempt", attempts, "backoff", backoff, "error", err)
			if err := f.sleep(ctx, backoff); err != nil {
				return nil, shared.NewFetchError(contextKind(ctx), op, err)
			}
			backoff *= 2

		default:
			return nil, shared.NewFetchError(shared.KindUnexpected, op, err)
		}
	}
}

// recoverable reports whether a failed later page may end the fetch with partial results.
func recoverable(err error) bool {
	switch shared.KindOf(err) {
	case shared.KindTimeout:
		return true
	case shared.KindUnexpected:
		return shared.StatusCode(err) == 0
	default:
		return false
	}
}

func isAuthError(err error) bool {
	code := shared.StatusCode(err)
	return code == 401 || code == 403
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// isTransient reports timeouts and connection failures. HTTP statuses are never transient.
func isTransient(err error) bool {
	if shared.StatusCode(err) != 0 {
		return false
	}
	if isTimeout(err) {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

func contextKind(ctx context.Context) shared.ErrorKind {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return shared.KindTimeout
	}
	return shared.KindUnexpected
}
