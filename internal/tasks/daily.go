package tasks

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sieve/internal/models"
	"github.com/desertthunder/sieve/internal/services"
	"github.com/desertthunder/sieve/internal/shared"
)

// ErrNoCandidates is returned when no tag produced a track that was not already recommended.
var ErrNoCandidates = errors.New("no new candidate tracks")

// DailyOpts configures one playlist generation.
type DailyOpts struct {
	Tags        []string
	NumTracks   int
	LimitPerTag int
	NoFilter    bool // Skip likes filtering even when an engine is attached
}

// DailyOptsFromConfig converts the [playlist] config section.
func DailyOptsFromConfig(c shared.PlaylistConfig) DailyOpts {
	return DailyOpts{Tags: c.Tags, NumTracks: c.NumTracks, LimitPerTag: c.LimitPerTag}
}

// DailyEngine builds the day's playlist from a tag catalog.
type DailyEngine struct {
	catalog services.CatalogService
	filter  *FilterEngine
	history HistoryStore
	logger  *log.Logger
	now     func() time.Time
	shuffle func([]models.Track)
}

// NewDailyEngine creates an engine reading candidates from catalog.
//
// filter and history are optional.
func NewDailyEngine(catalog services.CatalogService, filter *FilterEngine, history HistoryStore, logger *log.Logger) *DailyEngine {
	return &DailyEngine{
		catalog: catalog,
		filter:  filter,
		history: history,
		logger:  shared.WithPrefix(logger, "daily"),
		now:     time.Now,
		shuffle: func(tracks []models.Track) {
			rand.Shuffle(len(tracks), func(i, j int) { tracks[i], tracks[j] = tracks[j], tracks[i] })
		},
	}
}

// Generate fetches candidates for every tag, drops tracks recommended on earlier days,
// optionally removes liked tracks and records the selection in history.
//
// A failing tag is logged and skipped. History write failures are logged and do not fail generation.
func (d *DailyEngine) Generate(ctx context.Context, opts DailyOpts, progress chan<- ProgressUpdate) (*models.Playlist, error) {
	if len(opts.Tags) == 0 {
		return nil, fmt.Errorf("%w: at least one tag is required", shared.ErrInvalidInput)
	}
	if opts.NumTracks < 1 {
		return nil, fmt.Errorf("%w: number of tracks must be positive", shared.ErrInvalidInput)
	}
	if opts.LimitPerTag < 1 {
		opts.LimitPerTag = 100
	}

	pool := d.collect(ctx, opts, progress)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	total := len(pool)

	fresh, err := d.dropSeen(pool)
	if err != nil {
		return nil, err
	}
	sendProgress(progress, dedupeUpdate(len(fresh), total-len(fresh)))
	d.logger.Info("candidate pool ready", "available", total, "new", len(fresh))

	if len(fresh) == 0 {
		return nil, ErrNoCandidates
	}

	d.shuffle(fresh)

	var summary *models.FilterSummary
	if d.filter != nil && d.filter.Enabled() && !opts.NoFilter {
		result := d.filter.Run(ctx, fresh, progress)
		s := result.Summary()
		summary = &s
		fresh = result.FilteredTracks()
	}

	selected := fresh[:min(opts.NumTracks, len(fresh))]
	playlist := models.NewPlaylist(selected, models.Metadata{
		TagsUsed:             opts.Tags,
		TracksRequested:      opts.NumTracks,
		TotalAvailableTracks: total,
		APILimitPerTag:       opts.LimitPerTag,
		FilteringStats:       summary,
	}, d.now())
	sendProgress(progress, buildPlaylistUpdate(playlist))

	if playlist.Len() < opts.NumTracks {
		d.logger.Warn("fewer tracks than requested", "requested", opts.NumTracks, "found", playlist.Len())
	}

	if d.history != nil {
		if err := d.history.Record(playlist.Day(), playlist.Tracks); err != nil {
			d.logger.Error("failed to record history", "day", playlist.Day(), "error", err)
		} else {
			sendProgress(progress, recordHistoryUpdate(playlist.Day(), playlist.Len()))
		}
	}

	return playlist, nil
}

func (d *DailyEngine) collect(ctx context.Context, opts DailyOpts, progress chan<- ProgressUpdate) []models.Track {
	var pool []models.Track
	for i, tag := range opts.Tags {
		if ctx.Err() != nil {
			break
		}

		sendProgress(progress, fetchTagUpdate(i+1, len(opts.Tags), tag))
		tracks, err := d.catalog.TopTracksByTag(ctx, tag, opts.LimitPerTag)
		if err != nil {
			d.logger.Warn("failed to fetch tag", "service", d.catalog.Name(), "tag", tag, "error", err)
			sendProgress(progress, fetchTagFailedUpdate(i+1, len(opts.Tags), tag, err))
			continue
		}
		d.logger.Debug("fetched tag", "tag", tag, "tracks", len(tracks))
		pool = append(pool, tracks...)
	}
	return pool
}

// dropSeen removes tracks present in history and repeated tracks, keeping first occurrences.
func (d *DailyEngine) dropSeen(pool []models.Track) ([]models.Track, error) {
	seen := map[string]struct{}{}
	if d.history != nil {
		keys, err := d.history.SeenKeys()
		if err != nil {
			return nil, fmt.Errorf("failed to load history: %w", err)
		}
		for k := range keys {
			seen[k] = struct{}{}
		}
	}

	fresh := make([]models.Track, 0, len(pool))
	for _, t := range pool {
		k := t.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		fresh = append(fresh, t)
	}
	return fresh, nil
}
