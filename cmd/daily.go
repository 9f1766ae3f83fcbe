package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/sieve/internal/formatter"
	"github.com/desertthunder/sieve/internal/models"
	"github.com/desertthunder/sieve/internal/repositories"
	"github.com/desertthunder/sieve/internal/shared"
	"github.com/desertthunder/sieve/internal/tasks"
	"github.com/desertthunder/sieve/internal/ui"
	"github.com/urfave/cli/v3"
)

// Daily generates today's playlist, writes it to the output directory and records it in history.
func (r *Runner) Daily(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.DailyOptsFromConfig(r.config.Playlist)
	if tags := cmd.StringSlice("tags"); len(tags) > 0 {
		opts.Tags = tags
	}
	if cmd.IsSet("num-tracks") {
		opts.NumTracks = cmd.Int("num-tracks")
	}
	opts.NoFilter = cmd.Bool("no-filter")

	formatName := r.config.Playlist.Format
	if cmd.IsSet("format") {
		formatName = cmd.String("format")
	}
	format, err := formatter.ParseFormat(formatName)
	if err != nil {
		return err
	}

	outputDir := r.config.Playlist.OutputDir
	if cmd.IsSet("output-dir") {
		outputDir = cmd.String("output-dir")
	}

	catalog, err := r.catalogService()
	if err != nil {
		return err
	}

	db, closeDB, err := r.database()
	if err != nil {
		return err
	}
	defer closeDB()

	var filter *tasks.FilterEngine
	switch {
	case opts.NoFilter:
		r.logger.Info("likes filtering skipped")
	case !r.config.FilteringEnabled():
		r.logger.Info("likes filtering disabled (no SoundCloud token or filter.enabled = false)")
	default:
		filter = r.filterEngine(repositories.NewFilterRunRepository(db))
	}

	logger := shared.WithLogger(r.logger, "tags", opts.Tags)
	engine := tasks.NewDailyEngine(catalog, filter, repositories.NewHistoryRepository(db), logger)

	progress := make(chan tasks.ProgressUpdate, 64)
	done := r.drainProgress(progress)
	playlist, err := engine.Generate(ctx, opts, progress)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("failed to generate playlist: %w", err)
	}

	path, err := formatter.WritePlaylist(playlist, outputDir, format)
	if err != nil {
		return err
	}
	r.logger.Info("playlist written", "path", path, "tracks", playlist.Len())

	return r.writePlain("%s", ui.RenderPlaylist(playlist, path))
}

// Filter fetches top tracks for the given tags and reports which ones the user already likes.
//
// Unlike [Runner.Daily] it neither writes a playlist nor touches history.
func (r *Runner) Filter(ctx context.Context, cmd *cli.Command) error {
	tags := cmd.StringSlice("tags")
	limit := cmd.Int("limit")

	catalog, err := r.catalogService()
	if err != nil {
		return err
	}

	var candidates []models.Track
	seen := make(map[string]struct{})
	for _, tag := range tags {
		tracks, err := catalog.TopTracksByTag(ctx, tag, limit)
		if err != nil {
			r.logger.Warn("failed to fetch tag", "tag", tag, "error", err)
			continue
		}
		for _, t := range tracks {
			if _, dup := seen[t.Key()]; dup {
				continue
			}
			seen[t.Key()] = struct{}{}
			candidates = append(candidates, t)
		}
	}

	var runs tasks.RunStore
	if cmd.Bool("save") {
		db, closeDB, err := r.database()
		if err != nil {
			return err
		}
		defer closeDB()
		runs = repositories.NewFilterRunRepository(db)
	}

	progress := make(chan tasks.ProgressUpdate, 64)
	done := r.drainProgress(progress)
	result := r.filterEngine(runs).Run(ctx, candidates, progress)
	close(progress)
	<-done

	if cmd.Bool("json") {
		return r.writeJSON(result.Full(), true)
	}
	return r.writePlain("%s", ui.RenderFilterResult(result))
}
