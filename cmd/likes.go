package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/sieve/internal/matching"
	"github.com/desertthunder/sieve/internal/models"
	"github.com/desertthunder/sieve/internal/shared"
	"github.com/desertthunder/sieve/internal/ui"
	"github.com/urfave/cli/v3"
)

// Likes prints the user's liked tracks after normalization, the form they are matched in.
func (r *Runner) Likes(ctx context.Context, cmd *cli.Command) error {
	fetcher := r.fetcher()

	tracks, err := fetcher.Fetch(ctx, cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to fetch likes: %w", err)
	}

	if cmd.Bool("json") {
		if tracks == nil {
			tracks = []models.Track{}
		}
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	stats := fetcher.Stats()
	if cmd.Bool("pretty") {
		r.writePlainHeader(fmt.Sprintf("SoundCloud likes (%d)", len(tracks)))
	}
	for i, t := range tracks {
		r.writePlain("%4d. %s\n", i+1, t)
	}

	switch {
	case stats.Partial:
		r.writePlain("%s\n", ui.Styles().Warn("Likes were only partially fetched"))
	case stats.CapReached:
		r.writePlain("%s\n", ui.Styles().Help(fmt.Sprintf("Stopped after %d pages", stats.Pages)))
	}
	if stats.Skipped > 0 {
		r.writePlain("%s\n", ui.Styles().Help(fmt.Sprintf("Skipped %d likes that were not usable tracks", stats.Skipped)))
	}
	return nil
}

// Match scores two tracks given as title/artist pairs and reports whether they count as the same song.
//
// With a single pair it searches the user's likes for the closest track instead.
func (r *Runner) Match(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 2 && cmd.NArg() != 4 {
		return fmt.Errorf("%w: expected <title> <artist> [<title> <artist>], got %d argument(s)",
			shared.ErrMissingArgument, cmd.NArg())
	}
	args := cmd.Args().Slice()

	candidate, err := models.NewTrack(args[0], args[1])
	if err != nil {
		return fmt.Errorf("%w: first track: %v", shared.ErrInvalidArgument, err)
	}

	threshold := r.config.Filter.Threshold
	if cmd.IsSet("threshold") {
		threshold = cmd.Float("threshold")
		if threshold <= 0 || threshold > 1 {
			return fmt.Errorf("%w: threshold must be in (0, 1], got %v", shared.ErrInvalidArgument, threshold)
		}
	}
	matcher := matching.NewMatcher(threshold)

	var reference models.Track
	if len(args) == 4 {
		reference, err = models.NewTrack(args[2], args[3])
		if err != nil {
			return fmt.Errorf("%w: second track: %v", shared.ErrInvalidArgument, err)
		}
	} else {
		likes, err := r.fetcher().Fetch(ctx, 0)
		if err != nil {
			return fmt.Errorf("failed to fetch likes: %w", err)
		}
		best, ok, err := matcher.Best(candidate, likes, r.config.Filter.SearchThreshold)
		if err != nil {
			return fmt.Errorf("%w: first track: %v", shared.ErrInvalidArgument, err)
		}
		if !ok {
			return r.writePlain("%s\n", ui.Styles().Warn(fmt.Sprintf(
				"No liked track scores %.2f or more against %s (%d likes searched)",
				r.config.Filter.SearchThreshold, candidate, len(likes))))
		}
		reference = best.Track
	}

	normCandidate, err := matching.NormalizeTrack(candidate)
	if err != nil {
		return fmt.Errorf("%w: first track: %v", shared.ErrInvalidArgument, err)
	}
	normReference, err := matching.NormalizeTrack(reference)
	if err != nil {
		return fmt.Errorf("%w: second track: %v", shared.ErrInvalidArgument, err)
	}

	matched, err := matcher.Matches(candidate, []models.Track{reference})
	if err != nil {
		return err
	}

	breakdown := matching.Explain(normCandidate, normReference)
	r.logger.Debug("match computed", "score", breakdown.Score, "matched", matched)

	return r.writePlain("%s", ui.RenderMatch(candidate, reference, normCandidate, normReference, breakdown, matched, matcher.Threshold))
}
