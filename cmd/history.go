package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/sieve/internal/models"
	"github.com/desertthunder/sieve/internal/repositories"
	"github.com/desertthunder/sieve/internal/shared"
	"github.com/desertthunder/sieve/internal/ui"
	"github.com/urfave/cli/v3"
)

type historyJSON struct {
	Day      string    `json:"day"`
	Position int       `json:"position"`
	Name     string    `json:"name"`
	Artist   string    `json:"artist"`
	URL      string    `json:"url,omitempty"`
	Created  time.Time `json:"created_at"`
}

type dayJSON struct {
	Day    string `json:"day"`
	Tracks int    `json:"tracks"`
}

type runJSON struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
	models.FilterSummary
}

// HistoryList prints the recorded days, or the tracks recommended on --day.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.database()
	if err != nil {
		return err
	}
	defer closeDB()
	repo := repositories.NewHistoryRepository(db)

	if day := cmd.String("day"); day != "" {
		if _, err := time.Parse(models.DayLayout, day); err != nil {
			return fmt.Errorf("%w: day must be YYYY-MM-DD, got %q", shared.ErrInvalidArgument, day)
		}

		entries, err := repo.ByDay(day)
		if err != nil {
			return err
		}

		if cmd.Bool("json") {
			out := make([]historyJSON, 0, len(entries))
			for _, e := range entries {
				t := e.Track()
				out = append(out, historyJSON{
					Day: e.Day(), Position: t.Position, Name: t.Name, Artist: t.Artist, URL: t.URL, Created: e.CreatedAt(),
				})
			}
			return r.writeJSON(out, true)
		}

		if len(entries) == 0 {
			return r.writePlain("No tracks recorded for %s\n", day)
		}
		r.writePlainHeader("Recommended on " + day)
		for _, e := range entries {
			t := e.Track()
			r.writePlain("%3d. %s - %s\n", t.Position, t.Artist, t.Name)
		}
		return nil
	}

	days, err := repo.ListDays()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]dayJSON, 0, len(days))
		for _, d := range days {
			out = append(out, dayJSON{Day: d.Day, Tracks: d.Tracks})
		}
		return r.writeJSON(out, true)
	}

	if len(days) == 0 {
		return r.writePlain("No history recorded yet\n")
	}
	r.writePlainHeader("History")
	for _, d := range days {
		r.writePlain("%s  %d tracks\n", d.Day, d.Tracks)
	}
	return nil
}

// HistoryClear deletes every history entry so all tracks become eligible again.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("force") {
		return fmt.Errorf("%w: pass --force to clear history", shared.ErrMissingArgument)
	}

	db, closeDB, err := r.database()
	if err != nil {
		return err
	}
	defer closeDB()

	n, err := repositories.NewHistoryRepository(db).Clear()
	if err != nil {
		return err
	}
	r.logger.Info("history cleared", "entries", n)
	return r.writePlain("%s Removed %d history entries\n", ui.Styles().OK("✓"), n)
}

// Runs lists recent filtering sessions, or shows one with --id.
func (r *Runner) Runs(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.database()
	if err != nil {
		return err
	}
	defer closeDB()
	repo := repositories.NewFilterRunRepository(db)

	if id := cmd.String("id"); id != "" {
		run, err := repo.Get(id)
		if err != nil {
			return err
		}
		if cmd.Bool("json") {
			return r.writeJSON(run.Result().Full(), true)
		}
		r.writePlainHeader(fmt.Sprintf("Run #%d at %s", run.Sequence(), run.CreatedAt().Format(time.DateTime)))
		return r.writePlain("%s", ui.RenderFilterResult(run.Result()))
	}

	runs, err := repo.List(cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]runJSON, 0, len(runs))
		for _, run := range runs {
			out = append(out, runJSON{
				ID: run.ID(), Sequence: run.Sequence(), CreatedAt: run.CreatedAt(), FilterSummary: run.Result().Summary(),
			})
		}
		return r.writeJSON(out, true)
	}

	if len(runs) == 0 {
		return r.writePlain("No filtering runs recorded yet\n")
	}
	r.writePlainHeader("Filtering runs")
	for _, run := range runs {
		s := run.Result().Summary()
		status := ui.Styles().OK("ok")
		if s.HasErrors {
			status = ui.Styles().Warn(fmt.Sprintf("%d error(s)", s.ErrorCount))
		}
		r.writePlain("#%-4d %s  %s  removed %d/%d  %s\n",
			run.Sequence(), run.CreatedAt().Format(time.DateTime), run.ID(), s.RemovedCount, s.OriginalCount, status)
	}
	return nil
}
