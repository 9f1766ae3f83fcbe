// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create the config file if missing, initialize the database and run migrations",
		Action: r.Setup,
	}
}

// dailyCommand generates the day's playlist
func dailyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "daily",
		Usage: "Generate today's playlist from catalog tags",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "tags",
				Aliases: []string{"t"},
				Usage:   "Tags to draw candidates from (default: playlist.tags)",
			},
			&cli.IntFlag{
				Name:    "num-tracks",
				Aliases: []string{"n"},
				Usage:   "Number of tracks in the playlist (default: playlist.num_tracks)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: json, csv, md or txt (default: playlist.format)",
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Usage:   "Directory for the playlist file (default: playlist.output_dir)",
			},
			&cli.BoolFlag{
				Name:  "no-filter",
				Usage: "Skip removing tracks already liked on SoundCloud",
			},
		},
		Action: r.Daily,
	}
}

// filterCommand filters a tag's top tracks against the user's likes without touching history
func filterCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "filter",
		Usage: "Show which of a tag's top tracks are already liked",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "tags",
				Aliases:  []string{"t"},
				Usage:    "Tags to draw candidates from",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Candidates per tag",
				Value: 50,
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Record the run in the database",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the full result as JSON",
			},
		},
		Action: r.Filter,
	}
}

// likesCommand lists the reference set
func likesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "likes",
		Usage: "List liked SoundCloud tracks as they are used for matching",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of likes (default: fetch.limit)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Likes,
	}
}

// matchCommand scores two tracks against each other
func matchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "match",
		Usage:     "Compare two tracks the way likes filtering does, or find the closest liked track",
		ArgsUsage: "<title> <artist> [<title> <artist>]",
		Flags: []cli.Flag{
			&cli.FloatFlag{
				Name:  "threshold",
				Usage: "Match threshold (default: filter.threshold)",
			},
		},
		Action: r.Match,
	}
}

// historyCommand inspects and resets recommendation history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Previously recommended tracks",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded days, or the tracks of one day",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "day",
						Usage: "Day to show (YYYY-MM-DD)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "clear",
				Usage: "Forget every recommended track",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Confirm clearing history",
					},
				},
				Action: r.HistoryClear,
			},
		},
	}
}

// runsCommand lists recent filtering sessions
func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Recent likes filtering runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of runs to list",
				Value: 10,
			},
			&cli.StringFlag{
				Name:  "id",
				Usage: "Show the full result of one run",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Runs,
	}
}

// tokenCommand extracts the SoundCloud OAuth token from a browser request
func tokenCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Read the SoundCloud OAuth token from a request copied as cURL",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "curl",
				Usage: "File containing a request to api-v2.soundcloud.com copied as cURL",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open SoundCloud in the browser first",
			},
			&cli.BoolFlag{
				Name:  "verify",
				Usage: "Check the token against the SoundCloud profile endpoint",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Write the token to the config file",
			},
		},
		Action: r.Token,
	}
}
