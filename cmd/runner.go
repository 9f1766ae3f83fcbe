package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sieve/internal/services"
	"github.com/desertthunder/sieve/internal/shared"
	"github.com/desertthunder/sieve/internal/tasks"
	"github.com/desertthunder/sieve/internal/ui"
	"github.com/urfave/cli/v3"
)

const version = "0.3.0"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.CatalogService
	likes      tasks.LikesClient
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Services and the database are built from the config when left nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.CatalogService
	Likes      tasks.LikesClient
	DB         *sql.DB
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
		opts.Config.ApplyEnv()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		likes:      opts.Likes,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "sieve",
		Usage:   "Daily track recommendations without the songs you already like",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("SIEVE_CONFIG"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before:   r.loadConfig,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, tokenCommand, dailyCommand, filterCommand, likesCommand, matchCommand, historyCommand, runsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reads the config file when it exists and applies the log level.
//
// A missing file keeps the current configuration so `sieve setup` can create it.
func (r *Runner) loadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	r.configPath = path

	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else if !errors.Is(err, os.ErrNotExist) {
		return ctx, fmt.Errorf("failed to read config file: %w", err)
	} else {
		r.logger.Debug("config file not found, using defaults", "path", path)
	}

	level := shared.ParseLogLevel(r.config.Logging.Level)
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)

	return ctx, nil
}

// catalogService returns the injected catalog or a Last.fm client built from the config.
func (r *Runner) catalogService() (services.CatalogService, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}
	svc, err := services.NewLastFMService(r.config.Credentials.LastFM, r.config.Fetch.RequestsPerSecond, r.httpClient)
	if err != nil {
		return nil, fmt.Errorf("%w (set credentials.lastfm.api_key or LASTFM_API_KEY)", err)
	}
	return svc, nil
}

// likesClient returns the injected likes client or a SoundCloud client built from the config.
func (r *Runner) likesClient() tasks.LikesClient {
	if r.likes != nil {
		return r.likes
	}
	return services.NewSoundCloudService(r.config.Credentials.SoundCloud, r.config.Fetch, r.httpClient.Transport)
}

func (r *Runner) fetcher() *tasks.ReferenceFetcher {
	return tasks.NewReferenceFetcher(r.likesClient(), tasks.FetchOptsFromConfig(r.config.Fetch), r.logger)
}

// filterEngine builds a fresh engine (and reference cache) for one session.
func (r *Runner) filterEngine(runs tasks.RunStore) *tasks.FilterEngine {
	engine := tasks.NewFilterEngine(r.fetcher(), tasks.FilterOpts{
		Threshold: r.config.Filter.Threshold,
		Workers:   r.config.Filter.Workers,
		Limit:     r.config.Fetch.Limit,
	}, r.logger)
	if runs != nil {
		engine.WithRunStore(runs)
	}
	return engine
}

// database returns the injected database or opens (and migrates) the configured one.
//
// The returned func closes what was opened.
func (r *Runner) database() (*sql.DB, func(), error) {
	if r.db != nil {
		return r.db, func() {}, nil
	}

	db, err := shared.OpenConfigured(r.config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, func() {
		if err := db.Close(); err != nil {
			r.logger.Warn("failed to close database", "error", err)
		}
	}, nil
}

// drainProgress logs updates until progress is closed, then closes the returned channel.
func (r *Runner) drainProgress(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			if u.Phase == tasks.MatchTracks {
				r.logger.Debug(ui.RenderProgress(u))
				continue
			}
			r.logger.Info(ui.RenderProgress(u))
		}
	}()
	return done
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
