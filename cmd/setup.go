package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/sieve/internal/shared"
	"github.com/desertthunder/sieve/internal/ui"
	"github.com/urfave/cli/v3"
)

// Setup writes the example config when none exists, then initializes the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
			r.writePlain("%s Created %s\n", ui.Styles().OK("✓"), configPath)
		}
	}

	config := r.config
	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	if config.Database.Path != ":memory:" {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	statuses, err := shared.MigrationStatuses(db)
	if err != nil {
		return err
	}
	for _, s := range statuses {
		r.writePlain("%s %04d %s\n", ui.Styles().OK("✓"), s.Version, s.Name)
	}

	if config.Credentials.LastFM.APIKey == "" {
		r.writePlain("%s\n", ui.Styles().Warn("Set credentials.lastfm.api_key (or LASTFM_API_KEY) to fetch candidates"))
	}
	if config.Credentials.SoundCloud.OAuthToken == "" {
		r.writePlain("%s\n", ui.Styles().Help("Set credentials.soundcloud.oauth_token (or SOUNDCLOUD_OAUTH_TOKEN) to filter out liked tracks"))
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}
