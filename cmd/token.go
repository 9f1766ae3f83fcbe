package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/sieve/internal/shared"
	"github.com/desertthunder/sieve/internal/ui"
	"github.com/urfave/cli/v3"
)

const soundCloudLikesURL = "https://soundcloud.com/you/likes"

// Token extracts the OAuth token from a copied browser request and optionally verifies and saves it.
func (r *Runner) Token(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("curl")

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(soundCloudLikesURL); err != nil {
			r.logger.Warn("could not open browser", "url", soundCloudLikesURL, "error", err)
		}
		r.writePlain("%s\n", ui.Styles().Help(
			"Log in, open the developer tools Network tab, copy a request to api-v2.soundcloud.com as cURL and save it to a file."))
		if path == "" {
			return nil
		}
	}

	if path == "" {
		return fmt.Errorf("%w: --curl <file>", shared.ErrMissingArgument)
	}

	req, err := shared.ParseCurlFile(path)
	if err != nil {
		return err
	}
	token, err := req.SoundCloudToken()
	if err != nil {
		return err
	}
	r.config.Credentials.SoundCloud.OAuthToken = token

	if cmd.Bool("verify") {
		user, err := r.likesClient().Profile(ctx)
		if err != nil {
			return fmt.Errorf("token rejected: %w", err)
		}
		r.writePlain("%s Token belongs to %s (%d likes)\n", ui.Styles().OK("✓"), user.Username, user.LikesCount)
	}

	if !cmd.Bool("save") {
		return r.writePlain("export SOUNDCLOUD_OAUTH_TOKEN=%s\n", token)
	}

	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}
	if err := r.config.Save(configPath); err != nil {
		return err
	}
	r.logger.Info("saved SoundCloud token", "path", configPath)
	return r.writePlain("%s Saved token to %s\n", ui.Styles().OK("✓"), configPath)
}
