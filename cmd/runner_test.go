package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sieve/internal/models"
	"github.com/desertthunder/sieve/internal/repositories"
	"github.com/desertthunder/sieve/internal/services"
	"github.com/desertthunder/sieve/internal/shared"
	tu "github.com/desertthunder/sieve/internal/testing"
)

// stubLikes serves a single page of liked tracks.
type stubLikes struct {
	tracks []models.Track
}

func (s *stubLikes) Configured() bool { return true }

func (s *stubLikes) Profile(ctx context.Context) (*services.SoundCloudUser, error) {
	return &services.SoundCloudUser{ID: 1, Username: "listener", LikesCount: len(s.tracks)}, nil
}

func (s *stubLikes) LikesPage(ctx context.Context, limit, offset int) (*services.LikesPage, error) {
	page := &services.LikesPage{}
	if offset > 0 {
		return page, nil
	}
	for i, t := range s.tracks {
		page.Collection = append(page.Collection, tu.LikeItem(i+1, t.Name, t.Artist))
	}
	return page, nil
}

var catalogTracks = []models.Track{
	models.MustTrack("Weightless", "Marconi Union"),
	models.MustTrack("Teardrop", "Massive Attack"),
	models.MustTrack("Avril 14th", "Aphex Twin"),
	models.MustTrack("Svefn-g-englar", "Sigur Rós"),
}

type testEnv struct {
	runner *Runner
	output *bytes.Buffer
	db     *sql.DB
	dir    string
}

// newTestEnv builds a runner with a mock catalog, stubbed likes and an in-memory database.
func newTestEnv(t *testing.T, liked ...models.Track) *testEnv {
	t.Helper()

	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Credentials.SoundCloud.OAuthToken = "test-token"
	config.Playlist.OutputDir = filepath.Join(dir, "output")
	config.Database.Path = filepath.Join(dir, "sieve.db")

	output := &bytes.Buffer{}
	db := tu.MustOpenDB(t)
	runner := NewRunner(RunnerOpts{
		Config:  config,
		Catalog: &tu.MockCatalog{Tracks: map[string][]models.Track{"chill": catalogTracks}},
		Likes:   &stubLikes{tracks: liked},
		DB:      db,
		Logger:  log.New(io.Discard),
		Output:  output,
	})
	return &testEnv{runner: runner, output: output, db: db, dir: dir}
}

func (e *testEnv) run(t *testing.T, args ...string) error {
	t.Helper()
	argv := append([]string{"sieve", "--config", filepath.Join(e.dir, "config.toml")}, args...)
	return e.runner.app().Run(context.Background(), argv)
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			catalog := &tu.MockCatalog{}
			likes := &stubLikes{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Catalog:    catalog,
				Likes:      likes,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.catalog != catalog {
				t.Error("expected catalog to be set")
			}
			if runner.likes != likes {
				t.Error("expected likes client to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Fatal("expected default config to be set")
			}
			if runner.config.Filter.Threshold != 0.85 {
				t.Errorf("expected default threshold 0.85, got %v", runner.config.Filter.Threshold)
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("Hello, %s!\n", "World"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "Hello, World!\n" {
				t.Errorf("expected %q, got %q", "Hello, World!\n", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"setup", "token", "daily", "filter", "likes", "match", "history", "runs"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, name := range want {
			if commands[i].Name != name {
				t.Errorf("command %d: expected %q, got %q", i, name, commands[i].Name)
			}
		}
	})

	t.Run("loadConfig", func(t *testing.T) {
		t.Run("reads an existing file", func(t *testing.T) {
			env := newTestEnv(t)
			path := filepath.Join(env.dir, "config.toml")
			if err := os.WriteFile(path, []byte("[filter]\nthreshold = 0.9\n"), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			if err := env.run(t, "history", "list"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if env.runner.config.Filter.Threshold != 0.9 {
				t.Errorf("expected threshold 0.9 from file, got %v", env.runner.config.Filter.Threshold)
			}
			if env.runner.configPath != path {
				t.Errorf("expected configPath %q, got %q", path, env.runner.configPath)
			}
		})

		t.Run("rejects an invalid file", func(t *testing.T) {
			env := newTestEnv(t)
			path := filepath.Join(env.dir, "config.toml")
			if err := os.WriteFile(path, []byte("[filter]\nthreshold = 2.0\n"), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			err := env.run(t, "history", "list")
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})
}

func TestCommands(t *testing.T) {
	liked := models.MustTrack("Teardrop", "Massive Attack")

	t.Run("setup creates config and migrates the database", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run(t, "setup"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(env.dir, "config.toml"))
		tu.AssertFileExists(t, env.runner.config.Database.Path)
		for _, want := range []string{"0001", "0002"} {
			if !strings.Contains(env.output.String(), want) {
				t.Errorf("expected migration %s in output:\n%s", want, env.output.String())
			}
		}
	})

	t.Run("daily writes a playlist without liked tracks", func(t *testing.T) {
		env := newTestEnv(t, liked)

		if err := env.run(t, "daily", "--tags", "chill", "--num-tracks", "10", "--format", "json"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		files, err := filepath.Glob(filepath.Join(env.dir, "output", "playlist_*.json"))
		if err != nil || len(files) != 1 {
			t.Fatalf("expected one playlist file, got %v (%v)", files, err)
		}

		var playlist models.Playlist
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, files[0])), &playlist); err != nil {
			t.Fatalf("failed to decode playlist: %v", err)
		}
		if playlist.Len() != 3 {
			t.Fatalf("expected 3 tracks, got %d", playlist.Len())
		}
		for _, track := range playlist.Tracks {
			if track.Key() == liked.Key() {
				t.Errorf("liked track %s should have been removed", track)
			}
		}
		if playlist.Metadata.FilteringStats == nil || playlist.Metadata.FilteringStats.RemovedCount != 1 {
			t.Errorf("expected filtering stats with one removal, got %+v", playlist.Metadata.FilteringStats)
		}

		seen, err := repositories.NewHistoryRepository(env.db).SeenKeys()
		if err != nil {
			t.Fatalf("failed to read history: %v", err)
		}
		if len(seen) != 3 {
			t.Errorf("expected 3 history entries, got %d", len(seen))
		}

		runs, err := repositories.NewFilterRunRepository(env.db).List(0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 1 {
			t.Errorf("expected one recorded filter run, got %d", len(runs))
		}

		if !strings.Contains(env.output.String(), "Saved to") {
			t.Errorf("expected save location in output:\n%s", env.output.String())
		}
	})

	t.Run("daily skips tracks already in history", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run(t, "daily", "--tags", "chill", "--num-tracks", "10", "--no-filter"); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		err := env.run(t, "daily", "--tags", "chill", "--num-tracks", "10", "--no-filter")
		if err == nil || !strings.Contains(err.Error(), "no new candidate tracks") {
			t.Errorf("expected no candidates on second run, got %v", err)
		}
	})

	t.Run("daily rejects an unknown format", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run(t, "daily", "--format", "html"); err == nil {
			t.Error("expected error for unknown format")
		}
	})

	t.Run("filter reports removed tracks as JSON", func(t *testing.T) {
		env := newTestEnv(t, liked)

		if err := env.run(t, "filter", "--tags", "chill", "--json", "--save"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var report models.FilterReport
		if err := json.Unmarshal(env.output.Bytes(), &report); err != nil {
			t.Fatalf("failed to decode report: %v\n%s", err, env.output.String())
		}
		if report.OriginalCount != 4 || report.RemovedCount != 1 {
			t.Errorf("expected 1 of 4 removed, got %d of %d", report.RemovedCount, report.OriginalCount)
		}
		if len(report.RemovedTracks) != 1 || report.RemovedTracks[0].Name != liked.Name {
			t.Errorf("expected %s removed, got %v", liked, report.RemovedTracks)
		}

		runs, err := repositories.NewFilterRunRepository(env.db).List(0)
		if err != nil || len(runs) != 1 {
			t.Errorf("expected one saved run, got %d (%v)", len(runs), err)
		}
	})

	t.Run("filter keeps everything without a token", func(t *testing.T) {
		env := newTestEnv(t)
		env.runner.likes = nil
		env.runner.config.Credentials.SoundCloud.OAuthToken = ""

		if err := env.run(t, "filter", "--tags", "chill"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := env.output.String()
		if !strings.Contains(out, "Kept 4 of 4") {
			t.Errorf("expected all tracks kept:\n%s", out)
		}
		if !strings.Contains(out, "Unable to connect to SoundCloud") {
			t.Errorf("expected connection error message:\n%s", out)
		}
	})

	t.Run("likes lists normalized likes", func(t *testing.T) {
		env := newTestEnv(t, liked, models.MustTrack("Windowlicker (Remastered)", "Aphex Twin"))

		if err := env.run(t, "likes", "--json", "--pretty=false"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var tracks []models.Track
		if err := json.Unmarshal(env.output.Bytes(), &tracks); err != nil {
			t.Fatalf("failed to decode likes: %v\n%s", err, env.output.String())
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 likes, got %d", len(tracks))
		}
		if strings.Contains(tracks[1].Name, "Remastered") {
			t.Errorf("expected parenthetical removed, got %q", tracks[1].Name)
		}
	})

	t.Run("match", func(t *testing.T) {
		t.Run("recognizes a remaster", func(t *testing.T) {
			env := newTestEnv(t)

			if err := env.run(t, "match", "Teardrop (Remastered)", "Massive Attack", "Teardrop", "Massive Attack"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(env.output.String(), "same song") {
				t.Errorf("expected a match:\n%s", env.output.String())
			}
		})

		t.Run("rejects different songs", func(t *testing.T) {
			env := newTestEnv(t)

			if err := env.run(t, "match", "Teardrop", "Massive Attack", "Weightless", "Marconi Union"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(env.output.String(), "different songs") {
				t.Errorf("expected no match:\n%s", env.output.String())
			}
		})

		t.Run("finds the closest like", func(t *testing.T) {
			env := newTestEnv(t, liked, models.MustTrack("Windowlicker", "Aphex Twin"))

			if err := env.run(t, "match", "Teardrop - 2006 Remaster", "Massive Attack"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			out := env.output.String()
			if !strings.Contains(out, "same song") || !strings.Contains(strings.ToLower(out), "teardrop") {
				t.Errorf("expected the liked Teardrop as closest match:\n%s", out)
			}
		})

		t.Run("reports when nothing is close", func(t *testing.T) {
			env := newTestEnv(t, models.MustTrack("Windowlicker", "Aphex Twin"))

			if err := env.run(t, "match", "Zzzz", "Qqqq"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(env.output.String(), "No liked track") {
				t.Errorf("expected no-match notice:\n%s", env.output.String())
			}
		})

		t.Run("requires a title and artist", func(t *testing.T) {
			env := newTestEnv(t)

			err := env.run(t, "match", "Teardrop")
			if !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})

		t.Run("rejects an out of range threshold", func(t *testing.T) {
			env := newTestEnv(t)

			err := env.run(t, "match", "--threshold", "1.5", "a", "b", "c", "d")
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("history", func(t *testing.T) {
		setup := func(t *testing.T) *testEnv {
			env := newTestEnv(t)
			if err := repositories.NewHistoryRepository(env.db).Record("2024-03-09", catalogTracks[:2]); err != nil {
				t.Fatalf("failed to seed history: %v", err)
			}
			return env
		}

		t.Run("lists days", func(t *testing.T) {
			env := setup(t)

			if err := env.run(t, "history", "list"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(env.output.String(), "2024-03-09  2 tracks") {
				t.Errorf("expected day summary:\n%s", env.output.String())
			}
		})

		t.Run("lists one day as JSON", func(t *testing.T) {
			env := setup(t)

			if err := env.run(t, "history", "list", "--day", "2024-03-09", "--json"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var entries []historyJSON
			if err := json.Unmarshal(env.output.Bytes(), &entries); err != nil {
				t.Fatalf("failed to decode history: %v", err)
			}
			if len(entries) != 2 || entries[0].Name != "Weightless" {
				t.Errorf("unexpected entries: %+v", entries)
			}
		})

		t.Run("rejects a malformed day", func(t *testing.T) {
			env := setup(t)

			err := env.run(t, "history", "list", "--day", "03/09/2024")
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})

		t.Run("clear requires force", func(t *testing.T) {
			env := setup(t)

			err := env.run(t, "history", "clear")
			if !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})

		t.Run("clear removes everything", func(t *testing.T) {
			env := setup(t)

			if err := env.run(t, "history", "clear", "--force"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(env.output.String(), "Removed 2") {
				t.Errorf("expected removal count:\n%s", env.output.String())
			}
			seen, _ := repositories.NewHistoryRepository(env.db).SeenKeys()
			if len(seen) != 0 {
				t.Errorf("expected empty history, got %d keys", len(seen))
			}
		})
	})

	t.Run("token", func(t *testing.T) {
		writeCurl := func(t *testing.T, dir string) string {
			path := filepath.Join(dir, "likes.sh")
			cmd := "curl 'https://api-v2.soundcloud.com/me/likes' \\\n  -H 'Authorization: OAuth 2-1234-abcd'"
			if err := os.WriteFile(path, []byte(cmd), 0644); err != nil {
				t.Fatalf("failed to write curl file: %v", err)
			}
			return path
		}

		t.Run("prints an export line", func(t *testing.T) {
			env := newTestEnv(t)

			if err := env.run(t, "token", "--curl", writeCurl(t, env.dir), "--verify"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			out := env.output.String()
			if !strings.Contains(out, "export SOUNDCLOUD_OAUTH_TOKEN=2-1234-abcd") {
				t.Errorf("expected export line:\n%s", out)
			}
			if !strings.Contains(out, "listener") {
				t.Errorf("expected verified username:\n%s", out)
			}
		})

		t.Run("saves to the config file", func(t *testing.T) {
			env := newTestEnv(t)

			if err := env.run(t, "token", "--curl", writeCurl(t, env.dir), "--save"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			config, err := shared.LoadConfig(filepath.Join(env.dir, "config.toml"))
			if err != nil {
				t.Fatalf("failed to load saved config: %v", err)
			}
			if config.Credentials.SoundCloud.OAuthToken != "2-1234-abcd" {
				t.Errorf("expected saved token, got %q", config.Credentials.SoundCloud.OAuthToken)
			}
		})

		t.Run("requires a curl file", func(t *testing.T) {
			env := newTestEnv(t)

			if err := env.run(t, "token"); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})
	})

	t.Run("runs", func(t *testing.T) {
		env := newTestEnv(t)
		repo := repositories.NewFilterRunRepository(env.db)
		run := models.NewFilterRun(models.PassThrough(catalogTracks[:2], "SoundCloud request timed out. Please try again later."))
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to seed run: %v", err)
		}

		t.Run("lists runs", func(t *testing.T) {
			env.output.Reset()
			if err := env.run(t, "runs"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(env.output.String(), "removed 0/2") {
				t.Errorf("expected run summary:\n%s", env.output.String())
			}
		})

		t.Run("shows one run as JSON", func(t *testing.T) {
			env.output.Reset()
			if err := env.run(t, "runs", "--id", run.ID(), "--json"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var report models.FilterReport
			if err := json.Unmarshal(env.output.Bytes(), &report); err != nil {
				t.Fatalf("failed to decode report: %v", err)
			}
			if report.OriginalCount != 2 || report.ErrorCount != 1 {
				t.Errorf("unexpected report: %+v", report.FilterSummary)
			}
		})

		t.Run("unknown id", func(t *testing.T) {
			err := env.run(t, "runs", "--id", "missing")
			if !errors.Is(err, repositories.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	})
}
