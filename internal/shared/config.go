package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Filter      FilterConfig      `toml:"filter"`
	Fetch       FetchConfig       `toml:"fetch"`
	Playlist    PlaylistConfig    `toml:"playlist"`
	Database    DatabaseConfig    `toml:"database"`
	Logging     LoggingConfig     `toml:"logging"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	SoundCloud SoundCloudConfig `toml:"soundcloud"`
	LastFM     LastFMConfig     `toml:"lastfm"`
}

// SoundCloudConfig contains the token used to read the user's likes.
type SoundCloudConfig struct {
	OAuthToken string `toml:"oauth_token"`
	BaseURL    string `toml:"base_url"`
}

// LastFMConfig contains Last.fm API credentials.
type LastFMConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// FilterConfig tunes the matcher and the filtering engine.
//
// Threshold and SearchThreshold are empirical defaults (0.85 and 0.3).
type FilterConfig struct {
	Enabled         bool    `toml:"enabled"`
	Threshold       float64 `toml:"threshold"`
	SearchThreshold float64 `toml:"search_threshold"`
	Workers         int     `toml:"workers"`
}

// FetchConfig tunes reference-set pagination and retries.
type FetchConfig struct {
	Limit             int      `toml:"limit"`
	PageSize          int      `toml:"page_size"`
	MaxPages          int      `toml:"max_pages"`
	MaxAttempts       int      `toml:"max_attempts"`
	InitialBackoff    Duration `toml:"initial_backoff"`
	RateLimitWait     Duration `toml:"rate_limit_wait"`
	Timeout           Duration `toml:"timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
}

// PlaylistConfig controls daily playlist generation.
type PlaylistConfig struct {
	Tags        []string `toml:"tags"`
	NumTracks   int      `toml:"num_tracks"`
	LimitPerTag int      `toml:"limit_per_tag"`
	OutputDir   string   `toml:"output_dir"`
	Format      string   `toml:"format"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Duration is a [time.Duration] that decodes from strings like "1s" or "250ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, string(text), err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.ApplyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Save writes the configuration to path as TOML, replacing any existing file.
//
// Comments from the example config are not preserved.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides credentials with SOUNDCLOUD_OAUTH_TOKEN and LASTFM_API_KEY when set.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv("SOUNDCLOUD_OAUTH_TOKEN")); v != "" {
		c.Credentials.SoundCloud.OAuthToken = v
	}
	if v := strings.TrimSpace(os.Getenv("LASTFM_API_KEY")); v != "" {
		c.Credentials.LastFM.APIKey = v
	}
}

// Validate rejects out-of-range values so they never reach the matcher or fetcher.
func (c *Config) Validate() error {
	f := c.Filter
	if f.Threshold <= 0 || f.Threshold > 1 {
		return fmt.Errorf("%w: filter.threshold must be in (0, 1], got %v", ErrInvalidConfig, f.Threshold)
	}
	if f.SearchThreshold < 0 || f.SearchThreshold > 1 {
		return fmt.Errorf("%w: filter.search_threshold must be in [0, 1], got %v", ErrInvalidConfig, f.SearchThreshold)
	}
	if f.Workers < 1 {
		return fmt.Errorf("%w: filter.workers must be positive, got %d", ErrInvalidConfig, f.Workers)
	}

	fc := c.Fetch
	switch {
	case fc.Limit < 1:
		return fmt.Errorf("%w: fetch.limit must be positive, got %d", ErrInvalidConfig, fc.Limit)
	case fc.PageSize < 1 || fc.PageSize > 50:
		return fmt.Errorf("%w: fetch.page_size must be in [1, 50], got %d", ErrInvalidConfig, fc.PageSize)
	case fc.MaxPages < 1:
		return fmt.Errorf("%w: fetch.max_pages must be positive, got %d", ErrInvalidConfig, fc.MaxPages)
	case fc.MaxAttempts < 1:
		return fmt.Errorf("%w: fetch.max_attempts must be positive, got %d", ErrInvalidConfig, fc.MaxAttempts)
	case fc.InitialBackoff.Duration < 0 || fc.RateLimitWait.Duration < 0:
		return fmt.Errorf("%w: fetch backoff durations cannot be negative", ErrInvalidConfig)
	case fc.RequestsPerSecond < 0:
		return fmt.Errorf("%w: fetch.requests_per_second cannot be negative", ErrInvalidConfig)
	}

	if c.Playlist.NumTracks < 1 {
		return fmt.Errorf("%w: playlist.num_tracks must be positive, got %d", ErrInvalidConfig, c.Playlist.NumTracks)
	}
	if c.Playlist.LimitPerTag < 1 {
		return fmt.Errorf("%w: playlist.limit_per_tag must be positive, got %d", ErrInvalidConfig, c.Playlist.LimitPerTag)
	}

	return nil
}

// FilteringEnabled reports whether likes filtering can run with this configuration.
func (c *Config) FilteringEnabled() bool {
	return c.Filter.Enabled && c.Credentials.SoundCloud.OAuthToken != ""
}
