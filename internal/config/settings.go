package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sunodl/suno-dl/internal/http"
	"github.com/sunodl/suno-dl/internal/retry"
	"github.com/sunodl/suno-dl/internal/state"
)

// Duration wraps time.Duration so TOML values can be written as
// human-readable strings like "2s" or "1m30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Settings holds all configuration options for a download run.
type Settings struct {
	// Credentials and endpoints
	Token      string `toml:"token"`
	APIBaseURL string `toml:"api_base_url"`

	// Download settings
	OutputDir  string `toml:"output_dir"`
	MaxWorkers int    `toml:"max_workers"`
	Resume     bool   `toml:"resume"`

	// Retry settings
	DownloadMaxAttempts int      `toml:"download_max_attempts"`
	RetryBaseDelay      Duration `toml:"retry_base_delay"`
	RetryJitter         bool     `toml:"retry_jitter"`

	// Artwork settings
	EmbedArtwork   bool   `toml:"embed_artwork"`
	ArtworkMaxSize int    `toml:"artwork_max_size"`
	ArtworkOnError string `toml:"artwork_on_error"` // ignore, fail

	// Progress reporting
	ProgressInterval Duration `toml:"progress_interval"`

	// Proxy settings
	Proxies       []string `toml:"proxies"`
	ProxyStrategy string   `toml:"proxy_strategy"` // rotate, sticky, random

	// State tracking
	StateFile      string `toml:"state_file"`
	StateOnCorrupt string `toml:"state_on_corrupt"` // fail, reset

	// Playlist settings
	CreatePlaylist bool   `toml:"create_playlist"`
	PlaylistFormat string `toml:"playlist_format"` // m3u, pls

	// DryRun enumerates and reports without downloading anything.
	// Set from the command line only, never from the config file.
	DryRun bool `toml:"-"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		OutputDir:  "suno-downloads",
		MaxWorkers: 10,
		Resume:     true,

		DownloadMaxAttempts: 3,
		RetryBaseDelay:      Duration{2 * time.Second},
		RetryJitter:         false,

		EmbedArtwork:   true,
		ArtworkMaxSize: 1000,
		ArtworkOnError: "ignore",

		ProgressInterval: Duration{30 * time.Second},

		ProxyStrategy: "rotate",

		StateFile:      state.DefaultFileName,
		StateOnCorrupt: "fail",

		CreatePlaylist: false,
		PlaylistFormat: "m3u",
	}
}

// Load reads settings from a TOML file, substituting ${ENV_VAR}
// references from the environment. A missing file yields defaults;
// keys absent from the file keep their default values, so a config
// file only needs the settings it changes.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content := substituteEnvVars(string(data))

	settings := DefaultSettings()
	if _, err := toml.Decode(content, settings); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return settings, nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable
// values, leaving unknown references untouched.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1]
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		return match
	})
}

var validArtworkPolicies = map[string]bool{"ignore": true, "fail": true}
var validPlaylistFormats = map[string]bool{"m3u": true, "pls": true}

// Validate checks the settings for errors. Returns a slice of error
// messages, empty if valid.
func (s *Settings) Validate() []string {
	var errs []string

	if s.OutputDir == "" {
		errs = append(errs, "output_dir: must not be empty")
	}
	if s.MaxWorkers < 1 {
		errs = append(errs, fmt.Sprintf("max_workers: must be at least 1, got %d", s.MaxWorkers))
	}
	if s.DownloadMaxAttempts < 1 {
		errs = append(errs, fmt.Sprintf("download_max_attempts: must be at least 1, got %d", s.DownloadMaxAttempts))
	}
	if s.RetryBaseDelay.Duration < 0 {
		errs = append(errs, fmt.Sprintf("retry_base_delay: must not be negative, got %s", s.RetryBaseDelay))
	}
	if s.ProgressInterval.Duration <= 0 {
		errs = append(errs, fmt.Sprintf("progress_interval: must be positive, got %s", s.ProgressInterval))
	}
	if s.ArtworkMaxSize < 0 {
		errs = append(errs, fmt.Sprintf("artwork_max_size: must not be negative, got %d", s.ArtworkMaxSize))
	}
	if !validArtworkPolicies[s.ArtworkOnError] {
		errs = append(errs, fmt.Sprintf("artwork_on_error: must be one of ignore, fail; got %q", s.ArtworkOnError))
	}
	if !validPlaylistFormats[s.PlaylistFormat] {
		errs = append(errs, fmt.Sprintf("playlist_format: must be one of m3u, pls; got %q", s.PlaylistFormat))
	}
	if _, err := http.ParseProxyStrategy(s.ProxyStrategy); err != nil {
		errs = append(errs, fmt.Sprintf("proxy_strategy: %v", err))
	}
	if _, err := state.ParseCorruptPolicy(s.StateOnCorrupt); err != nil {
		errs = append(errs, fmt.Sprintf("state_on_corrupt: %v", err))
	}
	if s.StateFile == "" {
		errs = append(errs, "state_file: must not be empty")
	}

	return errs
}

// ToRetryPolicy converts the retry settings into a retry.Policy.
func (s *Settings) ToRetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: s.DownloadMaxAttempts,
		BaseDelay:   s.RetryBaseDelay.Duration,
		Jitter:      s.RetryJitter,
	}
}

// ToProxyPool builds the proxy pool from the configured proxy list and
// strategy. Returns nil when no proxies are configured.
func (s *Settings) ToProxyPool() (*http.ProxyPool, error) {
	strategy, err := http.ParseProxyStrategy(s.ProxyStrategy)
	if err != nil {
		return nil, err
	}
	return http.NewProxyPool(s.Proxies, strategy)
}

// ToCorruptPolicy converts the state_on_corrupt setting.
func (s *Settings) ToCorruptPolicy() (state.CorruptPolicy, error) {
	return state.ParseCorruptPolicy(s.StateOnCorrupt)
}
