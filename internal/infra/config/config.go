// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/osa030/pomotune/internal/domain/pomodoro"
)

// Config represents the application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Timer       TimerConfig       `yaml:"timer"`
	Playback    PlaybackConfig    `yaml:"playback"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Audio       AudioConfig       `yaml:"audio"`
	Cue         CueConfig         `yaml:"cue"`
	Store       StoreConfig       `yaml:"store"`
	Visibility  VisibilityConfig  `yaml:"visibility"`
	Integration IntegrationConfig `yaml:"integration"`
	Spotify     SpotifyConfig     `yaml:"spotify"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr     string      `yaml:"addr" default:":8080"`
	APIToken string      `yaml:"api_token"`
	Hooks    HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// TimerConfig represents Pomodoro timer configuration.
type TimerConfig struct {
	FocusSec                int   `yaml:"focus_sec" default:"1500" validate:"gt=0"`
	ShortBreakSec           int   `yaml:"short_break_sec" default:"300" validate:"gt=0"`
	LongBreakSec            int   `yaml:"long_break_sec" default:"900" validate:"gt=0"`
	SessionsBeforeLongBreak int   `yaml:"sessions_before_long_break" default:"4" validate:"gte=1"`
	TickIntervalMs          int   `yaml:"tick_interval_ms" default:"1000" validate:"gte=10,lte=60000"`
	CountSkippedSessions    *bool `yaml:"count_skipped_sessions" default:"true"`
}

// PlaybackConfig represents music playback configuration.
type PlaybackConfig struct {
	DefaultVolume   float64 `yaml:"default_volume" default:"0.8" validate:"gte=0,lte=1"`
	FetchTimeoutSec int     `yaml:"fetch_timeout_sec" default:"15" validate:"gte=1,lte=300"`
}

// CatalogConfig represents the track catalog configuration.
type CatalogConfig struct {
	Sources []SourceConfig          `yaml:"sources" validate:"required,min=1,dive"`
	Filters map[string]FilterConfig `yaml:"filters"`
	LastFM  LastFMConfig            `yaml:"lastfm"`
}

// LastFMConfig enables genre tagging through Last.fm. An empty API key disables it.
type LastFMConfig struct {
	APIKey            string  `yaml:"api_key"`
	RequestsPerSecond float64 `yaml:"requests_per_second" default:"5" validate:"gte=0"`
}

// SourceConfig represents a single catalog source configuration.
type SourceConfig struct {
	Type        string         `yaml:"type" validate:"required,oneof=http local spotify"`
	DisplayName string         `yaml:"display_name" validate:"required"`
	Settings    map[string]any `yaml:"settings"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// AudioConfig represents the audio backend configuration.
type AudioConfig struct {
	Backend string    `yaml:"backend" default:"mpv" validate:"oneof=mpv none"`
	MPV     MPVConfig `yaml:"mpv"`
}

// MPVConfig represents mpv backend configuration.
type MPVConfig struct {
	Path            string   `yaml:"path" default:"mpv"`
	SocketPath      string   `yaml:"socket_path"` // Empty uses a temporary path
	ExtraArgs       []string `yaml:"extra_args"`
	StartTimeoutSec int      `yaml:"start_timeout_sec" default:"5" validate:"gte=1,lte=60"`
}

// CueConfig represents the completion cue configuration.
type CueConfig struct {
	Command    string `yaml:"command"` // Empty disables the cue
	TimeoutSec int    `yaml:"timeout_sec" default:"10" validate:"gte=1,lte=300"`
}

// StoreConfig represents the durable key-value store configuration.
type StoreConfig struct {
	Driver string `yaml:"driver" default:"sqlite" validate:"oneof=sqlite memory"`
	Path   string `yaml:"path" default:"pomotune.db"`
}

// VisibilityConfig represents the host visibility signal configuration.
type VisibilityConfig struct {
	Source   string         `yaml:"source" default:"manual" validate:"oneof=manual screensaver idle"`
	Settings map[string]any `yaml:"settings"`
}

// IntegrationConfig represents optional timer/music integration.
type IntegrationConfig struct {
	PauseMusicOnBreak bool `yaml:"pause_music_on_break"`
}

// SpotifyConfig represents Spotify API configuration.
// Required only when a spotify catalog source is configured.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"JP"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("POMOTUNE_API_TOKEN"); v != "" {
		c.Server.APIToken = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		c.Catalog.LastFM.APIKey = v
	}
	if v := os.Getenv("CATALOG_TOKEN"); v != "" {
		for i := range c.Catalog.Sources {
			if c.Catalog.Sources[i].Type == "http" {
				if c.Catalog.Sources[i].Settings == nil {
					c.Catalog.Sources[i].Settings = make(map[string]any)
				}
				c.Catalog.Sources[i].Settings["token"] = v
			}
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if c.HasSourceType("spotify") {
		if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" || c.Spotify.RefreshToken == "" {
			return errors.New("spotify source requires spotify.client_id, spotify.client_secret and spotify.refresh_token")
		}
	}

	return nil
}

// HasSourceType reports whether a catalog source of the given type is configured.
func (c *Config) HasSourceType(sourceType string) bool {
	for _, s := range c.Catalog.Sources {
		if s.Type == sourceType {
			return true
		}
	}
	return false
}

// Durations returns the configured timer durations.
func (c *Config) Durations() pomodoro.Durations {
	return pomodoro.Durations{
		Focus:      c.Timer.FocusSec,
		ShortBreak: c.Timer.ShortBreakSec,
		LongBreak:  c.Timer.LongBreakSec,
	}
}

// TickInterval returns the timer tick interval.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Timer.TickIntervalMs) * time.Millisecond
}

// CountSkippedSessions reports whether skipping a focus session counts it as completed.
func (c *Config) CountSkippedSessions() bool {
	return c.Timer.CountSkippedSessions == nil || *c.Timer.CountSkippedSessions
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Catalog.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// GetFilterSettings returns the settings for a filter.
func (c *Config) GetFilterSettings(filterName string) map[string]any {
	if f, ok := c.Catalog.Filters[filterName]; ok {
		return f.Settings
	}
	return nil
}
