// Package config defines pipeline configuration structures and loading
// hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load() layers an optional YAML file and environment variables on top.
// - External errors must be wrapped via this package's error helpers.
package config

import "path/filepath"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// APIBaseURL is the remote leaderboard API root.
	APIBaseURL string `koanf:"api_base_url"`

	// APITimeoutSeconds bounds each individual HTTP attempt.
	APITimeoutSeconds int `koanf:"api_timeout_seconds"`

	// APIPageSize is the default page size for paginated endpoints.
	APIPageSize int `koanf:"api_page_size"`

	// MaxRetries is how many times a failed request is retried.
	MaxRetries int `koanf:"max_retries"`

	// BackoffSeconds is the base retry backoff; the wait grows linearly
	// with the attempt index.
	BackoffSeconds float64 `koanf:"backoff_seconds"`

	// GameID identifies the game whose runs are ingested.
	GameID string `koanf:"game_id"`

	// NoteVarID and CharacterVarID are the custom attribute ids read
	// from each run's values map.
	NoteVarID      string `koanf:"note_var_id"`
	CharacterVarID string `koanf:"character_var_id"`

	// NoteNames and CharacterNames translate attribute values into
	// display names.
	NoteNames      map[string]string `koanf:"note_names"`
	CharacterNames map[string]string `koanf:"character_names"`

	// CooldownSeconds throttles on-demand refreshes.
	CooldownSeconds int `koanf:"cooldown_seconds"`

	// CacheDir holds the JSON cache files; DataDir holds the processed
	// snapshot.
	CacheDir string `koanf:"cache_dir"`
	DataDir  string `koanf:"data_dir"`
}

// New creates a Config with the fixed defaults of this deployment.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		APIBaseURL:        "https://www.speedrun.com/api/v1",
		APITimeoutSeconds: 10,
		APIPageSize:       200,
		MaxRetries:        2,
		BackoffSeconds:    2.0,
		GameID:            "o1y3y346",
		NoteVarID:         "68kwme38",
		CharacterVarID:    "38dgox08",
		NoteNames: map[string]string{
			"qvvz0dwq": "No SG",
			"le2v08zl": "SG",
		},
		CharacterNames: map[string]string{
			"lr36ddwl": "Shadow",
			"1dkonngl": "Gun Android",
			"10v9yypl": "Cannon Android",
		},
		CooldownSeconds: 7200,
		CacheDir:        filepath.Join("data", "cache"),
		DataDir:         filepath.Join("data", "processed"),
	}
}

// Cache file locations, each owned by exactly one pipeline stage.

// RunsCachePath is the verified-run cache.
func (c *Config) RunsCachePath() string {
	return filepath.Join(c.CacheDir, "runs_cache.json")
}

// PlayerCachePath is the player-name cache.
func (c *Config) PlayerCachePath() string {
	return filepath.Join(c.CacheDir, "players_cache.json")
}

// CategoryCachePath is the category catalog cache.
func (c *Config) CategoryCachePath() string {
	return filepath.Join(c.CacheDir, "categories_cache.json")
}

// LevelCachePath is the level catalog cache.
func (c *Config) LevelCachePath() string {
	return filepath.Join(c.CacheDir, "levels_cache.json")
}

// LastRefreshPath is the refresh timestamp document.
func (c *Config) LastRefreshPath() string {
	return filepath.Join(c.CacheDir, "last_refresh.json")
}

// SnapshotPath is the processed CSV snapshot.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.DataDir, "runs_processed.csv")
}
