package config

import "time"

// Config holds runtime settings for the FitTrack client.
//
// Fields:
//   - ServerBaseURL: base URL of the backend REST API, including any path
//     prefix (e.g. "https://api.fittrack.example/api").
//   - RequestTimeout: per-request HTTP timeout.
//   - DatabasePath: SQLite file holding the persisted session.
type Config struct {
	ServerBaseURL  string
	RequestTimeout time.Duration
	DatabasePath   string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080/api"
	c.RequestTimeout = 15 * time.Second
	c.DatabasePath = "fittrack.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
