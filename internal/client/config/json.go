package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/adiwinata/fittrack/internal/flagx"
	"github.com/adiwinata/fittrack/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify the timeout either as a string like
// "15s" or as integer nanoseconds.
type JsonConfig struct {
	ServerBaseURL  string         `json:"server_base_url"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	DatabasePath   string         `json:"database_path"`
}

// parseJson overlays Config with values loaded from a JSON file selected via
// the -c or -config flags. When no file is given the function is a no-op.
// Read or unmarshal errors panic; the intended usage is
// defaults -> parseJson -> parseFlags, where later stages override earlier
// ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.ServerBaseURL = jc.ServerBaseURL
	cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
}
