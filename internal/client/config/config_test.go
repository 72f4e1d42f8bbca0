package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080/api", c.ServerBaseURL)
	assert.Equal(t, 15*time.Second, c.RequestTimeout)
	assert.Equal(t, "fittrack.db", c.DatabasePath)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://127.0.0.1:8080/api", cfg.ServerBaseURL)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
}
