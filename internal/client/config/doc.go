// Package config loads runtime configuration for the FitTrack client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the backend REST API
//	-t int      request timeout (seconds)
//	-d string   path to the local session database
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the timeout, so values can be
// either strings like "15s" or integer nanoseconds:
//
//	{
//	  "server_base_url": "https://api.fittrack.example/api",
//	  "request_timeout": "15s",
//	  "database_path": "fittrack.db"
//	}
//
// This package does not read environment variables; use the JSON file or
// flags to configure values.
package config
