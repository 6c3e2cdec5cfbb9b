// Package config provides configuration management for the leapquery CLI.
package config

import (
	"time"

	"github.com/leapstack-labs/leapquery/pkg/core"
)

// Defaults.
const (
	DefaultStateFile     = ".leapquery/state.db"
	DefaultOutput        = "auto"
	DefaultServerPort    = 8765
	DefaultRemoteBaseURL = "http://localhost:8765"
	DefaultRemoteTimeout = 10 * time.Second
)

// ServerConfig holds configuration for the local query service.
type ServerConfig struct {
	Port int `koanf:"port"`
}

// RemoteConfig points the editor commands at a query service.
type RemoteConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// Config holds all CLI configuration options.
type Config struct {
	StatePath    string       `koanf:"state_path"`
	AppID        string       `koanf:"app_id"`
	VersionID    string       `koanf:"version_id"`
	Verbose      bool         `koanf:"verbose"`
	OutputFormat string       `koanf:"output"`
	Server       ServerConfig `koanf:"server"`
	Remote       RemoteConfig `koanf:"remote"`
	// Sources is the data source catalog offered to new drafts.
	Sources []core.DataSource `koanf:"sources"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Defaults returns a Config populated with the built-in defaults.
func Defaults() *Config {
	return &Config{
		StatePath:    DefaultStateFile,
		OutputFormat: DefaultOutput,
		Server:       ServerConfig{Port: DefaultServerPort},
		Remote:       RemoteConfig{BaseURL: DefaultRemoteBaseURL, Timeout: DefaultRemoteTimeout},
	}
}
