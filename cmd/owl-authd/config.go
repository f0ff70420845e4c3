package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/owl-protocol/owl-go/internal/demowire"
)

// Config is the owl-authd configuration, loadable from YAML with flag
// overrides.
type Config struct {
	// Curve is the curve name (P256, P384, P521, FourQ).
	Curve string `yaml:"curve"`

	// ServerID is the server identity hashed into every verifier.
	// Changing it invalidates all registered credentials.
	ServerID string `yaml:"server_id"`

	// Listen is the TCP listen address.
	Listen string `yaml:"listen"`

	// StateDir holds the credential file. Empty means in-memory only.
	StateDir string `yaml:"state_dir"`

	// Advertise enables mDNS service advertisement.
	Advertise bool `yaml:"advertise"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the defaults applied before file and flags.
func DefaultConfig() Config {
	return Config{
		Curve:     "P256",
		ServerID:  "owl-authd.local",
		Listen:    fmt.Sprintf(":%d", demowire.DefaultPort),
		Advertise: true,
		LogLevel:  "info",
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}
