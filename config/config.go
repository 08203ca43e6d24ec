// Package config loads the switchroom TOML configuration file described
// in spec.md §6.
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

const defaultPath = "./Switchroom.toml"

// EnvPathVar is the environment variable overriding the default config
// file path.
const EnvPathVar = "SWITCHROOM_TOML"

// DisableInstrumentedVar, when set to any non-empty value, skips the
// metrics server bootstrap.
const DisableInstrumentedVar = "DISABLE_INSTRUMENTED"

// Config mirrors spec.md §6's TOML schema, plus StoragePath (the bbolt
// data file location the concrete storage engine needs to open).
type Config struct {
	MessageExpiryDays int64         `toml:"message_expiry_days"`
	StoragePath       string        `toml:"storage_path"`
	Service           ServiceConfig `toml:"service"`
	Metrics           MetricsConfig `toml:"metrics"`
}

type ServiceConfig struct {
	WorkerThreads uint   `toml:"worker_threads"`
	BindToAddress string `toml:"bind_to_address"`
	CACertPath    string `toml:"ca_cert_path"`
	TLSCertPath   string `toml:"tls_cert_path"`
	TLSKeyPath    string `toml:"tls_key_path"`
}

type MetricsConfig struct {
	BindToAddress string `toml:"bind_to_address"`
}

// Path resolves the config file path: SWITCHROOM_TOML if set, otherwise
// ./Switchroom.toml.
func Path() string {
	if p := os.Getenv(EnvPathVar); p != "" {
		return p
	}
	return defaultPath
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// InstrumentedDisabled reports whether DISABLE_INSTRUMENTED is set.
func InstrumentedDisabled() bool {
	return os.Getenv(DisableInstrumentedVar) != ""
}
