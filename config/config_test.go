package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sample = `
message_expiry_days = 30
storage_path = "/var/lib/switchroom/switchroom.db"

[service]
worker_threads = 4
bind_to_address = "0.0.0.0:9000"
ca_cert_path = "/etc/switchroom/ca.pem"
tls_cert_path = "/etc/switchroom/cert.pem"
tls_key_path = "/etc/switchroom/key.pem"

[metrics]
bind_to_address = "0.0.0.0:9001"
`

func TestLoadParsesAllFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Switchroom.toml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MessageExpiryDays != 30 {
		t.Errorf("MessageExpiryDays = %d, want 30", cfg.MessageExpiryDays)
	}
	if cfg.StoragePath != "/var/lib/switchroom/switchroom.db" {
		t.Errorf("StoragePath = %q", cfg.StoragePath)
	}
	if cfg.Service.WorkerThreads != 4 {
		t.Errorf("Service.WorkerThreads = %d, want 4", cfg.Service.WorkerThreads)
	}
	if cfg.Service.BindToAddress != "0.0.0.0:9000" {
		t.Errorf("Service.BindToAddress = %q", cfg.Service.BindToAddress)
	}
	if cfg.Metrics.BindToAddress != "0.0.0.0:9001" {
		t.Errorf("Metrics.BindToAddress = %q", cfg.Metrics.BindToAddress)
	}
}

func TestPathUsesEnvOverride(t *testing.T) {
	t.Setenv(EnvPathVar, "/tmp/custom.toml")
	if got := Path(); got != "/tmp/custom.toml" {
		t.Errorf("Path() = %q, want /tmp/custom.toml", got)
	}
}

func TestPathDefaultsWhenEnvUnset(t *testing.T) {
	t.Setenv(EnvPathVar, "")
	if got := Path(); got != defaultPath {
		t.Errorf("Path() = %q, want %q", got, defaultPath)
	}
}

func TestInstrumentedDisabled(t *testing.T) {
	t.Setenv(DisableInstrumentedVar, "")
	if InstrumentedDisabled() {
		t.Error("InstrumentedDisabled() = true with unset env var")
	}
	t.Setenv(DisableInstrumentedVar, "1")
	if !InstrumentedDisabled() {
		t.Error("InstrumentedDisabled() = false with env var set")
	}
}
