package config

import (
	"os"
	"path/filepath"
	"testing"
)

const schema = `
listen_addr?: string
cluster_id?:  string
log_format?:  "text" | "json"

registry?: {
	stale_timeout_s?:  int & >0
	sweep_interval_s?: int & >0
}
`

func writeFiles(t *testing.T, yamlContent string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cuePath := filepath.Join(dir, "schema.cue")
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cuePath, []byte(schema), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfgPath, cuePath
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfgPath, cuePath := writeFiles(t, "listen_addr: \":9000\"\n")
	cfg, err := Load(cfgPath, cuePath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("expected :9000, got %s", cfg.ListenAddr)
	}
	if cfg.Registry.StaleTimeoutS != 30 || cfg.Registry.SweepIntervalS != 5 {
		t.Errorf("defaults not applied: %+v", cfg.Registry)
	}
	if cfg.StaleTimeout().Seconds() != 30 {
		t.Errorf("unexpected timeout %v", cfg.StaleTimeout())
	}
}

func TestLoadRejectsSchemaViolation(t *testing.T) {
	cfgPath, cuePath := writeFiles(t, "registry:\n  stale_timeout_s: -5\n")
	if _, err := Load(cfgPath, cuePath); err == nil {
		t.Error("expected schema validation failure for negative timeout")
	}
}

func TestLoadRejectsBadLogFormat(t *testing.T) {
	cfgPath, cuePath := writeFiles(t, "log_format: \"xml\"\n")
	if _, err := Load(cfgPath, cuePath); err == nil {
		t.Error("expected schema validation failure for unknown log format")
	}
}
