package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `
environment: test
server:
  port: 8080
sources:
  binance:
    enabled: true
    base_url: https://api.binance.com
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMinimal(t *testing.T) {
	c, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Sources.Binance.Enabled {
		t.Fatalf("expected binance enabled")
	}
}

func TestValidateRejectsNoSources(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
server:
  port: 8080
`))
	if err == nil {
		t.Fatalf("expected validation error with no sources")
	}
}

func TestValidateKafkaNeedsBrokers(t *testing.T) {
	_, err := Load(writeConfig(t, minimalYAML+`
kafka:
  enabled: true
  topic: snapshots
`))
	if err == nil {
		t.Fatalf("expected validation error with no brokers")
	}
}

func TestApplyDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.ApplyDefaults()
	if c.Sources.Timeout != 6*time.Second {
		t.Fatalf("timeout default = %v", c.Sources.Timeout)
	}
	if c.Market.SnapshotTTL != 30*time.Second {
		t.Fatalf("snapshot ttl default = %v", c.Market.SnapshotTTL)
	}
	if c.Market.ZoneTopK != 4 {
		t.Fatalf("zone top k default = %d", c.Market.ZoneTopK)
	}
}

func TestLoadWithEnvOverride(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka1:9092,kafka2:9092")
	c, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Kafka.Brokers) != 2 {
		t.Fatalf("brokers = %v", c.Kafka.Brokers)
	}
}
