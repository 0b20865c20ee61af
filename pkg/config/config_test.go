package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
environment: test
server:
  port: 8080
backend:
  type: kafka
kafka:
  brokers: ["localhost:9092"]
  ticks_topic: market.ticks
  alerts_topic: market.alerts
feed:
  provider: finnhub
  symbols: ["AAPL", "MSFT"]
  reconnect_delay: 5s
bedrock:
  region: us-east-1
models:
  health_cache_ttl: 10s
  profiles:
    - id: amazon.nova-lite-v1:0
      provider: bedrock
      family: nova
      capabilities: ["text-generation"]
      max_tokens: 5120
      output_cost_per_1k: 0.00024
compliance:
  regulations:
    - id: sec-10b5
      name: SEC Rule 10b-5
      jurisdiction: US
      severity: critical
alerts:
  default_cooldown: 90s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	c, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Environment != "test" || c.Backend.Type != "kafka" {
		t.Fatalf("unexpected config: %+v", c)
	}
	if c.Kafka.TicksTopic != "market.ticks" || c.Kafka.AlertsTopic != "market.alerts" {
		t.Fatalf("kafka topics not parsed: %+v", c.Kafka)
	}
	if len(c.Models.Profiles) != 1 || c.Models.Profiles[0].ID != "amazon.nova-lite-v1:0" {
		t.Fatalf("model profiles not parsed: %+v", c.Models.Profiles)
	}
	if c.Models.HealthCacheTTL != 10*time.Second {
		t.Fatalf("duration not parsed: %v", c.Models.HealthCacheTTL)
	}
	if len(c.Compliance.Regulations) != 1 || c.Compliance.Regulations[0].Severity != "critical" {
		t.Fatalf("regulations not parsed: %+v", c.Compliance.Regulations)
	}
	if c.Alerts.DefaultCooldown != 90*time.Second {
		t.Fatalf("cooldown not parsed: %v", c.Alerts.DefaultCooldown)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing environment", func(c *Config) { c.Environment = "" }},
		{"missing backend", func(c *Config) { c.Backend.Type = "" }},
		{"bad backend", func(c *Config) { c.Backend.Type = "postgres" }},
		{"no symbols", func(c *Config) { c.Feed.Symbols = nil }},
		{"no provider", func(c *Config) { c.Feed.Provider = "" }},
		{"no profiles", func(c *Config) { c.Models.Profiles = nil }},
		{"bad profile", func(c *Config) { c.Models.Profiles[0].MaxTokens = 0 }},
		{"no region", func(c *Config) { c.Bedrock.Region = "" }},
	}
	for _, tc := range cases {
		c, err := Load(writeConfig(t, sampleYAML))
		if err != nil {
			t.Fatalf("%s: load: %v", tc.name, err)
		}
		tc.mutate(c)
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("FEED_API_KEY", "secret")
	t.Setenv("BACKEND", "clickhouse")
	t.Setenv("SYMBOLS", "BTC,ETH")

	c, err := LoadWithEnv(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Feed.APIKey != "secret" {
		t.Fatalf("api key override lost")
	}
	if c.Backend.Type != "clickhouse" {
		t.Fatalf("backend override lost: %s", c.Backend.Type)
	}
	if len(c.Feed.Symbols) != 2 || c.Feed.Symbols[0] != "BTC" {
		t.Fatalf("symbols override lost: %v", c.Feed.Symbols)
	}
}

func TestFeedConfig(t *testing.T) {
	c, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	fc := c.FeedConfig()
	if fc.Provider != "finnhub" || len(fc.Symbols) != 2 || fc.ReconnectDelay != 5*time.Second {
		t.Fatalf("unexpected feed config: %+v", fc)
	}
	if err := fc.Validate(); err != nil {
		t.Fatalf("feed config must validate: %v", err)
	}
}
