package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Dev7-web/tendorlelo/internal/matching"
)

func validConfig() Config {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080},
		Database:  DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Embedding: EmbeddingConfig{Model: "text-embedding-3-small"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"redis addrs", func(c *Config) { c.Database.Addrs = nil }, "database.addrs"},
		{"driver", func(c *Config) { c.Database.Driver = "mongo" }, "database.driver"},
		{"model", func(c *Config) { c.Embedding.Model = "" }, "embedding.model"},
		{"weights", func(c *Config) { c.Matching.Weights.Domain = -1 }, "matching.weights"},
		{"boost", func(c *Config) { c.Matching.Boost.Strong2 = 0.5 }, "matching.boost"},
		{"jobs", func(c *Config) { c.Jobs.ExpireIntervalMin = -1 }, "jobs.expire_interval_min"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestValidate_BadgerNeedsNoAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = DriverBadger
	cfg.Database.Addrs = nil
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Database.Driver != DriverRedis {
		t.Errorf("expected driver %q, got %q", DriverRedis, cfg.Database.Driver)
	}
	if cfg.Storage.KeyPrefix != "tendorlelo:" {
		t.Errorf("unexpected key prefix %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Matching.Weights != matching.DefaultWeights() || cfg.Matching.Boost != matching.DefaultBoost() {
		t.Error("expected default weights and boost")
	}
	if cfg.Matching.CandidateCap != 500 || cfg.Matching.HistoryTopN != 5 || cfg.Matching.HistoryRetention != 1000 {
		t.Errorf("unexpected matching defaults: %+v", cfg.Matching)
	}
	if cfg.Matching.Workers < 1 {
		t.Errorf("expected at least one worker, got %d", cfg.Matching.Workers)
	}
	if cfg.Extractor.Retry.MaxAttempts != 3 {
		t.Errorf("expected default retry policy, got %+v", cfg.Extractor.Retry)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		Database: DatabaseConfig{Driver: DriverBadger},
		Matching: MatchingConfig{CandidateCap: 50, Weights: matching.Weights{Vector: 1}},
		Storage:  StorageConfig{KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.Database.Driver != DriverBadger || cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("explicit values overridden: %+v", cfg)
	}
	if cfg.Matching.CandidateCap != 50 || cfg.Matching.Weights.Vector != 1 || cfg.Matching.Weights.Domain != 0 {
		t.Errorf("explicit matching values overridden: %+v", cfg.Matching)
	}
}

func TestParse_ExpandsEnvAndDurations(t *testing.T) {
	t.Setenv("TL_TEST_KEY", "sk-test")
	yml := []byte(`
http:
  port: ${TL_TEST_PORT:-9090}
database:
  driver: badger
embedding:
  api_key: ${TL_TEST_KEY}
  model: text-embedding-3-small
extractor:
  model: gpt-4o-mini
  retry:
    max_attempts: 4
    base_delay: 2s
matching:
  weights:
    domain: 0.3
    vector: 0.7
  candidate_cap: 100
`)
	cfg, err := Parse(yml)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected default port from expansion, got %d", cfg.HTTP.Port)
	}
	if cfg.Embedding.APIKey != "sk-test" {
		t.Errorf("expected expanded api key, got %q", cfg.Embedding.APIKey)
	}
	if cfg.Extractor.Retry.MaxAttempts != 4 || cfg.Extractor.Retry.BaseDelay != 2*time.Second {
		t.Errorf("unexpected retry policy: %+v", cfg.Extractor.Retry)
	}
	if cfg.Matching.Weights.Domain != 0.3 || cfg.Matching.Weights.Technology != 0 {
		t.Errorf("unexpected weights: %+v", cfg.Matching.Weights)
	}
	if cfg.Matching.Boost != matching.DefaultBoost() {
		t.Errorf("expected default boost, got %+v", cfg.Matching.Boost)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("local config must load with defaults: %v", err)
	}
	if cfg.HTTP.Port == 0 || cfg.Embedding.Model == "" {
		t.Errorf("unexpected local config: %+v", cfg)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TL_SET", "value")
	_ = os.Unsetenv("TL_UNSET")

	got := string(expandEnvVars([]byte("a=${TL_SET} b=${TL_UNSET:-fallback} c=${TL_UNSET}")))
	if got != "a=value b=fallback c=" {
		t.Errorf("unexpected expansion %q", got)
	}
}
