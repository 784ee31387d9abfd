package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "3001" {
		t.Fatalf("expected port 3001, got %q", cfg.Port)
	}
	if cfg.Kafka.CommitEvery != 100 || cfg.Kafka.CommitInterval != 5*time.Second {
		t.Fatalf("unexpected commit window: %d / %s", cfg.Kafka.CommitEvery, cfg.Kafka.CommitInterval)
	}
	topics := cfg.KafkaTopics()
	if len(topics) != 1 || topics[0] != "testing-logs.output" {
		t.Fatalf("unexpected default topics: %v", topics)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yml := "port: \"8080\"\nkafka:\n  topics:\n    - a.logs\n    - b.logs\ndb:\n  driver: postgres\n  dsn: postgres://x\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OBSERVO_KAFKA_GROUP_ID", "from-env")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected port from file, got %q", cfg.Port)
	}
	if cfg.Kafka.GroupID != "from-env" {
		t.Fatalf("expected group id from env, got %q", cfg.Kafka.GroupID)
	}
	if got := cfg.KafkaTopics(); len(got) != 2 || got[1] != "b.logs" {
		t.Fatalf("unexpected topics: %v", got)
	}
	if cfg.DB.Driver != "postgres" {
		t.Fatalf("expected postgres driver, got %q", cfg.DB.Driver)
	}
}

func TestValidate(t *testing.T) {
	base, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no brokers", func(c *Config) { c.Kafka.Brokers = nil }},
		{"no group", func(c *Config) { c.Kafka.GroupID = "" }},
		{"no topics", func(c *Config) { c.Kafka.Topics = nil; c.Kafka.TopicPrefix = "" }},
		{"bad driver", func(c *Config) { c.DB.Driver = "mysql" }},
		{"bad provider", func(c *Config) { c.Notify.Email.Provider = "pigeon" }},
		{"zero commit every", func(c *Config) { c.Kafka.CommitEvery = 0 }},
		{"bad start offset", func(c *Config) { c.Kafka.StartOffset = "middle" }},
		{"zero sweep interval", func(c *Config) { c.Retention.SweepInterval = 0 }},
		{"negative sweep interval", func(c *Config) { c.Retention.SweepInterval = -time.Minute }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList([]string{"a:9092, b:9092", " ", "c:9092"})
	if len(got) != 3 || got[0] != "a:9092" || got[1] != "b:9092" || got[2] != "c:9092" {
		t.Fatalf("unexpected split: %v", got)
	}
}
