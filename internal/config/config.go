// Package config loads service configuration from configs/config.yml and
// OBSERVO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the bootstrap configuration of the service.
type Config struct {
	Port      string          `mapstructure:"port"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Dedup     DedupConfig     `mapstructure:"dedup"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Retention RetentionConfig `mapstructure:"retention"`
	WS        WSConfig        `mapstructure:"ws"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console | json
}

type DBConfig struct {
	Driver string `mapstructure:"driver"` // sqlite | postgres
	DSN    string `mapstructure:"dsn"`
}

type KafkaConfig struct {
	Brokers        []string      `mapstructure:"brokers"`
	TopicPrefix    string        `mapstructure:"topic_prefix"`
	Topics         []string      `mapstructure:"topics"`
	GroupID        string        `mapstructure:"group_id"`
	CommitInterval time.Duration `mapstructure:"commit_interval"`
	CommitEvery    int           `mapstructure:"commit_every"`
	StartOffset    string        `mapstructure:"start_offset"` // latest | earliest, for a new group
}

type PipelineConfig struct {
	MessageTimeout time.Duration `mapstructure:"message_timeout"`
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
}

type DedupConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	MaxKeys int           `mapstructure:"max_keys"`
}

type NotifyConfig struct {
	From   string       `mapstructure:"from"`
	Email  EmailConfig  `mapstructure:"email"`
	SMTP   SMTPConfig   `mapstructure:"smtp"`
	Resend ResendConfig `mapstructure:"resend"`
	SES    SESConfig    `mapstructure:"ses"`
}

type EmailConfig struct {
	Provider string `mapstructure:"provider"` // smtp | resend | ses
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type ResendConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type SESConfig struct {
	Region string `mapstructure:"region"`
}

type RetentionConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type WSConfig struct {
	SendBuffer int `mapstructure:"send_buffer"`
}

// SetDefaults registers a default for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "3001")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "observo.db")
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic_prefix", "testing-logs")
	v.SetDefault("kafka.topics", []string{})
	v.SetDefault("kafka.group_id", "observo-log-consumer-group")
	v.SetDefault("kafka.commit_interval", 5*time.Second)
	v.SetDefault("kafka.commit_every", 100)
	v.SetDefault("kafka.start_offset", "latest")
	v.SetDefault("pipeline.message_timeout", 15*time.Second)
	v.SetDefault("redis.addr", "")
	v.SetDefault("dedup.enabled", true)
	v.SetDefault("dedup.ttl", 24*time.Hour)
	v.SetDefault("dedup.max_keys", 100000)
	v.SetDefault("notify.from", "alerts@observo.local")
	v.SetDefault("notify.email.provider", "smtp")
	v.SetDefault("notify.smtp.host", "localhost")
	v.SetDefault("notify.smtp.port", 1025)
	v.SetDefault("notify.ses.region", "us-east-1")
	v.SetDefault("retention.sweep_interval", time.Hour)
	v.SetDefault("ws.send_buffer", 256)
}

// Load reads configs/config.yml (optional) and the environment.
func Load(paths ...string) (Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("OBSERVO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)
	cfg.Kafka.Topics = splitList(cfg.Kafka.Topics)
	return cfg, cfg.Validate()
}

// Validate checks required fields and ranges.
func (c Config) Validate() error {
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty")
	}
	if c.Kafka.GroupID == "" {
		return fmt.Errorf("kafka.group_id cannot be empty")
	}
	if len(c.Kafka.Topics) == 0 && c.Kafka.TopicPrefix == "" {
		return fmt.Errorf("either kafka.topics or kafka.topic_prefix must be set")
	}
	if c.Kafka.CommitEvery <= 0 {
		return fmt.Errorf("kafka.commit_every must be positive")
	}
	if c.Kafka.CommitInterval <= 0 {
		return fmt.Errorf("kafka.commit_interval must be positive")
	}
	switch c.Kafka.StartOffset {
	case "latest", "earliest":
	default:
		return fmt.Errorf("kafka.start_offset must be latest or earliest, got %q", c.Kafka.StartOffset)
	}
	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("db.driver must be sqlite or postgres, got %q", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn cannot be empty")
	}
	switch c.Notify.Email.Provider {
	case "smtp", "resend", "ses":
	default:
		return fmt.Errorf("notify.email.provider must be smtp, resend or ses, got %q", c.Notify.Email.Provider)
	}
	if c.Pipeline.MessageTimeout <= 0 {
		return fmt.Errorf("pipeline.message_timeout must be positive")
	}
	if c.Retention.SweepInterval <= 0 {
		return fmt.Errorf("retention.sweep_interval must be positive")
	}
	return nil
}

// KafkaTopics returns the configured topics, or {prefix}.output when none
// are listed.
func (c Config) KafkaTopics() []string {
	if len(c.Kafka.Topics) > 0 {
		return c.Kafka.Topics
	}
	return []string{c.Kafka.TopicPrefix + ".output"}
}

// splitList flattens comma-separated entries coming from env vars.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
