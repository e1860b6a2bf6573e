package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the file-backed service configuration. Environment variables
// override individual fields where a matching env var exists.
type Config struct {
	NATS struct {
		URL           string `yaml:"url"`
		StreamName    string `yaml:"stream_name"`
		SubjectPrefix string `yaml:"subject_prefix"`
		Enabled       bool   `yaml:"enabled"`
	} `yaml:"nats"`

	Gateway struct {
		PingIntervalSec int `yaml:"ping_interval_sec"`
		ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	} `yaml:"gateway"`

	Outbox struct {
		PollIntervalMs int `yaml:"poll_interval_ms"`
		BatchSize      int `yaml:"batch_size"`
		MaxRetries     int `yaml:"max_retries"`
	} `yaml:"outbox"`
}

func defaultConfig() *Config {
	var cfg Config
	cfg.NATS.URL = getEnv("NATS_URL", "nats://localhost:4222")
	cfg.NATS.StreamName = "ROOM_EVENTS"
	cfg.NATS.SubjectPrefix = "room.events"
	cfg.NATS.Enabled = getEnv("NATS_ENABLED", "true") == "true"
	return &cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.NATS.URL == "" {
		config.NATS.URL = getEnv("NATS_URL", "nats://localhost:4222")
	}
	if config.NATS.StreamName == "" {
		config.NATS.StreamName = "ROOM_EVENTS"
	}
	if config.NATS.SubjectPrefix == "" {
		config.NATS.SubjectPrefix = "room.events"
	}

	return &config, nil
}
