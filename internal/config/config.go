package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds application configuration from environment.
type Config struct {
	HTTPPort        string
	StorageDSN      string // file path, sqlite path, postgres:// or redis:// URL
	StorageKey      string // key the serialized collection lives under
	KafkaBrokers    []string
	KafkaTopic      string
	KafkaPartitions int
	JWTSecret       string // empty disables auth on mutation routes
}

var (
	cfg     *Config
	cfgOnce sync.Once
)

// Get returns the application config (loads once from env).
func Get() *Config {
	cfgOnce.Do(func() {
		cfg = &Config{
			HTTPPort:        getEnv("HTTP_PORT", "8080"),
			StorageDSN:      getEnv("STORAGE_DSN", "tasks.json"),
			StorageKey:      getEnv("STORAGE_KEY", "tasks:v1"),
			KafkaBrokers:    getSliceEnv("KAFKA_BROKERS"),
			KafkaTopic:      getEnv("KAFKA_TOPIC", "task-events"),
			KafkaPartitions: getIntEnv("KAFKA_PARTITIONS", 4),
			JWTSecret:       os.Getenv("JWT_SECRET"),
		}
	})
	return cfg
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}

// getSliceEnv splits a comma-separated env var; unset means an empty slice.
func getSliceEnv(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
