package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server  ServerConfig
	Worker  WorkerConfig
	Sources SourcesConfig
	Ingest  IngestConfig
	DB      DatabaseConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type SourcesConfig struct {
	ReliefWebURL   string
	ReliefWebLimit int

	USGSURL          string
	USGSMinMagnitude float64
	USGSDaysBack     int

	EveryOrgURL    string
	EveryOrgAPIKey string

	OpenCollectiveURL string

	// CharityMinDelay spaces successive calls to the same charity
	// provider to respect upstream rate limits.
	CharityMinDelay time.Duration
	CharityLimit    int
}

type IngestConfig struct {
	Enabled      bool
	Interval     time.Duration
	MaxCountries int // cap on per-country charity fetches per run
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 4),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 32),
		},
		Sources: SourcesConfig{
			ReliefWebURL:      getEnv("RELIEFWEB_URL", "https://api.reliefweb.int/v1/disasters"),
			ReliefWebLimit:    getEnvInt("RELIEFWEB_LIMIT", 50),
			USGSURL:           getEnv("USGS_URL", "https://earthquake.usgs.gov/fdsnws/event/1/query"),
			USGSMinMagnitude:  getEnvFloat("USGS_MIN_MAGNITUDE", 4.5),
			USGSDaysBack:      getEnvInt("USGS_DAYS_BACK", 30),
			EveryOrgURL:       getEnv("EVERYORG_URL", "https://partners.every.org/v0.2/search"),
			EveryOrgAPIKey:    getEnv("EVERYORG_API_KEY", ""),
			OpenCollectiveURL: getEnv("OPENCOLLECTIVE_URL", "https://api.opencollective.com/graphql/v2"),
			CharityMinDelay:   getEnvDuration("CHARITY_MIN_DELAY", 500*time.Millisecond),
			CharityLimit:      getEnvInt("CHARITY_LIMIT", 10),
		},
		Ingest: IngestConfig{
			Enabled:      getEnvBool("INGEST_ENABLED", true),
			Interval:     getEnvDuration("INGEST_INTERVAL", 6*time.Hour),
			MaxCountries: getEnvInt("INGEST_MAX_COUNTRIES", 10),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/globemap.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Ingest.Interval < time.Minute {
		return fmt.Errorf("ingest interval must be at least 1 minute")
	}
	if c.Ingest.MaxCountries < 1 {
		return fmt.Errorf("ingest max countries must be at least 1")
	}
	if c.Sources.CharityMinDelay < 0 {
		return fmt.Errorf("charity min delay must not be negative")
	}
	if c.Sources.USGSDaysBack < 1 {
		return fmt.Errorf("USGS days back must be at least 1")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
