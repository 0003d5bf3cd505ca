package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Source names where observations are loaded from.
type Source string

const (
	SourceCSV      Source = "csv"
	SourceRemote   Source = "remote"
	SourceSQLite   Source = "sqlite"
	SourcePostgres Source = "postgres"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Observation source. At most one of DataURLs, SQLitePath and DatabaseURL is set;
	// when none is, DataPath is read as a local CSV file.
	DataPath    string
	DataURLs    []string
	SQLitePath  string
	DatabaseURL string

	// Remote CSV fetching.
	DataFetchTimeout time.Duration
	DataCacheSize    int
	DataCacheTTL     time.Duration

	TopN            int
	RefreshInterval time.Duration

	KafkaBrokers   []string
	KafkaSinkTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Source reports which observation source the configuration selects.
func (c *Config) Source() Source {
	switch {
	case c.DatabaseURL != "":
		return SourcePostgres
	case c.SQLitePath != "":
		return SourceSQLite
	case len(c.DataURLs) > 0:
		return SourceRemote
	default:
		return SourceCSV
	}
}

// PublishEnabled reports whether rankings are published to Kafka.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("DATA_FETCH_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration("DATA_CACHE_TTL", "15m")
	if err != nil {
		return nil, err
	}
	refresh, err := parsePositiveDuration("REFRESH_INTERVAL", "15m")
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("DATA_CACHE_SIZE", 16)
	if err != nil {
		return nil, err
	}
	topN, err := parsePositiveInt("TOP_N", 10)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if raw := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}

	cfg := &Config{
		DataPath:         sharedcfg.EnvOrDefault("DATA_PATH", "data/snow_weather.csv"),
		DataURLs:         splitList(os.Getenv("DATA_URL")),
		SQLitePath:       strings.TrimSpace(os.Getenv("SQLITE_PATH")),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DataFetchTimeout: fetchTimeout,
		DataCacheSize:    cacheSize,
		DataCacheTTL:     cacheTTL,
		TopN:             topN,
		RefreshInterval:  refresh,
		KafkaBrokers:     brokers,
		KafkaSinkTopic:   sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "snow-rankings"),
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	set := 0
	for _, ok := range []bool{len(c.DataURLs) > 0, c.SQLitePath != "", c.DatabaseURL != ""} {
		if ok {
			set++
		}
	}
	if set > 1 {
		return errors.New("only one of DATA_URL, SQLITE_PATH and DATABASE_URL may be set")
	}
	for _, raw := range c.DataURLs {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("DATA_URL entry %q must be an absolute http or https URL", raw)
		}
	}
	if c.Source() == SourceCSV && c.DataPath == "" {
		return errors.New("DATA_PATH is required")
	}
	if c.PublishEnabled() && c.KafkaSinkTopic == "" {
		return errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q: expected json or text", c.LogFormat)
	}
	return nil
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}
