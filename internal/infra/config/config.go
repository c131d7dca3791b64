package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/joho/godotenv"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                string
	LogLevel           string
	HTTPAddr           string
	CORSOrigins        []string
	StorageMode        string
	FixturesPath       string
	MongoURI           string
	MongoDB            string
	RedisAddr          string
	QuoteCacheTTL      time.Duration
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	KafkaSyncTopic     string
	KafkaGroupID       string
	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
	MarketDataURL      string
	ProviderTimeout    time.Duration
	MultiplierFloor    float64
	PriceBounds        string
	StrategyTick       time.Duration
	S3Endpoint         string
	S3AccessKey        string
	S3SecretKey        string
	S3Bucket           string
	S3UseSSL           bool
	ScyllaHosts        []string
	ScyllaKeyspace     string
	ScyllaConsistency  gocql.Consistency
	ScyllaTimeout      time.Duration
}

// Load reads an optional .env file and then the environment. Adapters whose
// address is empty stay disabled.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		CORSOrigins:      splitAndTrim(getEnv("CORS_ORIGINS", "*")),
		StorageMode:      strings.ToLower(getEnv("STORAGE_MODE", StorageMemory)),
		FixturesPath:     os.Getenv("FIXTURES_PATH"),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "ratepilot"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		KafkaBrokers:     splitAndTrim(os.Getenv("KAFKA_BROKERS")),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaSyncTopic:   getEnv("KAFKA_SYNC_TOPIC", "calendar.sync-requests"),
		KafkaGroupID:     getEnv("KAFKA_GROUP_ID", "ratepilot"),
		MarketDataURL:    strings.TrimRight(os.Getenv("MARKET_DATA_URL"), "/"),
		PriceBounds:      os.Getenv("PRICE_BOUNDS"),
		S3Endpoint:       os.Getenv("S3_ENDPOINT"),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:      getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:         getEnv("S3_BUCKET", "ratepilot-reports"),
		ScyllaHosts:      splitAndTrim(os.Getenv("SCYLLA_HOSTS")),
		ScyllaKeyspace:   strings.TrimSpace(getEnv("SCYLLA_KEYSPACE", "ratepilot")),
	}

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"QUOTE_CACHE_TTL", 24 * time.Hour, &cfg.QuoteCacheTTL},
		{"IDEMP_TTL", 168 * time.Hour, &cfg.IdempotencyTTL},
		{"OUTBOX_POLL_INTERVAL", 500 * time.Millisecond, &cfg.OutboxPollInterval},
		{"PROVIDER_TIMEOUT", 3 * time.Second, &cfg.ProviderTimeout},
		{"STRATEGY_TICK", time.Minute, &cfg.StrategyTick},
		{"SCYLLA_TIMEOUT", 5 * time.Second, &cfg.ScyllaTimeout},
	}
	for _, d := range durations {
		v, err := parseDurationEnv(d.key, d.def)
		if err != nil {
			return Config{}, err
		}
		*d.dst = v
	}

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	useSSL, err := parseBoolEnv("S3_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	cfg.S3UseSSL = useSSL

	floor, err := parseFloatEnv("MULTIPLIER_FLOOR", 0.1)
	if err != nil {
		return Config{}, err
	}
	if floor < 0 {
		return Config{}, fmt.Errorf("MULTIPLIER_FLOOR must be non-negative")
	}
	cfg.MultiplierFloor = floor

	consistency, err := parseConsistency(getEnv("SCYLLA_CONSISTENCY", "quorum"))
	if err != nil {
		return Config{}, err
	}
	cfg.ScyllaConsistency = consistency

	switch cfg.StorageMode {
	case StorageMemory:
	case StorageMongo:
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required when STORAGE_MODE=mongo")
		}
	default:
		return Config{}, fmt.Errorf("unsupported STORAGE_MODE: %s", cfg.StorageMode)
	}
	if cfg.StrategyTick <= 0 {
		return Config{}, fmt.Errorf("STRATEGY_TICK must be positive")
	}
	return cfg, nil
}

// TopicFor prefixes an event name the way the outbox relay publishes it.
func (c Config) TopicFor(name string) string {
	if c.KafkaTopicPrefix == "" {
		return name
	}
	return c.KafkaTopicPrefix + "." + name
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitAndTrim(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseFloatEnv(key string, def float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s number: %w", key, err)
	}
	return v, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}

func parseConsistency(raw string) (gocql.Consistency, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "quorum":
		return gocql.Quorum, nil
	case "one":
		return gocql.One, nil
	case "local_quorum", "localquorum":
		return gocql.LocalQuorum, nil
	case "all":
		return gocql.All, nil
	default:
		return gocql.Quorum, fmt.Errorf("unsupported SCYLLA_CONSISTENCY: %s", raw)
	}
}
