package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pstrings "eligibility/pkg/platform/strings"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is the full service configuration.
type Config struct {
	Server   Server
	Sources  Sources
	Cache    Cache
	State    State
	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr      string
	LogLevel  string
	LogFormat string
}

// Sources configures the upstream census clients.
type Sources struct {
	GeocoderURL      string
	ACSURL           string
	ACSYear          int
	ACSAPIKey        string
	Timeout          time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Cache selects and tunes the snapshot cache.
type Cache struct {
	Backend string
	TTL     time.Duration
}

// State bounds the per-record controller state held in memory.
type State struct {
	IdleTTL         time.Duration
	CleanupInterval time.Duration
}

// RedisConfig holds connection settings; an empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig holds the record store DSN; empty means in-memory records.
type PostgresConfig struct {
	URL          string
	MaxOpenConns int
}

// KafkaConfig enables snapshot events when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Load reads an optional .env file and then builds the config from the
// environment. Variables already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var errs []error
	cfg := Config{
		Server: Server{
			Addr:      getEnv("CRA_ADDR", ":8080"),
			LogLevel:  getEnv("CRA_LOG_LEVEL", "info"),
			LogFormat: getEnv("CRA_LOG_FORMAT", "json"),
		},
		Sources: Sources{
			GeocoderURL:      getEnv("CRA_GEOCODER_URL", "https://geocoding.geo.census.gov"),
			ACSURL:           getEnv("CRA_ACS_URL", "https://api.census.gov/data"),
			ACSYear:          getInt("CRA_ACS_YEAR", 2023, &errs),
			ACSAPIKey:        os.Getenv("CENSUS_API_KEY"),
			Timeout:          getDuration("CRA_SOURCE_TIMEOUT", 10*time.Second, &errs),
			BreakerThreshold: getInt("CRA_BREAKER_THRESHOLD", 5, &errs),
			BreakerCooldown:  getDuration("CRA_BREAKER_COOLDOWN", 30*time.Second, &errs),
		},
		Cache: Cache{
			Backend: strings.ToLower(getEnv("CRA_CACHE_BACKEND", CacheMemory)),
			TTL:     getDuration("CRA_CACHE_TTL", time.Hour, &errs),
		},
		State: State{
			IdleTTL:         getDuration("CRA_STATE_IDLE_TTL", 30*time.Minute, &errs),
			CleanupInterval: getDuration("CRA_CLEANUP_INTERVAL", time.Minute, &errs),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10, &errs),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2, &errs),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second, &errs),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second, &errs),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second, &errs),
		},
		Postgres: PostgresConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: getInt("DATABASE_MAX_OPEN_CONNS", 10, &errs),
		},
		Kafka: KafkaConfig{
			Brokers: pstrings.SplitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("CRA_EVENTS_TOPIC", "cra.snapshots"),
		},
	}
	if err := cfg.validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if c.Redis.URL == "" {
			return errors.New("CRA_CACHE_BACKEND=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown CRA_CACHE_BACKEND %q", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return errors.New("CRA_CACHE_TTL must be positive")
	}
	if c.State.IdleTTL <= 0 || c.State.CleanupInterval <= 0 {
		return errors.New("CRA_STATE_IDLE_TTL and CRA_CLEANUP_INTERVAL must be positive")
	}
	if c.Sources.BreakerThreshold < 1 {
		return errors.New("CRA_BREAKER_THRESHOLD must be at least 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]error) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}
