package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Embedding    EmbeddingConfig
	Matching     MatchingConfig
	Resume       ResumeConfig
	Notification NotificationConfig
	JWT          JWTConfig
	Log          LogConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// EmbeddingConfig is handed to the embedding gateway constructor. The gateway
// never reads the environment itself.
type EmbeddingConfig struct {
	APIKey    string
	URL       string
	Model     string
	MaxChars  int
	Dimension int
	Timeout   time.Duration
}

type MatchingConfig struct {
	DefaultMinScore int
	CacheTTL        time.Duration
	ReembedWorkers  int
	ReembedRPS      int
}

type ResumeConfig struct {
	ParseCacheSize int
	ParseCacheTTL  time.Duration
}

type NotificationConfig struct {
	Channel         string
	QueueKey        string
	RealtimeChannel string
	ClaimTTL        time.Duration
	SweepCron       string
	SweepLimit      int
}

type JWTConfig struct {
	AccessSecret string
}

type LogConfig struct {
	Level  string
	Format string
}

const (
	DefaultEmbeddingURL       = "https://api.openai.com/v1/embeddings"
	DefaultEmbeddingModel     = "text-embedding-ada-002"
	DefaultEmbeddingMaxChars  = 8000
	DefaultEmbeddingDimension = 1536
)

var errMissingRequiredEnv = errors.New("missing required environment variables")

// Load reads an optional .env file (ENV_FILE overrides the path) and then the
// process environment.
func Load() (Config, error) {
	envFile := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{}

	var missing []string
	var invalid []string
	req := func(key string) string {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key string) string {
		return strings.TrimSpace(getenv(key))
	}
	optDefault := func(key, def string) string {
		if v := opt(key); v != "" {
			return v
		}
		return def
	}
	optInt := func(key string, def int) int {
		raw := opt(key)
		if raw == "" {
			return def
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return v
	}
	optDuration := func(key string, def time.Duration) time.Duration {
		raw := opt(key)
		if raw == "" {
			return def
		}
		if d, err := time.ParseDuration(raw); err == nil {
			return d
		}
		// plain integers are seconds, like REDIS_TTL in older deployments
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
		invalid = append(invalid, key)
		return def
	}

	cfg.App = AppConfig{
		AppName:     req("APP_NAME"),
		Environment: req("APP_ENV"),
		HTTPPort:    req("HTTP_PORT"),
	}

	cfg.Database = DatabaseConfig{
		DBHost:                opt("DB_HOST"),
		DBPort:                opt("DB_PORT"),
		DBName:                opt("DB_NAME"),
		DBUser:                opt("DB_USER"),
		DBPassword:            opt("DB_PASSWORD"),
		DBSSLMode:             optDefault("DB_SSL_MODE", "disable"),
		ConnectTimeout:        optDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:          int32(optInt("DB_POOL_MAX_CONNS", 0)),
		PoolMinConns:          int32(optInt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime:   optDuration("DB_POOL_MAX_CONN_LIFETIME", 0),
		PoolMaxConnIdleTime:   optDuration("DB_POOL_MAX_CONN_IDLE_TIME", 0),
		PoolHealthCheckPeriod: optDuration("DB_POOL_HEALTH_CHECK_PERIOD", 0),
	}

	cfg.Redis = RedisConfig{
		Host:     optDefault("REDIS_HOST", "localhost"),
		Port:     optDefault("REDIS_PORT", "6379"),
		Password: opt("REDIS_PASSWORD"),
		DB:       optInt("REDIS_DB", 0),
		TTL:      optDuration("REDIS_TTL", 600*time.Second),
	}

	apiKey := opt("EMBEDDING_API_KEY")
	if apiKey == "" {
		apiKey = opt("OPENAI_API_KEY")
	}
	if apiKey == "" {
		missing = append(missing, "EMBEDDING_API_KEY")
	}
	cfg.Embedding = EmbeddingConfig{
		APIKey:    apiKey,
		URL:       optDefault("EMBEDDING_URL", optDefault("OPENAI_EMBEDDINGS_URL", DefaultEmbeddingURL)),
		Model:     optDefault("EMBEDDING_MODEL", optDefault("OPENAI_EMBEDDINGS_MODEL", DefaultEmbeddingModel)),
		MaxChars:  optInt("EMBEDDING_MAX_CHARS", DefaultEmbeddingMaxChars),
		Dimension: optInt("EMBEDDING_DIMENSION", DefaultEmbeddingDimension),
		Timeout:   optDuration("EMBEDDING_TIMEOUT", 30*time.Second),
	}

	cfg.Matching = MatchingConfig{
		DefaultMinScore: optInt("MATCH_DEFAULT_MIN_SCORE", 70),
		CacheTTL:        optDuration("MATCH_CACHE_TTL", 5*time.Minute),
		ReembedWorkers:  optInt("REEMBED_WORKERS", 4),
		ReembedRPS:      optInt("REEMBED_RPS", 0),
	}

	cfg.Resume = ResumeConfig{
		ParseCacheSize: optInt("RESUME_PARSE_CACHE_SIZE", 256),
		ParseCacheTTL:  optDuration("RESUME_PARSE_CACHE_TTL", 30*time.Minute),
	}

	cfg.Notification = NotificationConfig{
		Channel:         optDefault("NOTIFY_CHANNEL", "email"),
		QueueKey:        optDefault("NOTIFY_QUEUE_KEY", "notifications:queue"),
		RealtimeChannel: optDefault("NOTIFY_REALTIME_CHANNEL", "realtime:notifications"),
		ClaimTTL:        optDuration("NOTIFY_CLAIM_TTL", 2*time.Minute),
		SweepCron:       optDefault("NOTIFY_SWEEP_CRON", "*/10 * * * *"),
		SweepLimit:      optInt("NOTIFY_SWEEP_LIMIT", 500),
	}

	cfg.JWT = JWTConfig{
		AccessSecret: opt("JWT_ACCESS_SECRET"),
	}

	cfg.Log = LogConfig{
		Level:  optDefault("LOG_LEVEL", "info"),
		Format: optDefault("LOG_FORMAT", "json"),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}
	if cfg.Embedding.MaxChars <= 0 {
		return Config{}, fmt.Errorf("invalid environment variables: EMBEDDING_MAX_CHARS")
	}
	if cfg.Matching.DefaultMinScore < 0 || cfg.Matching.DefaultMinScore > 100 {
		return Config{}, fmt.Errorf("invalid environment variables: MATCH_DEFAULT_MIN_SCORE")
	}

	return cfg, nil
}

func IsMissingRequired(err error) bool {
	return errors.Is(err, errMissingRequiredEnv)
}
