package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Engine   EngineConfig
	Ledger   LedgerConfig
	Wallet   WalletConfig
	Classify ClassifyConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// EngineConfig carries the tunable constants consumed by the reputation
// engine and the verification workflow. They are deployment configuration,
// not engine constants, so they can be adjusted without touching engine
// logic.
type EngineConfig struct {
	UpvoteDelta           int
	DownvoteDelta         int
	ResolvedDelta         int
	VerificationDelta     int
	SpamDelta             int
	VerificationThreshold int
}

// LedgerConfig configures the external ledger mirror boundary.
type LedgerConfig struct {
	Endpoint       string
	TimeoutSeconds int
	QueueSize      int
	MaxRetries     int
	RetryBackoffMS int
}

// WalletConfig configures the wallet provisioning collaborator.
type WalletConfig struct {
	Endpoint       string
	TimeoutSeconds int
}

// ClassifyConfig configures the image classification collaborator.
type ClassifyConfig struct {
	Endpoint       string
	TimeoutSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "civic-issue-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Engine: EngineConfig{
			UpvoteDelta:           getEnvAsInt("REPUTATION_UPVOTE_DELTA", 5),
			DownvoteDelta:         getEnvAsInt("REPUTATION_DOWNVOTE_DELTA", -3),
			ResolvedDelta:         getEnvAsInt("REPUTATION_RESOLVED_DELTA", 10),
			VerificationDelta:     getEnvAsInt("REPUTATION_VERIFICATION_DELTA", 5),
			SpamDelta:             getEnvAsInt("REPUTATION_SPAM_DELTA", -20),
			VerificationThreshold: getEnvAsInt("VERIFICATION_AUTO_CLOSE_THRESHOLD", 3),
		},
		Ledger: LedgerConfig{
			Endpoint:       getEnv("LEDGER_ENDPOINT", ""),
			TimeoutSeconds: getEnvAsInt("LEDGER_TIMEOUT_SECONDS", 5),
			QueueSize:      getEnvAsInt("LEDGER_QUEUE_SIZE", 1024),
			MaxRetries:     getEnvAsInt("LEDGER_MAX_RETRIES", 3),
			RetryBackoffMS: getEnvAsInt("LEDGER_RETRY_BACKOFF_MS", 500),
		},
		Wallet: WalletConfig{
			Endpoint:       getEnv("WALLET_ENDPOINT", ""),
			TimeoutSeconds: getEnvAsInt("WALLET_TIMEOUT_SECONDS", 5),
		},
		Classify: ClassifyConfig{
			Endpoint:       getEnv("CLASSIFY_ENDPOINT", ""),
			TimeoutSeconds: getEnvAsInt("CLASSIFY_TIMEOUT_SECONDS", 5),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
