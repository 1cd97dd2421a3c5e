package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr     string
	DBPath   string
	LogLevel string

	JWTSecret string
	TokenTTL  time.Duration

	// Requests per minute allowed on the login and register endpoints,
	// per client IP.
	AuthRateLimit int

	// Optional RabbitMQ event publishing. Disabled when AMQPURL is empty.
	AMQPURL      string
	AMQPExchange string

	// Optional encrypted S3 backups. Disabled when S3Bucket is empty.
	S3Bucket         string
	S3Region         string
	S3Endpoint       string
	S3AccessKey      string
	S3SecretKey      string
	BackupPassphrase string
	BackupInterval   time.Duration
}

// Load reads configuration from the environment, after loading .env if one
// is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:     getEnv("GRANA_ADDR", ":8080"),
		DBPath:   getEnv("GRANA_DB_PATH", "grana.db"),
		LogLevel: getEnv("GRANA_LOG_LEVEL", "info"),

		JWTSecret: os.Getenv("GRANA_JWT_SECRET"),
		TokenTTL:  getEnvDuration("GRANA_TOKEN_TTL", 24*time.Hour),

		AuthRateLimit: getEnvInt("GRANA_AUTH_RATE_LIMIT", 10),

		AMQPURL:      os.Getenv("GRANA_AMQP_URL"),
		AMQPExchange: getEnv("GRANA_AMQP_EXCHANGE", "grana.events"),

		S3Bucket:         os.Getenv("GRANA_S3_BUCKET"),
		S3Region:         getEnv("GRANA_S3_REGION", "auto"),
		S3Endpoint:       os.Getenv("GRANA_S3_ENDPOINT"),
		S3AccessKey:      os.Getenv("GRANA_S3_ACCESS_KEY"),
		S3SecretKey:      os.Getenv("GRANA_S3_SECRET_KEY"),
		BackupPassphrase: os.Getenv("GRANA_BACKUP_PASSPHRASE"),
		BackupInterval:   getEnvDuration("GRANA_BACKUP_INTERVAL", 24*time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("GRANA_JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("GRANA_TOKEN_TTL must be positive")
	}
	if c.AuthRateLimit <= 0 {
		return fmt.Errorf("GRANA_AUTH_RATE_LIMIT must be positive")
	}
	if c.S3Bucket != "" && c.BackupPassphrase == "" {
		return fmt.Errorf("GRANA_BACKUP_PASSPHRASE is required when backups are enabled")
	}
	return nil
}

func (c *Config) BackupsEnabled() bool {
	return c.S3Bucket != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
