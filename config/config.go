package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "motomar-default-secret-change-in-production"

type Config struct {
	Env      string
	Port     string
	LogLevel string

	DBDriver    string
	DatabaseURL string

	JWTSecret    string
	JWTExpiresIn time.Duration
	JWTIssuer    string

	FrontendURL string

	// Seeds the administrator account on an empty database when set
	AdminPassword string

	// Redis backs the shared per-account rate limit counter
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Object storage for listing images
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string

	// Email Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string

	NatsURL string

	RateLimitPerMinute  int
	RateLimitBurst      int
	UserRateLimitMax    int
	UserRateLimitWindow time.Duration

	MaxUploadFileSize int64
	MaxUploadFiles    int
}

// Load reads the process environment, after merging an optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:      strings.ToLower(getEnv("APP_ENV", "development")),
		Port:     getEnv("PORT", "3001"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DatabaseURL: getEnv("DATABASE_URL", "user:password@tcp(localhost:3306)/motomar?charset=utf8mb4&parseTime=True&loc=Local"),

		JWTSecret:    getEnv("JWT_SECRET", defaultJWTSecret),
		JWTExpiresIn: getEnvDuration("JWT_EXPIRES_IN", 7*24*time.Hour),
		JWTIssuer:    getEnv("JWT_ISSUER", "motomar-api"),

		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "motomar"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioPublicURL: getEnv("MINIO_PUBLIC_URL", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@motomar.com"),
		FromName:     getEnv("FROM_NAME", "MotoMar"),

		NatsURL: getEnv("NATS_URL", ""),

		RateLimitPerMinute:  getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		RateLimitBurst:      getEnvInt("RATE_LIMIT_BURST", 30),
		UserRateLimitMax:    getEnvInt("USER_RATE_LIMIT_MAX", 100),
		UserRateLimitWindow: getEnvDuration("USER_RATE_LIMIT_WINDOW", 15*time.Minute),

		MaxUploadFileSize: int64(getEnvInt("MAX_UPLOAD_FILE_SIZE", 10*1024*1024)),
		MaxUploadFiles:    getEnvInt("MAX_UPLOAD_FILES", 5),
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects configurations that must never reach a running server.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.DBDriver != "mysql" && c.DBDriver != "sqlite" {
		return errors.New("DB_DRIVER must be mysql or sqlite")
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.JWTExpiresIn <= 0 {
		return errors.New("JWT_EXPIRES_IN must be positive")
	}
	if c.RateLimitPerMinute <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE and RATE_LIMIT_BURST must be positive")
	}
	if c.UserRateLimitMax <= 0 || c.UserRateLimitWindow <= 0 {
		return errors.New("USER_RATE_LIMIT_MAX and USER_RATE_LIMIT_WINDOW must be positive")
	}
	if c.MaxUploadFiles <= 0 || c.MaxUploadFileSize <= 0 {
		return errors.New("MAX_UPLOAD_FILES and MAX_UPLOAD_FILE_SIZE must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
